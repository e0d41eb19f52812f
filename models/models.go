// Package models holds the gorm table definitions shared across services.
package models

// All lists every table in migration order.
func All() []any {
	return []any{
		&Account{},
		&Profile{},
		&Crop{},
		&CropRegion{},
		&PlantationGuide{},
		&PlantingCalendar{},
	}
}

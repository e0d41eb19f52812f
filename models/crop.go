package models

import "strings"

type Region string

const (
	RegionTerai    Region = "Terai"
	RegionHill     Region = "Hill"
	RegionMountain Region = "Mountain"
)

var Regions = []Region{RegionTerai, RegionHill, RegionMountain}

func (r Region) Valid() bool {
	for _, v := range Regions {
		if r == v {
			return true
		}
	}
	return false
}

type Season string

const (
	SeasonWinter  Season = "Winter"
	SeasonSpring  Season = "Spring"
	SeasonMonsoon Season = "Monsoon"
	SeasonAutumn  Season = "Autumn"
)

var Seasons = []Season{SeasonWinter, SeasonSpring, SeasonMonsoon, SeasonAutumn}

func (s Season) Valid() bool {
	for _, v := range Seasons {
		if s == v {
			return true
		}
	}
	return false
}

func RegionList() string {
	names := make([]string, len(Regions))
	for i, r := range Regions {
		names[i] = string(r)
	}
	return strings.Join(names, ", ")
}

func SeasonList() string {
	names := make([]string, len(Seasons))
	for i, s := range Seasons {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

type Crop struct {
	ID               uint   `gorm:"primaryKey"`
	Name             string `gorm:"size:255;not null;index"`
	Category         string `gorm:"size:64;index"`
	Season           Season `gorm:"size:16;not null;index"`
	SoilType         string
	WaterRequirement string
	Climate          string
	Notes            string
	ImageURL         string

	Regions []CropRegion `gorm:"foreignKey:CropID;constraint:OnDelete:CASCADE"`
}

func (Crop) TableName() string {
	return "crops"
}

func (c *Crop) RegionNames() []Region {
	names := make([]Region, 0, len(c.Regions))
	for _, r := range c.Regions {
		names = append(names, r.Region)
	}
	return names
}

func (c *Crop) GrowsIn(region Region) bool {
	for _, r := range c.Regions {
		if r.Region == region {
			return true
		}
	}
	return false
}

// CropRegion is one row per (crop, region) pair.
type CropRegion struct {
	ID     uint   `gorm:"primaryKey"`
	CropID uint   `gorm:"not null;uniqueIndex:idx_crop_region"`
	Region Region `gorm:"size:16;not null;uniqueIndex:idx_crop_region;index"`
}

func (CropRegion) TableName() string {
	return "crop_regions"
}

type PlantationGuide struct {
	ID                 uint     `gorm:"primaryKey" json:"guideId"`
	CropID             uint     `gorm:"not null;uniqueIndex" json:"cropId"`
	Spacing            string   `json:"spacing"`
	MaturityPeriod     string   `json:"maturityPeriod"`
	SeedPreparation    string   `json:"seedPreparation"`
	PlantingMethod     string   `json:"plantingMethod"`
	IrrigationSchedule string   `json:"irrigationSchedule"`
	HarvestingTips     string   `json:"harvestingTips"`
	AverageYield       string   `json:"averageYield"`
	VideoURL           string   `json:"videoUrl"`
	PlantationProcess  []string `gorm:"serializer:json" json:"plantationProcess"`

	Crop *Crop `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (PlantationGuide) TableName() string {
	return "plantation_guides"
}

type PlantingCalendar struct {
	ID                  uint    `gorm:"primaryKey" json:"calendarId"`
	CropID              uint    `gorm:"not null;index" json:"cropId"`
	Region              Region  `gorm:"size:16;not null" json:"region"`
	Season              *Season `gorm:"size:16" json:"season"`
	SowingPeriod        string  `json:"sowingPeriod"`
	TransplantingPeriod string  `json:"transplantingPeriod"`
	HarvestingPeriod    string  `json:"harvestingPeriod"`
	Notes               string  `json:"notes"`

	Crop *Crop `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (PlantingCalendar) TableName() string {
	return "planting_calendars"
}

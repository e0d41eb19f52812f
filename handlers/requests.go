package handlers

import (
	"strings"

	"github.com/krishimitra/api/models"
	"github.com/krishimitra/api/services/advisory"
	"github.com/krishimitra/api/services/profile"
)

type registerRequest struct {
	Name     string      `json:"name" validate:"max=255"`
	Email    string      `json:"email" validate:"omitempty,email,max=255"`
	Password string      `json:"password" validate:"max=72"`
	Phone    string      `json:"phone" validate:"max=32"`
	Address  string      `json:"address"`
	Role     models.Role `json:"role"`
}

type otpRequest struct {
	Email string `json:"email" validate:"omitempty,email"`
	OTP   string `json:"otp"`
}

type emailRequest struct {
	Email string `json:"email" validate:"omitempty,email"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type resetPasswordRequest struct {
	Email       string `json:"email" validate:"omitempty,email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword" validate:"max=72"`
}

// normalizer is implemented by requests that clean input before validation.
type normalizer interface {
	normalize()
}

func (r *registerRequest) normalize()      { r.Email = strings.TrimSpace(r.Email) }
func (r *otpRequest) normalize()           { r.Email = strings.TrimSpace(r.Email) }
func (r *emailRequest) normalize()         { r.Email = strings.TrimSpace(r.Email) }
func (r *loginRequest) normalize()         { r.Email = strings.TrimSpace(r.Email) }
func (r *resetPasswordRequest) normalize() { r.Email = strings.TrimSpace(r.Email) }

type profileRequest struct {
	Name              *string `json:"name,omitempty" validate:"omitempty,max=255"`
	Phone             *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Address           *string `json:"address,omitempty"`
	FarmLocation      *string `json:"farmLocation,omitempty"`
	Bio               *string `json:"bio,omitempty"`
	ProfileImage      *string `json:"profileImage,omitempty"`
	Skills            *string `json:"skills,omitempty"`
	YearsOfExperience *int    `json:"yearsOfExperience,omitempty"`
	Education         *string `json:"education,omitempty"`
	LicenseImage      *string `json:"licenseImage,omitempty"`
}

func (r profileRequest) input() profile.UpdateInput {
	return profile.UpdateInput{
		Name:              r.Name,
		Phone:             r.Phone,
		Address:           r.Address,
		FarmLocation:      r.FarmLocation,
		Bio:               r.Bio,
		ProfileImage:      r.ProfileImage,
		Skills:            r.Skills,
		YearsOfExperience: r.YearsOfExperience,
		Education:         r.Education,
		LicenseImage:      r.LicenseImage,
	}
}

type guideRequest struct {
	Spacing            string   `json:"spacing"`
	MaturityPeriod     string   `json:"maturityPeriod"`
	SeedPreparation    string   `json:"seedPreparation"`
	PlantingMethod     string   `json:"plantingMethod"`
	IrrigationSchedule string   `json:"irrigationSchedule"`
	HarvestingTips     string   `json:"harvestingTips"`
	AverageYield       string   `json:"averageYield"`
	VideoURL           string   `json:"videoUrl" validate:"omitempty,url"`
	PlantationProcess  []string `json:"plantationProcess"`
}

type calendarRequest struct {
	Region              models.Region `json:"region"`
	Season              models.Season `json:"season"`
	SowingPeriod        string        `json:"sowingPeriod"`
	TransplantingPeriod string        `json:"transplantingPeriod"`
	HarvestingPeriod    string        `json:"harvestingPeriod"`
	Notes               string        `json:"notes"`
}

type cropRequest struct {
	CropName         string            `json:"cropName" validate:"max=255"`
	CropCategory     string            `json:"cropCategory" validate:"max=64"`
	Regions          []models.Region   `json:"regions"`
	Season           models.Season     `json:"season"`
	SoilType         string            `json:"soilType"`
	WaterRequirement string            `json:"waterRequirement"`
	Climate          string            `json:"climate"`
	Notes            string            `json:"notes"`
	ImageURL         string            `json:"imageUrl" validate:"omitempty,url"`
	PlantationGuide  *guideRequest     `json:"plantationGuide,omitempty"`
	PlantingCalendar []calendarRequest `json:"plantingCalendar,omitempty"`
}

func (r cropRequest) input() advisory.CreateCropInput {
	in := advisory.CreateCropInput{
		CropInput: advisory.CropInput{
			Name:             r.CropName,
			Category:         r.CropCategory,
			Regions:          r.Regions,
			Season:           r.Season,
			SoilType:         r.SoilType,
			WaterRequirement: r.WaterRequirement,
			Climate:          r.Climate,
			Notes:            r.Notes,
			ImageURL:         r.ImageURL,
		},
	}

	if g := r.PlantationGuide; g != nil {
		in.Guide = &advisory.GuideInput{
			Spacing:            g.Spacing,
			MaturityPeriod:     g.MaturityPeriod,
			SeedPreparation:    g.SeedPreparation,
			PlantingMethod:     g.PlantingMethod,
			IrrigationSchedule: g.IrrigationSchedule,
			HarvestingTips:     g.HarvestingTips,
			AverageYield:       g.AverageYield,
			VideoURL:           g.VideoURL,
			PlantationProcess:  g.PlantationProcess,
		}
	}

	for _, entry := range r.PlantingCalendar {
		in.Calendar = append(in.Calendar, advisory.CalendarInput{
			Region:              entry.Region,
			Season:              entry.Season,
			SowingPeriod:        entry.SowingPeriod,
			TransplantingPeriod: entry.TransplantingPeriod,
			HarvestingPeriod:    entry.HarvestingPeriod,
			Notes:               entry.Notes,
		})
	}
	return in
}

type cropUpdateRequest struct {
	CropName         *string          `json:"cropName,omitempty" validate:"omitempty,max=255"`
	CropCategory     *string          `json:"cropCategory,omitempty" validate:"omitempty,max=64"`
	Regions          *[]models.Region `json:"regions,omitempty"`
	Season           *models.Season   `json:"season,omitempty"`
	SoilType         *string          `json:"soilType,omitempty"`
	WaterRequirement *string          `json:"waterRequirement,omitempty"`
	Climate          *string          `json:"climate,omitempty"`
	Notes            *string          `json:"notes,omitempty"`
	ImageURL         *string          `json:"imageUrl,omitempty"`
}

func (r cropUpdateRequest) input() advisory.UpdateCropInput {
	return advisory.UpdateCropInput{
		Name:             r.CropName,
		Category:         r.CropCategory,
		Regions:          r.Regions,
		Season:           r.Season,
		SoilType:         r.SoilType,
		WaterRequirement: r.WaterRequirement,
		Climate:          r.Climate,
		Notes:            r.Notes,
		ImageURL:         r.ImageURL,
	}
}

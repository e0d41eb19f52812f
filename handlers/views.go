package handlers

import (
	"github.com/krishimitra/api/middleware/auth"
	"github.com/krishimitra/api/models"
	"github.com/krishimitra/api/services/advisory"
)

type accountView struct {
	ID       uint        `json:"id"`
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Role     models.Role `json:"role"`
	Verified bool        `json:"verified"`
}

func newAccountView(a *models.Account) accountView {
	return accountView{ID: a.ID, Name: a.Name, Email: a.Email, Role: a.Role, Verified: a.Verified}
}

type verifiedView struct {
	ID       uint   `json:"id"`
	Email    string `json:"email"`
	Verified bool   `json:"verified"`
}

type loginView struct {
	Token string      `json:"token"`
	User  accountView `json:"user"`
}

type profileView struct {
	User        *models.Account `json:"user"`
	UserDetails *models.Profile `json:"userDetails"`
}

type cropView struct {
	CropID           uint            `json:"cropId"`
	CropName         string          `json:"cropName"`
	CropCategory     string          `json:"cropCategory"`
	Regions          []models.Region `json:"regions"`
	Season           models.Season   `json:"season"`
	SoilType         string          `json:"soilType"`
	WaterRequirement string          `json:"waterRequirement"`
	Climate          string          `json:"climate"`
	Notes            string          `json:"notes"`
	ImageURL         string          `json:"imageUrl"`
}

func newCropView(c *models.Crop) cropView {
	return cropView{
		CropID:           c.ID,
		CropName:         c.Name,
		CropCategory:     c.Category,
		Regions:          c.RegionNames(),
		Season:           c.Season,
		SoilType:         c.SoilType,
		WaterRequirement: c.WaterRequirement,
		Climate:          c.Climate,
		Notes:            c.Notes,
		ImageURL:         c.ImageURL,
	}
}

func newCropViews(crops []models.Crop) []cropView {
	views := make([]cropView, 0, len(crops))
	for i := range crops {
		views = append(views, newCropView(&crops[i]))
	}
	return views
}

type cropListView struct {
	Count int        `json:"count"`
	Crops []cropView `json:"crops"`
}

type filterView struct {
	Count   int               `json:"count"`
	Filters map[string]string `json:"filters"`
	Crops   []cropView        `json:"crops"`
}

type searchView struct {
	Count int        `json:"count"`
	Query string     `json:"query"`
	Crops []cropView `json:"crops"`
}

type guideView struct {
	Crop string `json:"crop"`
	models.PlantationGuide
}

func newGuideView(v *advisory.GuideView) guideView {
	view := guideView{Crop: v.CropName, PlantationGuide: *v.Guide}
	if view.PlantationProcess == nil {
		view.PlantationProcess = []string{}
	}
	return view
}

type calendarListView struct {
	Count     int                       `json:"count"`
	Calendars []models.PlantingCalendar `json:"calendars"`
}

type createdCropView struct {
	Crop             cropView                  `json:"crop"`
	PlantationGuide  *models.PlantationGuide   `json:"plantationGuide"`
	PlantingCalendar []models.PlantingCalendar `json:"plantingCalendar"`
}

type recommendationView struct {
	PerfectMatches  []cropView      `json:"perfectMatches"`
	LocationMatches []cropView      `json:"locationMatches"`
	SeasonMatches   []cropView      `json:"seasonMatches"`
	UserRegion      models.Region   `json:"userRegion"`
	CurrentSeason   models.Season   `json:"currentSeason"`
	Counts          advisory.Counts `json:"counts"`
}

func newRecommendationView(r *advisory.Recommendation) recommendationView {
	return recommendationView{
		PerfectMatches:  newCropViews(r.PerfectMatches),
		LocationMatches: newCropViews(r.LocationMatches),
		SeasonMatches:   newCropViews(r.SeasonMatches),
		UserRegion:      r.UserRegion,
		CurrentSeason:   r.CurrentSeason,
		Counts:          r.Counts,
	}
}

type dashboardView struct {
	User      *auth.Identity `json:"user"`
	Dashboard string         `json:"dashboard"`
}

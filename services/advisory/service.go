package advisory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/krishimitra/api/internal/apperror"
	"github.com/krishimitra/api/models"
	"github.com/krishimitra/api/services/logging"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	MsgCropNotFound      = "Crop not found"
	MsgGuideNotFound     = "Plantation guide not found for this crop."
	MsgNoUpdateFields    = "No valid fields provided for update"
	MsgEmptySearch       = "Search query is required. Use ?q=your_search_term"
	MsgFarmLocationUnset = "Farm location not set. Please complete your profile."
)

const (
	inRegion    = "id IN (SELECT crop_id FROM crop_regions WHERE region = ?)"
	notInRegion = "id NOT IN (SELECT crop_id FROM crop_regions WHERE region = ?)"
)

type CropInput struct {
	Name             string
	Category         string
	Regions          []models.Region
	Season           models.Season
	SoilType         string
	WaterRequirement string
	Climate          string
	Notes            string
	ImageURL         string
}

type GuideInput struct {
	Spacing            string
	MaturityPeriod     string
	SeedPreparation    string
	PlantingMethod     string
	IrrigationSchedule string
	HarvestingTips     string
	AverageYield       string
	VideoURL           string
	PlantationProcess  []string
}

type CalendarInput struct {
	Region              models.Region
	Season              models.Season
	SowingPeriod        string
	TransplantingPeriod string
	HarvestingPeriod    string
	Notes               string
}

type CreateCropInput struct {
	CropInput
	Guide    *GuideInput
	Calendar []CalendarInput
}

type CreateCropResult struct {
	Crop      *models.Crop
	Guide     *models.PlantationGuide
	Calendars []models.PlantingCalendar
}

// UpdateCropInput holds optional changes; nil leaves a column unchanged.
// Regions, when set, replaces the stored set.
type UpdateCropInput struct {
	Name             *string
	Category         *string
	Regions          *[]models.Region
	Season           *models.Season
	SoilType         *string
	WaterRequirement *string
	Climate          *string
	Notes            *string
	ImageURL         *string
}

type Filter struct {
	Region   models.Region
	Season   models.Season
	Category string
}

type GuideView struct {
	Guide    *models.PlantationGuide
	CropName string
}

type Counts struct {
	Perfect  int `json:"perfect"`
	Location int `json:"location"`
	Season   int `json:"season"`
}

type Recommendation struct {
	PerfectMatches  []models.Crop
	LocationMatches []models.Crop
	SeasonMatches   []models.Crop
	UserRegion      models.Region
	CurrentSeason   models.Season
	Counts          Counts
}

type Service struct {
	db     *gorm.DB
	logger *logging.Service
	now    func() time.Time
}

func NewService(db *gorm.DB, logger *logging.Service) *Service {
	return &Service{db: db, logger: logger.Named("advisory"), now: time.Now}
}

// SetClock replaces the time source used to pick the current season.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) crops(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Model(&models.Crop{}).Preload("Regions").Order("id")
}

func (s *Service) ListCrops(ctx context.Context) ([]models.Crop, error) {
	var crops []models.Crop
	if err := s.crops(ctx).Find(&crops).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch crops: %w", err)
	}
	return crops, nil
}

func (s *Service) GetCrop(ctx context.Context, id uint) (*models.Crop, error) {
	return s.loadCrop(s.db.WithContext(ctx), id)
}

func (s *Service) loadCrop(db *gorm.DB, id uint) (*models.Crop, error) {
	var crop models.Crop
	if err := db.Preload("Regions").First(&crop, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.NotFound, MsgCropNotFound)
		}
		return nil, fmt.Errorf("failed to load crop: %w", err)
	}
	return &crop, nil
}

// CreateCrop stores a crop with its regions, and optionally its plantation
// guide and calendar entries, in one transaction.
func (s *Service) CreateCrop(ctx context.Context, in CreateCropInput) (*CreateCropResult, error) {
	if strings.TrimSpace(in.Name) == "" || len(in.Regions) == 0 || in.Season == "" {
		return nil, apperror.New(apperror.Validation, "Crop name, regions, and season are required")
	}
	if err := validateRegions(in.Regions); err != nil {
		return nil, err
	}
	if !in.Season.Valid() {
		return nil, invalidSeason()
	}

	calendars := make([]models.PlantingCalendar, 0, len(in.Calendar))
	for _, entry := range in.Calendar {
		calendar, err := entry.build()
		if err != nil {
			return nil, err
		}
		calendars = append(calendars, calendar)
	}

	crop := &models.Crop{
		Name:             strings.TrimSpace(in.Name),
		Category:         in.Category,
		Season:           in.Season,
		SoilType:         in.SoilType,
		WaterRequirement: in.WaterRequirement,
		Climate:          in.Climate,
		Notes:            in.Notes,
		ImageURL:         in.ImageURL,
		Regions:          regionRows(in.Regions),
	}
	result := &CreateCropResult{Crop: crop, Calendars: calendars}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(crop).Error; err != nil {
			return fmt.Errorf("failed to create crop: %w", err)
		}

		if in.Guide != nil {
			result.Guide = in.Guide.build(crop.ID)
			if err := tx.Create(result.Guide).Error; err != nil {
				return fmt.Errorf("failed to create plantation guide: %w", err)
			}
		}

		if len(calendars) > 0 {
			for i := range calendars {
				calendars[i].CropID = crop.ID
			}
			if err := tx.Create(&calendars).Error; err != nil {
				return fmt.Errorf("failed to create planting calendar: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("crop created",
		zap.Uint("crop_id", crop.ID),
		zap.String("name", crop.Name),
		zap.Bool("guide", result.Guide != nil),
		zap.Int("calendar_entries", len(calendars)))

	return result, nil
}

func (s *Service) UpdateCrop(ctx context.Context, id uint, in UpdateCropInput) (*models.Crop, error) {
	updates, err := in.columns()
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 && in.Regions == nil {
		return nil, apperror.New(apperror.Validation, MsgNoUpdateFields)
	}

	var crop *models.Crop
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.loadCrop(tx, id)
		if err != nil {
			return err
		}

		if len(updates) > 0 {
			if err := tx.Model(existing).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update crop: %w", err)
			}
		}

		if in.Regions != nil {
			if err := tx.Where("crop_id = ?", id).Delete(&models.CropRegion{}).Error; err != nil {
				return fmt.Errorf("failed to replace crop regions: %w", err)
			}
			rows := regionRows(*in.Regions)
			for i := range rows {
				rows[i].CropID = id
			}
			if err := tx.Create(&rows).Error; err != nil {
				return fmt.Errorf("failed to replace crop regions: %w", err)
			}
		}

		crop, err = s.loadCrop(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("crop updated", zap.Uint("crop_id", id))
	return crop, nil
}

// DeleteCrop removes the crop together with its regions, guide and calendar.
func (s *Service) DeleteCrop(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.loadCrop(tx, id); err != nil {
			return err
		}

		for _, dependent := range []any{&models.PlantationGuide{}, &models.PlantingCalendar{}, &models.CropRegion{}} {
			if err := tx.Where("crop_id = ?", id).Delete(dependent).Error; err != nil {
				return fmt.Errorf("failed to delete crop dependents: %w", err)
			}
		}

		if err := tx.Delete(&models.Crop{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete crop: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("crop deleted", zap.Uint("crop_id", id))
	return nil
}

func (s *Service) PlantationGuide(ctx context.Context, cropID uint) (*GuideView, error) {
	var guide models.PlantationGuide
	err := s.db.WithContext(ctx).Preload("Crop").Where("crop_id = ?", cropID).First(&guide).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.NotFound, MsgGuideNotFound)
		}
		return nil, fmt.Errorf("failed to fetch plantation guide: %w", err)
	}

	view := &GuideView{Guide: &guide}
	if guide.Crop != nil {
		view.CropName = guide.Crop.Name
	}
	return view, nil
}

func (s *Service) PlantingCalendars(ctx context.Context, cropID uint) ([]models.PlantingCalendar, error) {
	calendars := []models.PlantingCalendar{}
	if err := s.db.WithContext(ctx).Where("crop_id = ?", cropID).Order("id").Find(&calendars).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch planting calendars: %w", err)
	}
	return calendars, nil
}

// FilterCrops ANDs the non-empty filters. Category is a case-insensitive
// substring match.
func (s *Service) FilterCrops(ctx context.Context, f Filter) ([]models.Crop, error) {
	if f.Region != "" && !f.Region.Valid() {
		return nil, invalidRegion(f.Region)
	}
	if f.Season != "" && !f.Season.Valid() {
		return nil, apperror.New(apperror.Validation,
			fmt.Sprintf("Invalid season: %s. Must be one of: %s", f.Season, models.SeasonList()))
	}

	query := s.crops(ctx)
	if f.Region != "" {
		query = query.Where(inRegion, f.Region)
	}
	if f.Season != "" {
		query = query.Where("season = ?", f.Season)
	}
	if category := strings.TrimSpace(f.Category); category != "" {
		query = query.Where("LOWER(category) LIKE ?", "%"+strings.ToLower(category)+"%")
	}

	var crops []models.Crop
	if err := query.Find(&crops).Error; err != nil {
		return nil, fmt.Errorf("failed to filter crops: %w", err)
	}
	return crops, nil
}

func (s *Service) SearchCrops(ctx context.Context, q string) ([]models.Crop, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, apperror.New(apperror.Validation, MsgEmptySearch)
	}

	var crops []models.Crop
	err := s.crops(ctx).Where("LOWER(name) LIKE ?", "%"+strings.ToLower(q)+"%").Find(&crops).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search crops: %w", err)
	}
	return crops, nil
}

// Recommend groups crops for a region and season into perfect, location-only
// and season-only matches. An empty season means the current one.
func (s *Service) Recommend(ctx context.Context, region models.Region, season models.Season) (*Recommendation, error) {
	if !region.Valid() {
		return nil, invalidRegion(region)
	}
	if season == "" {
		season = CurrentSeason(s.now())
	}
	if !season.Valid() {
		return nil, invalidSeason()
	}

	rec := &Recommendation{UserRegion: region, CurrentSeason: season}

	if err := s.crops(ctx).Where(inRegion, region).Where("season = ?", season).Find(&rec.PerfectMatches).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch perfect matches: %w", err)
	}
	if err := s.crops(ctx).Where(inRegion, region).Where("season <> ?", season).Find(&rec.LocationMatches).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch location matches: %w", err)
	}
	if err := s.crops(ctx).Where(notInRegion, region).Where("season = ?", season).Find(&rec.SeasonMatches).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch season matches: %w", err)
	}

	rec.Counts = Counts{
		Perfect:  len(rec.PerfectMatches),
		Location: len(rec.LocationMatches),
		Season:   len(rec.SeasonMatches),
	}
	return rec, nil
}

// RecommendForAccount recommends crops for the farm location stored on the
// account's profile.
func (s *Service) RecommendForAccount(ctx context.Context, accountID uint) (*Recommendation, error) {
	var profile models.Profile
	err := s.db.WithContext(ctx).Where("account_id = ?", accountID).First(&profile).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if err != nil || profile.FarmLocation == "" {
		return nil, apperror.New(apperror.Validation, MsgFarmLocationUnset)
	}

	return s.Recommend(ctx, profile.FarmLocation, "")
}

func (in UpdateCropInput) columns() (map[string]any, error) {
	updates := map[string]any{}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperror.New(apperror.Validation, "Crop name must be a non-empty string")
		}
		updates["name"] = name
	}
	if in.Regions != nil {
		if len(*in.Regions) == 0 {
			return nil, apperror.New(apperror.Validation, "Regions must be a non-empty array")
		}
		if err := validateRegions(*in.Regions); err != nil {
			return nil, err
		}
	}
	if in.Season != nil {
		if !in.Season.Valid() {
			return nil, invalidSeason()
		}
		updates["season"] = *in.Season
	}

	optional := map[string]*string{
		"category":          in.Category,
		"soil_type":         in.SoilType,
		"water_requirement": in.WaterRequirement,
		"climate":           in.Climate,
		"notes":             in.Notes,
		"image_url":         in.ImageURL,
	}
	for column, value := range optional {
		if value != nil {
			updates[column] = *value
		}
	}

	return updates, nil
}

func (in GuideInput) build(cropID uint) *models.PlantationGuide {
	process := in.PlantationProcess
	if process == nil {
		process = []string{}
	}
	return &models.PlantationGuide{
		CropID:             cropID,
		Spacing:            in.Spacing,
		MaturityPeriod:     in.MaturityPeriod,
		SeedPreparation:    in.SeedPreparation,
		PlantingMethod:     in.PlantingMethod,
		IrrigationSchedule: in.IrrigationSchedule,
		HarvestingTips:     in.HarvestingTips,
		AverageYield:       in.AverageYield,
		VideoURL:           in.VideoURL,
		PlantationProcess:  process,
	}
}

// build validates the entry, inferring the season from the sowing period
// when none is given.
func (in CalendarInput) build() (models.PlantingCalendar, error) {
	if !in.Region.Valid() {
		return models.PlantingCalendar{}, apperror.New(apperror.Validation,
			fmt.Sprintf("Invalid region in planting calendar: %s. Must be one of: %s", in.Region, models.RegionList()))
	}

	season := in.Season
	if season == "" && in.SowingPeriod != "" {
		season = InferSeasonFromMonths(in.SowingPeriod)
	}
	if season != "" && !season.Valid() {
		return models.PlantingCalendar{}, apperror.New(apperror.Validation,
			fmt.Sprintf("Invalid season in planting calendar: %s. Must be one of: %s", season, models.SeasonList()))
	}

	calendar := models.PlantingCalendar{
		Region:              in.Region,
		SowingPeriod:        in.SowingPeriod,
		TransplantingPeriod: in.TransplantingPeriod,
		HarvestingPeriod:    in.HarvestingPeriod,
		Notes:               in.Notes,
	}
	if season != "" {
		calendar.Season = &season
	}
	return calendar, nil
}

func validateRegions(regions []models.Region) error {
	for _, r := range regions {
		if !r.Valid() {
			return invalidRegion(r)
		}
	}
	return nil
}

// regionRows converts regions to join rows, dropping duplicates.
func regionRows(regions []models.Region) []models.CropRegion {
	seen := make(map[models.Region]bool, len(regions))
	rows := make([]models.CropRegion, 0, len(regions))
	for _, r := range regions {
		if seen[r] {
			continue
		}
		seen[r] = true
		rows = append(rows, models.CropRegion{Region: r})
	}
	return rows
}

func invalidRegion(r models.Region) error {
	return apperror.New(apperror.Validation,
		fmt.Sprintf("Invalid region: %s. Must be one of: %s", r, models.RegionList()))
}

func invalidSeason() error {
	return apperror.New(apperror.Validation, "Invalid season. Must be one of: "+models.SeasonList())
}

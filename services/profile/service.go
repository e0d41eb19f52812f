package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/krishimitra/api/internal/apperror"
	"github.com/krishimitra/api/models"
	"github.com/krishimitra/api/services/logging"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// View is an account together with its optional profile row.
type View struct {
	Account *models.Account
	Profile *models.Profile
}

// UpdateInput carries optional changes. A nil field is left unchanged and an
// empty string clears the stored value.
type UpdateInput struct {
	Name              *string
	Phone             *string
	Address           *string
	FarmLocation      *string
	Bio               *string
	ProfileImage      *string
	Skills            *string
	YearsOfExperience *int
	Education         *string
	LicenseImage      *string
}

type Service struct {
	db     *gorm.DB
	logger *logging.Service
}

func NewService(db *gorm.DB, logger *logging.Service) *Service {
	return &Service{db: db, logger: logger.Named("profile")}
}

func (s *Service) Get(ctx context.Context, accountID uint) (*View, error) {
	return s.get(s.db.WithContext(ctx), accountID)
}

func (s *Service) get(db *gorm.DB, accountID uint) (*View, error) {
	var account models.Account
	if err := db.First(&account, accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.NotFound, "User not found")
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	view := &View{Account: &account}

	var profile models.Profile
	err := db.Where("account_id = ?", accountID).First(&profile).Error
	switch {
	case err == nil:
		view.Profile = &profile
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	return view, nil
}

// Update applies in to the account and its profile, creating the profile row
// when the account has none.
func (s *Service) Update(ctx context.Context, accountID uint, in UpdateInput) (*View, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var view *View
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.get(tx, accountID)
		if err != nil {
			return err
		}

		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if err := tx.Model(current.Account).Update("name", name).Error; err != nil {
				return fmt.Errorf("failed to update name: %w", err)
			}
		}

		profile := current.Profile
		if profile == nil {
			profile = &models.Profile{AccountID: accountID}
		}
		in.apply(profile)

		if err := tx.Save(profile).Error; err != nil {
			return fmt.Errorf("failed to save profile: %w", err)
		}

		view, err = s.get(tx, accountID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("profile updated", zap.Uint("account_id", accountID))
	return view, nil
}

func (in UpdateInput) validate() error {
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return apperror.New(apperror.Validation, "Name must be a non-empty string")
	}
	if in.FarmLocation != nil && *in.FarmLocation != "" && !models.Region(*in.FarmLocation).Valid() {
		return apperror.New(apperror.Validation, "Invalid farm location. Must be one of: "+models.RegionList())
	}
	if in.YearsOfExperience != nil && *in.YearsOfExperience < 0 {
		return apperror.New(apperror.Validation, "Years of experience cannot be negative")
	}
	return nil
}

func (in UpdateInput) apply(p *models.Profile) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}

	set(&p.Phone, in.Phone)
	set(&p.Address, in.Address)
	set(&p.Bio, in.Bio)
	set(&p.ProfileImage, in.ProfileImage)
	set(&p.Skills, in.Skills)
	set(&p.Education, in.Education)
	set(&p.LicenseImage, in.LicenseImage)

	if in.FarmLocation != nil {
		p.FarmLocation = models.Region(*in.FarmLocation)
	}
	if in.YearsOfExperience != nil {
		years := *in.YearsOfExperience
		p.YearsOfExperience = &years
	}
}

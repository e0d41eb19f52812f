package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/krishimitra/api/config"
	"github.com/krishimitra/api/internal/apperror"
	"github.com/krishimitra/api/models"
	"github.com/krishimitra/api/services/logging"
	"github.com/krishimitra/api/services/mail"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	codeMin   = 100000
	codeRange = 900000
)

const (
	msgUserNotFound = "User not found"
	msgInvalidOTP   = "Invalid or expired OTP"
)

type template struct {
	name    string
	subject string
}

var templates = map[models.OTPPurpose]template{
	models.OTPEmailVerification: {name: mail.TemplateEmailVerification, subject: "Verify Your Email - KrishiMitra"},
	models.OTPPasswordReset:     {name: mail.TemplatePasswordReset, subject: "Password Reset OTP - KrishiMitra"},
}

// Observer is told about each delivery attempt.
type Observer interface {
	ObserveOTP(purpose string, err error)
}

// Service issues and checks the one-time codes held in an account's OTP slot.
type Service struct {
	db       *gorm.DB
	mailer   mail.Mailer
	appName  string
	ttl      time.Duration
	logger   *logging.Service
	now      func() time.Time
	rand     io.Reader
	observer Observer
}

func NewService(cfg *config.Config, db *gorm.DB, mailer mail.Mailer, logger *logging.Service) *Service {
	return &Service{
		db:      db,
		mailer:  mailer,
		appName: cfg.App.Name,
		ttl:     cfg.Auth.OTPTTL,
		logger:  logger.Named("otp"),
		now:     time.Now,
		rand:    rand.Reader,
	}
}

// SetClock replaces the time source.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) SetObserver(o Observer) {
	s.observer = o
}

func (s *Service) TTL() time.Duration {
	return s.ttl
}

func (s *Service) clock() time.Time {
	return s.now().UTC()
}

// GenerateCode returns a six digit code drawn uniformly from 100000-999999.
func (s *Service) GenerateCode() (string, error) {
	n, err := rand.Int(s.rand, big.NewInt(codeRange))
	if err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+codeMin), nil
}

// Issue writes a fresh code for purpose into the account's slot, replacing
// any earlier one, and mails it. The slot stays written when delivery fails.
func (s *Service) Issue(ctx context.Context, email string, purpose models.OTPPurpose) error {
	tmpl, ok := templates[purpose]
	if !ok {
		return apperror.New(apperror.Internal, fmt.Sprintf("unknown otp purpose %q", purpose))
	}

	var account models.Account
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.New(apperror.NotFound, msgUserNotFound)
		}
		return fmt.Errorf("failed to load account: %w", err)
	}

	code, err := s.GenerateCode()
	if err != nil {
		return err
	}
	expiresAt := s.clock().Add(s.ttl)

	err = s.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ?", account.ID).
		Updates(map[string]any{
			"otp_code":       code,
			"otp_purpose":    purpose,
			"otp_expires_at": expiresAt,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to store otp: %w", err)
	}

	s.logger.Info("otp issued",
		zap.String("email", email),
		zap.String("purpose", string(purpose)),
		zap.Time("expires_at", expiresAt))

	data := map[string]any{
		"AppName":          s.appName,
		"Name":             account.Name,
		"Code":             code,
		"ExpiresInMinutes": int(s.ttl.Minutes()),
	}
	err = s.mailer.SendTemplate(ctx, tmpl.name, []string{email}, tmpl.subject, data)
	if s.observer != nil {
		s.observer.ObserveOTP(string(purpose), err)
	}
	if err != nil {
		s.logger.Error("failed to dispatch otp",
			zap.Error(err),
			zap.String("email", email),
			zap.String("purpose", string(purpose)))
		return apperror.Wrap(apperror.Delivery, "failed to send otp email", err)
	}

	return nil
}

// Verify checks code against the slot without consuming it.
func (s *Service) Verify(ctx context.Context, email string, purpose models.OTPPurpose, code string) (*models.Account, error) {
	var account models.Account
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.NotFound, msgUserNotFound)
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	if !account.HasValidOTP(purpose, code, s.clock()) {
		s.logger.Info("otp rejected", zap.String("email", email), zap.String("purpose", string(purpose)))
		return nil, apperror.New(apperror.InvalidOTP, msgInvalidOTP)
	}

	return &account, nil
}

// Consume checks code and clears the slot in one conditional update, applying
// extra columns in the same statement. Of two concurrent calls with the same
// code at most one succeeds.
func (s *Service) Consume(ctx context.Context, email string, purpose models.OTPPurpose, code string, extra map[string]any) (*models.Account, error) {
	now := s.clock()

	updates := map[string]any{
		"otp_code":       nil,
		"otp_purpose":    nil,
		"otp_expires_at": nil,
	}
	for column, value := range extra {
		updates[column] = value
	}

	result := s.db.WithContext(ctx).Model(&models.Account{}).
		Where("email = ? AND otp_code = ? AND otp_purpose = ? AND otp_expires_at > ?", email, code, purpose, now).
		Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to consume otp: %w", result.Error)
	}

	var account models.Account
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.NotFound, msgUserNotFound)
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	if result.RowsAffected != 1 {
		s.logger.Info("otp rejected", zap.String("email", email), zap.String("purpose", string(purpose)))
		return nil, apperror.New(apperror.InvalidOTP, msgInvalidOTP)
	}

	s.logger.Info("otp consumed", zap.String("email", email), zap.String("purpose", string(purpose)))
	return &account, nil
}

// SweepExpired clears every slot whose code has expired and returns how many
// were cleared.
func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).Model(&models.Account{}).
		Where("otp_expires_at IS NOT NULL AND otp_expires_at <= ?", s.clock()).
		Updates(map[string]any{
			"otp_code":       nil,
			"otp_purpose":    nil,
			"otp_expires_at": nil,
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to sweep expired otps: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		s.logger.Info("expired otps cleared", zap.Int64("count", result.RowsAffected))
	}
	return result.RowsAffected, nil
}

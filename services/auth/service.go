package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/krishimitra/api/config"
	"github.com/krishimitra/api/internal/apperror"
	"github.com/krishimitra/api/models"
	"github.com/krishimitra/api/services/jwt"
	"github.com/krishimitra/api/services/logging"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	MsgDuplicateEmail       = "This email is already registered. Please login instead."
	MsgVerificationDelivery = "User created but failed to send verification email. Please contact support."
	MsgResetRequested       = "If the email exists, a password reset OTP has been sent."
	MsgResetDelivery        = "Failed to send password reset email. Please try again later."
	MsgInvalidCredentials   = "Invalid email or password"
	MsgUnverified           = "Please verify your email before logging in"
	MsgAlreadyVerified      = "Email is already verified"
	MsgUserNotFound         = "User not found"
)

// OTPService is the slice of the OTP issuer/verifier the account flows use.
type OTPService interface {
	Issue(ctx context.Context, email string, purpose models.OTPPurpose) error
	Verify(ctx context.Context, email string, purpose models.OTPPurpose, code string) (*models.Account, error)
	Consume(ctx context.Context, email string, purpose models.OTPPurpose, code string, extra map[string]any) (*models.Account, error)
}

type TokenIssuer interface {
	GenerateToken(identity jwt.Identity) (string, error)
}

type Service struct {
	config *config.Config
	db     *gorm.DB
	otp    OTPService
	tokens TokenIssuer
	logger *logging.Service
}

func NewService(cfg *config.Config, db *gorm.DB, otp OTPService, tokens TokenIssuer, logger *logging.Service) *Service {
	if cfg.Auth.BcryptCost < bcrypt.MinCost || cfg.Auth.BcryptCost > bcrypt.MaxCost {
		cfg.Auth.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		config: cfg,
		db:     db,
		otp:    otp,
		tokens: tokens,
		logger: logger.Named("auth"),
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Address  string
	Role     models.Role
}

type LoginResult struct {
	Token   string
	Account *models.Account
}

// Register creates an unverified account with an empty profile and mails an
// email verification code. When only the mail fails the account is returned
// together with a Delivery error.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.Account, error) {
	in.Email = normalizeEmail(in.Email)
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return nil, apperror.New(apperror.Validation, "Name, email, and password are required.")
	}

	role := in.Role
	if role == "" {
		role = models.RoleUser
	}
	if role != models.RoleUser && role != models.RoleExpert {
		return nil, apperror.New(apperror.Validation, "Invalid role. Must be one of: user, expert")
	}

	if err := s.checkPolicy(in.Password); err != nil {
		return nil, err
	}

	exists, err := s.emailExists(ctx, s.db, in.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperror.New(apperror.Conflict, MsgDuplicateEmail)
	}

	hash, err := s.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	account := &models.Account{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         role,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(account).Error; err != nil {
			if dup, _ := s.emailExists(ctx, tx, in.Email); dup {
				return apperror.New(apperror.Conflict, MsgDuplicateEmail)
			}
			return fmt.Errorf("failed to create account: %w", err)
		}

		profile := &models.Profile{
			AccountID: account.ID,
			Phone:     in.Phone,
			Address:   in.Address,
		}
		if err := tx.Create(profile).Error; err != nil {
			return fmt.Errorf("failed to create profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("account registered",
		zap.Uint("account_id", account.ID),
		zap.String("email", account.Email),
		zap.String("role", string(account.Role)))

	if err := s.otp.Issue(ctx, account.Email, models.OTPEmailVerification); err != nil {
		if apperror.Is(err, apperror.Delivery) {
			return account, apperror.Wrap(apperror.Delivery, MsgVerificationDelivery, err)
		}
		return account, err
	}

	return account, nil
}

// VerifyEmail consumes an email verification code and marks the account verified.
func (s *Service) VerifyEmail(ctx context.Context, email, code string) (*models.Account, error) {
	email = normalizeEmail(email)
	account, err := s.otp.Consume(ctx, email, models.OTPEmailVerification, code, map[string]any{"verified": true})
	if err != nil {
		return nil, err
	}

	s.logger.Info("email verified", zap.Uint("account_id", account.ID), zap.String("email", email))
	return account, nil
}

func (s *Service) ResendVerification(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	account, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}
	if account.Verified {
		return apperror.New(apperror.Validation, MsgAlreadyVerified)
	}

	if err := s.otp.Issue(ctx, email, models.OTPEmailVerification); err != nil {
		if apperror.Is(err, apperror.Delivery) {
			return apperror.Wrap(apperror.Delivery, "Failed to send verification email. Please try again later.", err)
		}
		return err
	}
	return nil
}

// Login checks existence, then verification, then the password, and issues
// a session token.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = normalizeEmail(email)
	account, err := s.findByEmail(ctx, email)
	if err != nil {
		if apperror.Is(err, apperror.NotFound) {
			s.logger.Info("login failed", zap.String("email", email), zap.String("reason", "unknown email"))
			return nil, apperror.New(apperror.Unauthorized, MsgInvalidCredentials)
		}
		return nil, err
	}

	if !account.Verified {
		s.logger.Info("login failed", zap.String("email", email), zap.String("reason", "unverified"))
		return nil, apperror.New(apperror.Unauthorized, MsgUnverified)
	}

	if err := s.VerifyPassword(account.PasswordHash, password); err != nil {
		s.logger.Info("login failed", zap.String("email", email), zap.String("reason", "bad password"))
		return nil, apperror.New(apperror.Unauthorized, MsgInvalidCredentials)
	}

	token, err := s.tokens.GenerateToken(jwt.Identity{ID: account.ID, Email: account.Email, Role: account.Role})
	if err != nil {
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}

	s.logger.Info("login succeeded", zap.Uint("account_id", account.ID), zap.String("email", email))
	return &LoginResult{Token: token, Account: account}, nil
}

// RequestPasswordReset mails a reset code when the email is known and is
// silent otherwise, so callers cannot probe for accounts.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	err := s.otp.Issue(ctx, email, models.OTPPasswordReset)
	switch {
	case err == nil:
		s.logger.Info("password reset requested", zap.String("email", email))
		return nil
	case apperror.Is(err, apperror.NotFound):
		s.logger.Debug("password reset requested for unknown email", zap.String("email", email))
		return nil
	case apperror.Is(err, apperror.Delivery):
		return apperror.Wrap(apperror.Delivery, MsgResetDelivery, err)
	default:
		return err
	}
}

func (s *Service) VerifyPasswordResetOTP(ctx context.Context, email, code string) error {
	email = normalizeEmail(email)
	_, err := s.otp.Verify(ctx, email, models.OTPPasswordReset, code)
	return err
}

// ResetPassword replaces the password hash and clears the reset code in a
// single conditional update.
func (s *Service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = normalizeEmail(email)
	if err := s.checkPolicy(newPassword); err != nil {
		return err
	}

	hash, err := s.HashPassword(newPassword)
	if err != nil {
		return err
	}

	account, err := s.otp.Consume(ctx, email, models.OTPPasswordReset, code, map[string]any{"password_hash": hash})
	if err != nil {
		return err
	}

	s.logger.Info("password reset", zap.Uint("account_id", account.ID), zap.String("email", email))
	return nil
}

func (s *Service) FindByID(ctx context.Context, id uint) (*models.Account, error) {
	var account models.Account
	if err := s.db.WithContext(ctx).First(&account, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.NotFound, MsgUserNotFound)
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	return &account, nil
}

// normalizeEmail is applied on every entry point so an address matches the
// stored form however the client padded it.
func normalizeEmail(email string) string {
	return strings.TrimSpace(email)
}

func (s *Service) findByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.NotFound, MsgUserNotFound)
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	return &account, nil
}

func (s *Service) emailExists(ctx context.Context, db *gorm.DB, email string) (bool, error) {
	var count int64
	if err := db.WithContext(ctx).Model(&models.Account{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return count > 0, nil
}

func (s *Service) checkPolicy(password string) error {
	if err := s.ValidatePassword(password); err != nil {
		var policyErr *PolicyError
		if errors.As(err, &policyErr) {
			return apperror.WithDetails(apperror.Validation, policyErr.Error(), policyErr.Rules)
		}
		return err
	}
	return nil
}

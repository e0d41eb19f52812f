package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/krishimitra/api/internal/apperror"
	"github.com/krishimitra/api/models"
	"github.com/krishimitra/api/services/jwt"
	"github.com/krishimitra/api/services/otp"
	"github.com/krishimitra/api/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type fixture struct {
	svc    *Service
	db     *gorm.DB
	otp    *otp.Service
	jwt    *jwt.Service
	mailer *testutils.RecordingMailer
	now    time.Time
}

func setup(t *testing.T) *fixture {
	t.Helper()
	cfg := testutils.GetTestConfig()
	db := testutils.SetupTestDB(t, models.All()...)
	mailer := &testutils.RecordingMailer{}

	f := &fixture{db: db, mailer: mailer, now: time.Now().UTC().Truncate(time.Second)}
	f.otp = otp.NewService(cfg, db, mailer, nil)
	f.otp.SetClock(func() time.Time { return f.now })
	f.jwt = jwt.NewService(&cfg.JWT, nil)
	f.svc = NewService(cfg, db, f.otp, f.jwt, nil)
	return f
}

func (f *fixture) register(t *testing.T, email string) *models.Account {
	t.Helper()
	account, err := f.svc.Register(context.Background(), RegisterInput{
		Name:     "Ram Bahadur",
		Email:    email,
		Password: testutils.TestPasswords.Valid,
	})
	require.NoError(t, err)
	return account
}

func (f *fixture) reload(t *testing.T, email string) models.Account {
	t.Helper()
	var a models.Account
	require.NoError(t, f.db.Where("email = ?", email).First(&a).Error)
	return a
}

func TestService_ValidatePassword(t *testing.T) {
	svc := NewService(testutils.GetTestConfig(), nil, nil, nil, nil)

	tests := []struct {
		name     string
		password string
		rules    []string
	}{
		{"valid", testutils.TestPasswords.Valid, nil},
		{"valid with other symbol", testutils.TestPasswords.Alternate, nil},
		{"too short", testutils.TestPasswords.TooShort, []string{
			"Password must be at least 8 characters long",
		}},
		{"no upper", testutils.TestPasswords.NoUpper, []string{
			"Password must contain at least one uppercase letter",
		}},
		{"no lower", testutils.TestPasswords.NoLower, []string{
			"Password must contain at least one lowercase letter",
		}},
		{"no number", testutils.TestPasswords.NoNumber, []string{
			"Password must contain at least one numeric character",
		}},
		{"no special", testutils.TestPasswords.NoSpecial, []string{
			"Password must contain at least one special character",
		}},
		{"non-ascii letters do not count", "ÄÖÜäöü1!", []string{
			"Password must contain at least one uppercase letter",
			"Password must contain at least one lowercase letter",
		}},
		{"72 ascii bytes", "Aa1!" + strings.Repeat("a", 68), nil},
		{"multibyte beyond bcrypt limit", "Aa1!" + strings.Repeat("é", 60), []string{
			"Password must be at most 72 bytes long",
		}},
		{"empty reports every rule in order", "", []string{
			"Password must be at least 8 characters long",
			"Password must contain at least one uppercase letter",
			"Password must contain at least one lowercase letter",
			"Password must contain at least one numeric character",
			"Password must contain at least one special character",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.ValidatePassword(tt.password)

			if tt.rules == nil {
				assert.NoError(t, err)
				return
			}

			var policyErr *PolicyError
			require.ErrorAs(t, err, &policyErr)
			assert.Equal(t, tt.rules, policyErr.Rules)
		})
	}

	t.Run("message joins rules", func(t *testing.T) {
		err := svc.ValidatePassword("abc")

		assert.Equal(t,
			"Password must be at least 8 characters long. Password must contain at least one uppercase letter. "+
				"Password must contain at least one numeric character. Password must contain at least one special character",
			err.Error())
	})

	t.Run("every listed symbol counts", func(t *testing.T) {
		for _, c := range passwordSymbols {
			assert.NoError(t, svc.ValidatePassword("Aa1aaaa"+string(c)), string(c))
		}
	})
}

func TestService_HashPassword(t *testing.T) {
	svc := NewService(testutils.GetTestConfig(), nil, nil, nil, nil)

	hash, err := svc.HashPassword(testutils.TestPasswords.Valid)
	require.NoError(t, err)

	assert.NotEqual(t, testutils.TestPasswords.Valid, hash)
	assert.NoError(t, svc.VerifyPassword(hash, testutils.TestPasswords.Valid))
	assert.ErrorIs(t, svc.VerifyPassword(hash, "Wrong1!pass"), ErrInvalidCredentials)
}

func TestNewService_ClampsBcryptCost(t *testing.T) {
	cfg := testutils.GetTestConfig()
	cfg.Auth.BcryptCost = 99

	NewService(cfg, nil, nil, nil, nil)

	assert.Equal(t, bcrypt.DefaultCost, cfg.Auth.BcryptCost)
}

func TestService_Register(t *testing.T) {
	t.Run("creates unverified account with profile and sends otp", func(t *testing.T) {
		f := setup(t)

		account, err := f.svc.Register(context.Background(), RegisterInput{
			Name:     "Sita Sharma",
			Email:    "sita@example.com",
			Password: testutils.TestPasswords.Valid,
			Phone:    "9800000000",
			Address:  "Chitwan",
		})

		require.NoError(t, err)
		assert.False(t, account.Verified)
		assert.Equal(t, models.RoleUser, account.Role)
		assert.NotEqual(t, testutils.TestPasswords.Valid, account.PasswordHash)

		var profile models.Profile
		require.NoError(t, f.db.Where("account_id = ?", account.ID).First(&profile).Error)
		assert.Equal(t, "9800000000", profile.Phone)
		assert.Equal(t, "Chitwan", profile.Address)

		assert.Len(t, f.mailer.LastCode("sita@example.com"), 6)
		stored := f.reload(t, "sita@example.com")
		assert.Equal(t, models.OTPEmailVerification, *stored.OTPPurpose)
	})

	t.Run("expert role may be requested", func(t *testing.T) {
		f := setup(t)

		account, err := f.svc.Register(context.Background(), RegisterInput{
			Name: "Dr. Gurung", Email: "expert@example.com", Password: testutils.TestPasswords.Valid, Role: models.RoleExpert,
		})

		require.NoError(t, err)
		assert.Equal(t, models.RoleExpert, account.Role)
	})

	t.Run("admin cannot be self-assigned", func(t *testing.T) {
		f := setup(t)

		_, err := f.svc.Register(context.Background(), RegisterInput{
			Name: "Mallory", Email: "m@example.com", Password: testutils.TestPasswords.Valid, Role: models.RoleAdmin,
		})

		assert.True(t, apperror.Is(err, apperror.Validation))
	})

	t.Run("missing fields", func(t *testing.T) {
		f := setup(t)

		_, err := f.svc.Register(context.Background(), RegisterInput{Email: "a@x.com", Password: testutils.TestPasswords.Valid})

		appErr, ok := apperror.As(err)
		require.True(t, ok)
		assert.Equal(t, apperror.Validation, appErr.Kind)
		assert.Equal(t, "Name, email, and password are required.", appErr.Message)
	})

	t.Run("weak password lists every rule", func(t *testing.T) {
		f := setup(t)

		_, err := f.svc.Register(context.Background(), RegisterInput{Name: "A", Email: "a@x.com", Password: "abc"})

		appErr, ok := apperror.As(err)
		require.True(t, ok)
		assert.Equal(t, apperror.Validation, appErr.Kind)
		assert.Len(t, appErr.Details, 4)
		assert.Zero(t, f.mailer.Count())
	})

	t.Run("duplicate email", func(t *testing.T) {
		f := setup(t)
		f.register(t, "dup@example.com")

		_, err := f.svc.Register(context.Background(), RegisterInput{
			Name: "Again", Email: "dup@example.com", Password: testutils.TestPasswords.Valid,
		})

		appErr, ok := apperror.As(err)
		require.True(t, ok)
		assert.Equal(t, apperror.Conflict, appErr.Kind)
		assert.Equal(t, MsgDuplicateEmail, appErr.Message)
	})

	t.Run("delivery failure keeps account pending", func(t *testing.T) {
		f := setup(t)
		f.mailer.Err = assert.AnError

		account, err := f.svc.Register(context.Background(), RegisterInput{
			Name: "Hari", Email: "hari@example.com", Password: testutils.TestPasswords.Valid,
		})

		appErr, ok := apperror.As(err)
		require.True(t, ok)
		assert.Equal(t, apperror.Delivery, appErr.Kind)
		assert.Equal(t, MsgVerificationDelivery, appErr.Message)
		require.NotNil(t, account)
		assert.False(t, f.reload(t, "hari@example.com").Verified)
	})
}

func TestService_VerifyEmailFlow(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.register(t, "a@x.com")
	code := f.mailer.LastCode("a@x.com")

	_, err := f.svc.Login(ctx, "a@x.com", testutils.TestPasswords.Valid)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.Unauthorized, appErr.Kind)
	assert.Equal(t, MsgUnverified, appErr.Message)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	_, err = f.svc.VerifyEmail(ctx, "a@x.com", wrong)
	assert.True(t, apperror.Is(err, apperror.InvalidOTP))

	account, err := f.svc.VerifyEmail(ctx, "a@x.com", code)
	require.NoError(t, err)
	assert.True(t, account.Verified)
	assert.Nil(t, account.OTPCode)

	_, err = f.svc.VerifyEmail(ctx, "a@x.com", code)
	assert.True(t, apperror.Is(err, apperror.InvalidOTP))

	result, err := f.svc.Login(ctx, "a@x.com", testutils.TestPasswords.Valid)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)

	claims, err := f.jwt.ValidateToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, account.ID, claims.UserID)
	assert.Equal(t, models.RoleUser, claims.Role)
}

func TestService_ResendVerification(t *testing.T) {
	t.Run("reissues code", func(t *testing.T) {
		f := setup(t)
		f.register(t, "a@x.com")

		require.NoError(t, f.svc.ResendVerification(context.Background(), "a@x.com"))

		assert.Equal(t, 2, f.mailer.Count())
	})

	t.Run("already verified", func(t *testing.T) {
		f := setup(t)
		f.register(t, "a@x.com")
		_, err := f.svc.VerifyEmail(context.Background(), "a@x.com", f.mailer.LastCode("a@x.com"))
		require.NoError(t, err)

		err = f.svc.ResendVerification(context.Background(), "a@x.com")

		appErr, ok := apperror.As(err)
		require.True(t, ok)
		assert.Equal(t, MsgAlreadyVerified, appErr.Message)
	})

	t.Run("unknown email", func(t *testing.T) {
		f := setup(t)

		err := f.svc.ResendVerification(context.Background(), "ghost@x.com")

		assert.True(t, apperror.Is(err, apperror.NotFound))
	})
}

func TestService_Login(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.register(t, "a@x.com")
	_, err := f.svc.VerifyEmail(ctx, "a@x.com", f.mailer.LastCode("a@x.com"))
	require.NoError(t, err)

	t.Run("unknown email is generic", func(t *testing.T) {
		_, err := f.svc.Login(ctx, "ghost@x.com", testutils.TestPasswords.Valid)

		appErr, ok := apperror.As(err)
		require.True(t, ok)
		assert.Equal(t, apperror.Unauthorized, appErr.Kind)
		assert.Equal(t, MsgInvalidCredentials, appErr.Message)
	})

	t.Run("wrong password is generic", func(t *testing.T) {
		_, err := f.svc.Login(ctx, "a@x.com", "Wrong1!pass")

		appErr, ok := apperror.As(err)
		require.True(t, ok)
		assert.Equal(t, MsgInvalidCredentials, appErr.Message)
	})
}

func TestService_PasswordResetFlow(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.register(t, "a@x.com")
	_, err := f.svc.VerifyEmail(ctx, "a@x.com", f.mailer.LastCode("a@x.com"))
	require.NoError(t, err)

	require.NoError(t, f.svc.RequestPasswordReset(ctx, "a@x.com"))
	code := f.mailer.LastCode("a@x.com")

	require.NoError(t, f.svc.VerifyPasswordResetOTP(ctx, "a@x.com", code))

	err = f.svc.ResetPassword(ctx, "a@x.com", code, "weak")
	assert.True(t, apperror.Is(err, apperror.Validation))

	require.NoError(t, f.svc.ResetPassword(ctx, "a@x.com", code, testutils.TestPasswords.Alternate))

	err = f.svc.ResetPassword(ctx, "a@x.com", code, testutils.TestPasswords.Valid)
	assert.True(t, apperror.Is(err, apperror.InvalidOTP))

	_, err = f.svc.Login(ctx, "a@x.com", testutils.TestPasswords.Valid)
	assert.True(t, apperror.Is(err, apperror.Unauthorized))

	_, err = f.svc.Login(ctx, "a@x.com", testutils.TestPasswords.Alternate)
	assert.NoError(t, err)
}

func TestService_LongMultibytePassword(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	long := "Aa1!" + strings.Repeat("é", 60)

	_, err := f.svc.Register(ctx, RegisterInput{Name: "Sita", Email: "sita@x.com", Password: long})
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.Validation, appErr.Kind)

	f.register(t, "a@x.com")
	_, err = f.svc.VerifyEmail(ctx, "a@x.com", f.mailer.LastCode("a@x.com"))
	require.NoError(t, err)
	require.NoError(t, f.svc.RequestPasswordReset(ctx, "a@x.com"))

	err = f.svc.ResetPassword(ctx, "a@x.com", f.mailer.LastCode("a@x.com"), long)
	assert.True(t, apperror.Is(err, apperror.Validation))
}

func TestService_PaddedEmail(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	const padded = "  a@x.com "

	account := f.register(t, padded)
	assert.Equal(t, "a@x.com", account.Email)

	_, err := f.svc.VerifyEmail(ctx, padded, f.mailer.LastCode("a@x.com"))
	require.NoError(t, err)

	err = f.svc.ResendVerification(ctx, padded)
	assert.True(t, apperror.Is(err, apperror.Validation), "already verified, not unknown")

	_, err = f.svc.Login(ctx, padded, testutils.TestPasswords.Valid)
	require.NoError(t, err)

	require.NoError(t, f.svc.RequestPasswordReset(ctx, padded))
	code := f.mailer.LastCode("a@x.com")
	require.NoError(t, f.svc.VerifyPasswordResetOTP(ctx, padded, code))
	require.NoError(t, f.svc.ResetPassword(ctx, padded, code, testutils.TestPasswords.Alternate))

	_, err = f.svc.Login(ctx, "a@x.com", testutils.TestPasswords.Alternate)
	assert.NoError(t, err)
}

func TestService_RequestPasswordReset(t *testing.T) {
	t.Run("unknown email is silent", func(t *testing.T) {
		f := setup(t)

		assert.NoError(t, f.svc.RequestPasswordReset(context.Background(), "ghost@x.com"))
		assert.Zero(t, f.mailer.Count())
	})

	t.Run("delivery failure", func(t *testing.T) {
		f := setup(t)
		f.register(t, "a@x.com")
		f.mailer.Err = assert.AnError

		err := f.svc.RequestPasswordReset(context.Background(), "a@x.com")

		appErr, ok := apperror.As(err)
		require.True(t, ok)
		assert.Equal(t, apperror.Delivery, appErr.Kind)
		assert.Equal(t, MsgResetDelivery, appErr.Message)
	})

	t.Run("verification code cannot reset password", func(t *testing.T) {
		f := setup(t)
		f.register(t, "a@x.com")
		code := f.mailer.LastCode("a@x.com")

		err := f.svc.ResetPassword(context.Background(), "a@x.com", code, testutils.TestPasswords.Alternate)

		assert.True(t, apperror.Is(err, apperror.InvalidOTP))
	})

	t.Run("expired reset code", func(t *testing.T) {
		f := setup(t)
		f.register(t, "a@x.com")
		require.NoError(t, f.svc.RequestPasswordReset(context.Background(), "a@x.com"))
		code := f.mailer.LastCode("a@x.com")
		f.now = f.now.Add(10 * time.Minute)

		err := f.svc.VerifyPasswordResetOTP(context.Background(), "a@x.com", code)

		assert.True(t, apperror.Is(err, apperror.InvalidOTP))
	})
}

func TestService_FindByID(t *testing.T) {
	f := setup(t)
	account := f.register(t, "a@x.com")

	found, err := f.svc.FindByID(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", found.Email)

	_, err = f.svc.FindByID(context.Background(), account.ID+100)
	assert.True(t, apperror.Is(err, apperror.NotFound))
}

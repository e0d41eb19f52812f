package auth

import (
	"github.com/krishimitra/api/config"
	"github.com/krishimitra/api/services/jwt"
	"github.com/krishimitra/api/services/logging"
	"github.com/krishimitra/api/services/otp"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func ProvideAuthService(cfg *config.Config, db *gorm.DB, otpSvc *otp.Service, jwtSvc *jwt.Service, logger *logging.Service) *Service {
	return NewService(cfg, db, otpSvc, jwtSvc, logger)
}

var Module = fx.Options(
	fx.Provide(ProvideAuthService),
)

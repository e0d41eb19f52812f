package jwt

import (
	"github.com/krishimitra/api/config"
	"github.com/krishimitra/api/services/logging"
	"go.uber.org/fx"
)

func NewJWTService(cfg *config.Config, logger *logging.Service) *Service {
	return NewService(&cfg.JWT, logger)
}

var Module = fx.Options(
	fx.Provide(NewJWTService),
)

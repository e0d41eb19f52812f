package mail

import (
	"github.com/krishimitra/api/config"
	"github.com/krishimitra/api/services/logging"
	"go.uber.org/fx"
)

func ProvideMailService(cfg *config.Config, logger *logging.Service) (*Service, error) {
	return NewService(&cfg.Mail, logger)
}

var Module = fx.Options(
	fx.Provide(
		ProvideMailService,
		func(s *Service) Mailer { return s },
	),
)

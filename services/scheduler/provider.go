package scheduler

import (
	"context"

	"github.com/krishimitra/api/config"
	"github.com/krishimitra/api/services/logging"
	"github.com/krishimitra/api/services/metrics"
	"github.com/krishimitra/api/services/otp"
	"go.uber.org/fx"
)

func ProvideScheduler(cfg *config.Config, otpSvc *otp.Service, m *metrics.Service, logger *logging.Service) (*Service, error) {
	svc, err := NewService(&cfg.Scheduler, otpSvc, logger)
	if err != nil {
		return nil, err
	}
	if m != nil {
		svc.SetObserver(m)
	}
	return svc, nil
}

func registerLifecycle(lc fx.Lifecycle, cfg *config.Config, svc *Service) {
	if !cfg.Scheduler.Enabled {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			svc.Start()
			return nil
		},
		OnStop: svc.Stop,
	})
}

var Module = fx.Options(
	fx.Provide(ProvideScheduler),
	fx.Invoke(registerLifecycle),
)

package otp

import (
	"github.com/krishimitra/api/services/metrics"
	"go.uber.org/fx"
)

func registerMetrics(svc *Service, m *metrics.Service) {
	if m != nil {
		svc.SetObserver(m)
	}
}

var Module = fx.Options(
	fx.Provide(NewService),
	fx.Invoke(registerMetrics),
)

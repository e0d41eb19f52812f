package metrics

import (
	"github.com/krishimitra/api/config"
	"go.uber.org/fx"
)

// ProvideMetrics returns nil when metrics are disabled; every method on a
// nil *Service is a no-op.
func ProvideMetrics(cfg *config.Config) *Service {
	if !cfg.Metrics.Enabled {
		return nil
	}
	return NewService(&cfg.Metrics)
}

var Module = fx.Options(
	fx.Provide(ProvideMetrics),
)

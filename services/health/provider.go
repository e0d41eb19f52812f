package health

import (
	"context"

	"go.uber.org/fx"
)

func registerLifecycle(lc fx.Lifecycle, svc *Service) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			svc.SetReady(true)
			return nil
		},
		OnStop: func(context.Context) error {
			svc.SetReady(false)
			return nil
		},
	})
}

var Module = fx.Options(
	fx.Provide(NewService),
	fx.Invoke(registerLifecycle),
)

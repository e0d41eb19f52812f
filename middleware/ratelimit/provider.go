package ratelimit

import (
	"context"
	"fmt"

	"github.com/krishimitra/api/config"
	"github.com/krishimitra/api/services/logging"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewStore returns the store named by config. A redis store pings the
// server before it is handed out.
func NewStore(ctx context.Context, cfg *config.Config) (Store, func() error, error) {
	switch cfg.RateLimit.Store {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		return NewRedisStore(client, ""), client.Close, nil
	case "memory", "":
		store := NewMemoryStore()
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported rate limit store: %s", cfg.RateLimit.Store)
	}
}

func ProvideRateLimitStore(lc fx.Lifecycle, cfg *config.Config, logger *logging.Service) (Store, error) {
	store, closeFn, err := NewStore(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	logger.Info("rate limit store ready", zap.String("store", cfg.RateLimit.Store))

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return closeFn()
		},
	})
	return store, nil
}

var Module = fx.Options(
	fx.Provide(ProvideRateLimitStore),
)

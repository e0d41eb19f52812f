package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/krishimitra/api/config"
	"github.com/krishimitra/api/internal/apperror"
	"github.com/krishimitra/api/services/logging"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const MsgTooManyRequests = "Too many requests. Please try again later."

type Config struct {
	Store          Store
	Rate           int
	Period         time.Duration
	CountMode      config.CountingMode
	KeyGenerator   func(c echo.Context) string
	OnLimitReached func(c echo.Context) error
	Logger         *logging.Service
}

// Middleware counts requests per key within a fixed window. Store failures
// are logged and the request is let through.
func Middleware(cfg *Config) echo.MiddlewareFunc {
	if cfg.Store == nil {
		cfg.Store = NewMemoryStore()
	}

	if cfg.Rate <= 0 {
		cfg.Rate = 10
	}

	if cfg.Period <= 0 {
		cfg.Period = time.Minute
	}

	if cfg.KeyGenerator == nil {
		cfg.KeyGenerator = DefaultKeyGenerator
	}

	if cfg.OnLimitReached == nil {
		cfg.OnLimitReached = DefaultOnLimitReached
	}

	if cfg.CountMode == "" {
		cfg.CountMode = config.CountAll
	}

	logger := cfg.Logger.Named("ratelimit")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			key := cfg.KeyGenerator(c)
			resetTime := time.Now().Add(cfg.Period)

			count, existingResetTime, exists, err := cfg.Store.Get(ctx, key)
			if err != nil {
				logger.Warn("rate limit store unavailable", zap.String("key", key), zap.Error(err))
				return next(c)
			}
			if exists {
				resetTime = existingResetTime
			}

			if count >= cfg.Rate {
				setHeaders(c, cfg.Rate, 0, resetTime)
				return cfg.OnLimitReached(c)
			}

			newCount := count + 1
			if cfg.CountMode == config.CountAll {
				newCount, err = cfg.Store.Increment(ctx, key, resetTime)
			} else {
				err = cfg.Store.Set(ctx, key, newCount, resetTime)
			}
			if err != nil {
				logger.Warn("rate limit store unavailable", zap.String("key", key), zap.Error(err))
				return next(c)
			}
			// Concurrent requests can all pass the read above; the
			// increment result is the admission decision.
			if newCount > cfg.Rate {
				setHeaders(c, cfg.Rate, 0, resetTime)
				return cfg.OnLimitReached(c)
			}

			setHeaders(c, cfg.Rate, max(cfg.Rate-newCount, 0), resetTime)

			err = next(c)

			if cfg.CountMode != config.CountAll {
				settle(ctx, cfg, logger, key, count, resetTime, responseStatus(c, err))
			}

			return err
		}
	}
}

// settle replaces the provisional hit with a real one only when the
// response matches the count mode.
func settle(ctx context.Context, cfg *Config, logger *logging.Service, key string, previous int, resetTime time.Time, status int) {
	shouldCount := false
	switch cfg.CountMode {
	case config.CountFailures:
		shouldCount = status >= 400
	case config.CountSuccess:
		shouldCount = status < 400
	}

	var err error
	switch {
	case shouldCount:
		err = cfg.Store.Set(ctx, key, previous+1, resetTime)
	case previous > 0:
		err = cfg.Store.Set(ctx, key, previous, resetTime)
	default:
		err = cfg.Store.Reset(ctx, key)
	}
	if err != nil {
		logger.Warn("failed to settle rate limit counter", zap.String("key", key), zap.Error(err))
	}
}

// responseStatus is the status the client will see, including errors that
// the HTTP error handler has not rendered yet.
func responseStatus(c echo.Context, err error) int {
	if err == nil || c.Response().Committed {
		return c.Response().Status
	}
	if he, ok := err.(*echo.HTTPError); ok {
		return he.Code
	}
	if appErr, ok := apperror.As(err); ok {
		return appErr.Kind.HTTPStatus()
	}
	return http.StatusInternalServerError
}

func setHeaders(c echo.Context, limit, remaining int, resetTime time.Time) {
	h := c.Response().Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))
}

// DefaultKeyGenerator keys on client IP and route path so each endpoint has
// its own budget.
func DefaultKeyGenerator(c echo.Context) string {
	realIP := c.RealIP()

	if realIP == "" || realIP == "unknown" {
		realIP = "fallback"
	}

	path := c.Path()
	if path == "" {
		path = c.Request().URL.Path
	}

	return "rate_limit:" + realIP + ":" + path
}

func DefaultOnLimitReached(c echo.Context) error {
	return echo.NewHTTPError(http.StatusTooManyRequests, MsgTooManyRequests)
}

// New builds the middleware from application config.
func New(store Store, cfg *config.RateLimitConfig, logger *logging.Service) echo.MiddlewareFunc {
	return Middleware(&Config{
		Store:     store,
		Rate:      cfg.Rate,
		Period:    cfg.Period,
		CountMode: cfg.CountMode,
		Logger:    logger,
	})
}

package health

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/krishimitra/api/database"
	"github.com/krishimitra/api/services/logging"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const checkTimeout = 2 * time.Second

// Service answers liveness and readiness probes. Readiness needs both the
// started flag and a reachable database.
type Service struct {
	db     *gorm.DB
	ready  atomic.Bool
	logger *logging.Service
}

func NewService(db *gorm.DB, logger *logging.Service) *Service {
	return &Service{db: db, logger: logger.Named("health")}
}

func (s *Service) SetReady(ready bool) {
	s.ready.Store(ready)
}

func (s *Service) IsReady() bool {
	return s.ready.Load()
}

// Check reports why the service is not ready, or nil.
func (s *Service) Check(ctx context.Context) map[string]string {
	problems := map[string]string{}
	if !s.IsReady() {
		problems["app"] = "starting"
	}

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	if err := database.Ping(ctx, s.db); err != nil {
		s.logger.Warn("readiness check failed", zap.Error(err))
		problems["database"] = "unreachable"
	}

	if len(problems) == 0 {
		return nil
	}
	return problems
}

func (s *Service) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Service) Readiness(c echo.Context) error {
	if problems := s.Check(c.Request().Context()); problems != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"checks": problems,
		})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
}

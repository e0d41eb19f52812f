package handlers

import (
	"net/http"

	"github.com/krishimitra/api/middleware/auth"
	"github.com/krishimitra/api/middleware/ratelimit"
	"github.com/krishimitra/api/models"
	"github.com/krishimitra/api/server"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	DocsPath   = "/docs"
	msgRunning = "API is running...."
)

var dashboardRoles = []models.Role{models.RoleUser, models.RoleAdmin, models.RoleExpert}

// Mount registers every route on srv and records them in the API document.
func (h *Handler) Mount(srv *server.Server) {
	limit := ratelimit.New(h.limits, &h.cfg.RateLimit, h.logger)
	authenticate := auth.Authenticate(h.tokens, h.accounts)
	admin := auth.Authorize(models.RoleAdmin)

	srv.Get("/", h.Root)
	srv.Get("/healthz", h.health.Liveness)
	srv.Get("/readyz", h.health.Readiness)
	if h.metrics != nil {
		srv.Get(h.cfg.Metrics.Path, echo.WrapHandler(h.metrics.Handler()))
	}
	h.docs.Mount(srv.Echo(), DocsPath)

	users := srv.Group("/api/users")
	users.POST("/register", h.Register, limit)
	users.POST("/verify-otp", h.VerifyOTP, limit)
	users.POST("/resend-otp", h.ResendOTP, limit)
	users.POST("/login", h.Login, limit)
	users.POST("/forgot-password", h.ForgotPassword, limit)
	users.POST("/verify-password-reset-otp", h.VerifyPasswordResetOTP, limit)
	users.POST("/reset-password", h.ResetPassword, limit)
	users.GET("/profile", h.GetProfile, authenticate)
	users.PUT("/profile", h.UpdateProfile, authenticate)

	dashboards := srv.Group("/dashboard")
	for _, role := range dashboardRoles {
		dashboards.GET("/"+string(role), h.Dashboard(role), authenticate, auth.Authorize(role))
	}

	crops := srv.Group("/api/advisory")
	crops.GET("/crops", h.ListCrops)
	crops.GET("/plantation-guide/:cropId", h.PlantationGuide)
	crops.GET("/planting-calendar/:cropId", h.PlantingCalendars)
	crops.POST("/crops/upload", h.CreateCrop, authenticate, admin)
	crops.PUT("/crops/:cropId", h.UpdateCrop, authenticate, admin)
	crops.DELETE("/crops/:cropId", h.DeleteCrop, authenticate, admin)
	crops.GET("/crops/recommended", h.RecommendedCrops, authenticate)
	crops.GET("/crops/filter", h.FilterCrops, authenticate)
	crops.GET("/crops/search", h.SearchCrops, authenticate)

	h.document()
	h.logger.Debug("routes mounted", zap.Int("count", len(srv.Echo().Routes())))
}

func (h *Handler) Root(c echo.Context) error {
	return c.String(http.StatusOK, msgRunning)
}

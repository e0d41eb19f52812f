// Package handlers binds the HTTP routes to the account, profile and crop
// advisory services.
package handlers

import (
	"strconv"

	"github.com/krishimitra/api/config"
	"github.com/krishimitra/api/internal/apperror"
	"github.com/krishimitra/api/middleware/ratelimit"
	"github.com/krishimitra/api/openapi"
	"github.com/krishimitra/api/services/advisory"
	authsvc "github.com/krishimitra/api/services/auth"
	"github.com/krishimitra/api/services/health"
	"github.com/krishimitra/api/services/jwt"
	"github.com/krishimitra/api/services/logging"
	"github.com/krishimitra/api/services/metrics"
	"github.com/krishimitra/api/services/profile"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

const (
	msgInvalidBody   = "Invalid request body"
	msgInvalidCropID = "Valid crop ID is required."
)

type Params struct {
	fx.In

	Config   *config.Config
	Accounts *authsvc.Service
	Profiles *profile.Service
	Advisory *advisory.Service
	Tokens   *jwt.Service
	Health   *health.Service
	Limits   ratelimit.Store
	Docs     *openapi.OpenAPI
	Metrics  *metrics.Service `optional:"true"`
	Logger   *logging.Service
}

type Handler struct {
	cfg      *config.Config
	accounts *authsvc.Service
	profiles *profile.Service
	advisory *advisory.Service
	tokens   *jwt.Service
	health   *health.Service
	limits   ratelimit.Store
	docs     *openapi.OpenAPI
	metrics  *metrics.Service
	logger   *logging.Service
}

func New(p Params) *Handler {
	return &Handler{
		cfg:      p.Config,
		accounts: p.Accounts,
		profiles: p.Profiles,
		advisory: p.Advisory,
		tokens:   p.Tokens,
		health:   p.Health,
		limits:   p.Limits,
		docs:     p.Docs,
		metrics:  p.Metrics,
		logger:   p.Logger.Named("handlers"),
	}
}

// bind decodes the body, normalizes it and runs the struct's validate tags.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return apperror.Wrap(apperror.Validation, msgInvalidBody, err)
	}
	if n, ok := req.(normalizer); ok {
		n.normalize()
	}
	return c.Validate(req)
}

func cropID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("cropId"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.New(apperror.Validation, msgInvalidCropID)
	}
	return uint(id), nil
}

// unknownAccountAsInvalid reports an unknown email on the OTP routes as a
// bad request rather than a 404.
func unknownAccountAsInvalid(err error) error {
	if appErr, ok := apperror.As(err); ok && appErr.Kind == apperror.NotFound {
		return apperror.Wrap(apperror.Validation, appErr.Message, err)
	}
	return err
}

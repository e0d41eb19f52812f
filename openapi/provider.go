package openapi

import (
	"github.com/krishimitra/api/config"
	"go.uber.org/fx"
)

const Version = "1.0.0"

func ProvideOpenAPI(cfg *config.Config) *OpenAPI {
	return New(cfg.App.Name+" API", Version).
		Description("Account lifecycle with email OTP verification and crop advisory for Nepali farmers.").
		Server(cfg.App.URL, cfg.App.Environment).
		Tag("Users", "Registration, OTP verification, login and password reset").
		Tag("Profile", "Authenticated account profile").
		Tag("Dashboards", "Role-gated dashboards").
		Tag("Crops", "Crop catalog, plantation guides and planting calendars").
		Tag("System", "Liveness, readiness and metrics")
}

var Module = fx.Options(
	fx.Provide(ProvideOpenAPI),
)

package app

import (
	"errors"
	"fmt"

	"github.com/krishimitra/api/config"
	"github.com/krishimitra/api/database"
	"github.com/krishimitra/api/handlers"
	"github.com/krishimitra/api/middleware/ratelimit"
	"github.com/krishimitra/api/models"
	"github.com/krishimitra/api/openapi"
	"github.com/krishimitra/api/server"
	"github.com/krishimitra/api/services/advisory"
	"github.com/krishimitra/api/services/auth"
	"github.com/krishimitra/api/services/health"
	"github.com/krishimitra/api/services/jwt"
	"github.com/krishimitra/api/services/logging"
	"github.com/krishimitra/api/services/mail"
	"github.com/krishimitra/api/services/metrics"
	"github.com/krishimitra/api/services/otp"
	"github.com/krishimitra/api/services/profile"
	"github.com/krishimitra/api/services/scheduler"
	"go.uber.org/fx"
)

type AppBuilder struct {
	config    *config.Config
	mailer    mail.Mailer
	fxOptions []fx.Option
	errors    []error
}

func NewApp() *AppBuilder {
	return &AppBuilder{
		fxOptions: make([]fx.Option, 0),
		errors:    make([]error, 0),
	}
}

func (b *AppBuilder) WithConfig(cfg *config.Config) *AppBuilder {
	if cfg == nil {
		b.addError("config cannot be nil")
		return b
	}
	b.config = cfg
	return b
}

func (b *AppBuilder) WithAutoConfig() *AppBuilder {
	cfg := &config.Config{}
	if err := config.LoadConfig(cfg); err != nil {
		b.addError(fmt.Sprintf("failed to load config: %v", err))
		return b
	}
	b.config = cfg
	return b
}

// WithMailer replaces the SMTP mail service, typically with a recorder in
// tests or local development.
func (b *AppBuilder) WithMailer(m mail.Mailer) *AppBuilder {
	if m == nil {
		b.addError("mailer cannot be nil")
		return b
	}
	b.mailer = m
	return b
}

func (b *AppBuilder) WithFxOptions(opts ...fx.Option) *AppBuilder {
	b.fxOptions = append(b.fxOptions, opts...)
	return b
}

// Build assembles the fx graph. Without WithConfig the configuration is
// loaded from the environment.
func (b *AppBuilder) Build() (*App, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}

	app := &App{}
	options := append(b.buildFxOptions(), fx.Populate(&app.config, &app.logger, &app.server, &app.db))

	app.fx = fx.New(options...)
	if err := app.fx.Err(); err != nil {
		return nil, fmt.Errorf("failed to build application: %w", err)
	}

	return app, nil
}

func (b *AppBuilder) addError(msg string) {
	b.errors = append(b.errors, errors.New(msg))
}

func (b *AppBuilder) validate() error {
	if len(b.errors) > 0 {
		return fmt.Errorf("configuration errors: %v", b.errors)
	}
	return nil
}

func (b *AppBuilder) buildFxOptions() []fx.Option {
	options := []fx.Option{
		fx.NopLogger,
		config.NewProvider(b.config),
		logging.Module,
		fx.Supply(database.WithModels(models.All()...)),
	}

	if b.mailer != nil {
		mailer := b.mailer
		options = append(options, fx.Provide(func() mail.Mailer { return mailer }))
	} else {
		options = append(options, mail.Module)
	}

	options = append(options,
		database.Module,
		metrics.Module,
		health.Module,
		jwt.Module,
		otp.Module,
		auth.Module,
		profile.Module,
		advisory.Module,
		ratelimit.Module,
		scheduler.Module,
		openapi.Module,
		server.Module,
		handlers.Module,
	)

	return append(options, b.fxOptions...)
}

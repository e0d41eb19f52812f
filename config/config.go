package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig       `envPrefix:"APP_"`
	Server    ServerConfig    `envPrefix:"SERVER_"`
	Log       LogConfig       `envPrefix:"LOG_"`
	Database  DatabaseConfig  `envPrefix:"DATABASE_"`
	Auth      AuthConfig      `envPrefix:"AUTH_"`
	JWT       JWTConfig       `envPrefix:"JWT_"`
	Mail      MailConfig      `envPrefix:"MAIL_"`
	RateLimit RateLimitConfig `envPrefix:"RATE_LIMIT_"`
	Redis     RedisConfig     `envPrefix:"REDIS_"`
	Scheduler SchedulerConfig `envPrefix:"SCHEDULER_"`
	Metrics   MetricsConfig   `envPrefix:"METRICS_"`
}

type AppConfig struct {
	Name        string `env:"NAME" envDefault:"KrishiMitra"`
	URL         string `env:"URL" envDefault:"http://localhost:5001"`
	Environment string `env:"ENV" envDefault:"development"`
}

type ServerConfig struct {
	Port           string   `env:"PORT" envDefault:"5001"`
	Host           string   `env:"HOST" envDefault:"0.0.0.0"`
	CORSOrigins    []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`
}

type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
	Output string `env:"OUTPUT" envDefault:"stdout"`
}

type DatabaseConfig struct {
	Driver      string `env:"DRIVER" envDefault:"sqlite"`
	DSN         string `env:"DSN" envDefault:"krishimitra.db"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"true"`
}

type AuthConfig struct {
	MinLength  int           `env:"PASSWORD_MIN_LENGTH" envDefault:"8"`
	BcryptCost int           `env:"BCRYPT_COST" envDefault:"10"`
	OTPTTL     time.Duration `env:"OTP_TTL" envDefault:"10m"`
}

type JWTConfig struct {
	SecretKey string        `env:"SECRET_KEY"`
	Expiry    time.Duration `env:"EXPIRY" envDefault:"168h"`
	Issuer    string        `env:"ISSUER" envDefault:"krishimitra"`
}

type MailConfig struct {
	Host        string `env:"HOST" envDefault:"localhost"`
	Port        int    `env:"PORT" envDefault:"587"`
	Username    string `env:"USERNAME"`
	Password    string `env:"PASSWORD"`
	Encryption  string `env:"ENCRYPTION" envDefault:"starttls"`
	FromAddress string `env:"FROM_ADDRESS"`
	FromName    string `env:"FROM_NAME" envDefault:"KrishiMitra"`
}

type CountingMode string

const (
	CountAll      CountingMode = "all"
	CountFailures CountingMode = "failures"
	CountSuccess  CountingMode = "success"
)

type RateLimitConfig struct {
	Store     string        `env:"STORE" envDefault:"memory"`
	Rate      int           `env:"RATE" envDefault:"20"`
	Period    time.Duration `env:"PERIOD" envDefault:"15m"`
	CountMode CountingMode  `env:"COUNT_MODE" envDefault:"all"`
}

type RedisConfig struct {
	Addr     string `env:"ADDR"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

type SchedulerConfig struct {
	Enabled       bool   `env:"ENABLED" envDefault:"true"`
	OTPSweepSpec  string `env:"OTP_SWEEP" envDefault:"@every 5m"`
	KeepAliveURL  string `env:"KEEPALIVE_URL"`
	KeepAliveSpec string `env:"KEEPALIVE_SPEC" envDefault:"@every 14m"`
}

type MetricsConfig struct {
	Enabled bool   `env:"ENABLED" envDefault:"true"`
	Path    string `env:"PATH" envDefault:"/metrics"`
}

func LoadConfig(cfg any) error {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	if err := env.Parse(cfg); err != nil {
		return err
	}

	if c, ok := cfg.(*Config); ok {
		return c.Validate()
	}
	return nil
}

func (c *Config) Validate() error {
	if err := validateJWTConfig(&c.JWT); err != nil {
		return err
	}
	if err := validateDatabaseConfig(&c.Database); err != nil {
		return err
	}
	if err := validateRateLimitConfig(&c.RateLimit, &c.Redis); err != nil {
		return err
	}
	if c.Auth.OTPTTL <= 0 {
		return fmt.Errorf("OTP TTL must be positive")
	}
	return nil
}

var weakSecretPatterns = []string{"secret", "password", "changeme", "change", "example", "default", "test"}

func validateJWTConfig(cfg *JWTConfig) error {
	if len(cfg.SecretKey) < 32 {
		return fmt.Errorf("JWT secret key must be at least 32 characters long")
	}

	lower := strings.ToLower(cfg.SecretKey)
	for _, pattern := range weakSecretPatterns {
		if strings.Contains(lower, pattern) {
			return fmt.Errorf("JWT secret key contains weak patterns (%q)", pattern)
		}
	}

	if cfg.Expiry <= 0 {
		return fmt.Errorf("JWT expiry must be positive")
	}
	return nil
}

func validateDatabaseConfig(cfg *DatabaseConfig) error {
	switch cfg.Driver {
	case "sqlite", "postgres", "postgresql", "mysql":
		return nil
	default:
		return fmt.Errorf("unsupported database driver: %s (supported: sqlite, postgres, mysql)", cfg.Driver)
	}
}

func validateRateLimitConfig(cfg *RateLimitConfig, redis *RedisConfig) error {
	switch cfg.Store {
	case "memory":
	case "redis":
		if redis.Addr == "" {
			return fmt.Errorf("redis rate limit store requires REDIS_ADDR")
		}
	default:
		return fmt.Errorf("unsupported rate limit store: %s (supported: memory, redis)", cfg.Store)
	}

	switch cfg.CountMode {
	case CountAll, CountFailures, CountSuccess:
	default:
		return fmt.Errorf("unsupported rate limit count mode: %s", cfg.CountMode)
	}
	return nil
}

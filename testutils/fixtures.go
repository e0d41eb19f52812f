package testutils

import (
	"time"

	"github.com/krishimitra/api/config"
	"golang.org/x/crypto/bcrypt"
)

func GetTestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:        "KrishiMitra",
			URL:         "http://localhost:5001",
			Environment: "test",
		},
		Server: config.ServerConfig{
			Host:        "127.0.0.1",
			Port:        "0",
			CORSOrigins: []string{"http://localhost:5173"},
		},
		Log: config.LogConfig{
			Level:  "debug",
			Format: "json",
			Output: "stdout",
		},
		Database: config.DatabaseConfig{
			Driver:      "sqlite",
			DSN:         ":memory:",
			AutoMigrate: true,
		},
		Auth: config.AuthConfig{
			MinLength:  8,
			BcryptCost: bcrypt.MinCost,
			OTPTTL:     10 * time.Minute,
		},
		JWT: config.JWTConfig{
			SecretKey: "k7Qp2xVz9LmN4rTs8WbYc3HjD6FgA1Ue",
			Expiry:    7 * 24 * time.Hour,
			Issuer:    "krishimitra-test",
		},
		Mail: config.MailConfig{
			Host:        "localhost",
			Port:        1025,
			Encryption:  "none",
			FromAddress: "noreply@krishimitra.test",
			FromName:    "KrishiMitra",
		},
		RateLimit: config.RateLimitConfig{
			Store:     "memory",
			Rate:      20,
			Period:    15 * time.Minute,
			CountMode: config.CountAll,
		},
		Scheduler: config.SchedulerConfig{
			Enabled:       false,
			OTPSweepSpec:  "@every 5m",
			KeepAliveSpec: "@every 14m",
		},
		Metrics: config.MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

var TestPasswords = struct {
	Valid     string
	Alternate string
	TooShort  string
	NoUpper   string
	NoLower   string
	NoNumber  string
	NoSpecial string
}{
	Valid:     "Aa1!aaaa",
	Alternate: "Harvest#2024",
	TooShort:  "Aa1!",
	NoUpper:   "aa1!aaaa",
	NoLower:   "AA1!AAAA",
	NoNumber:  "Aa!aaaaa",
	NoSpecial: "Aa1aaaaa",
}

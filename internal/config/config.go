package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the API server
type Config struct {
	// Database Configuration
	Database DatabaseConfig

	// HTTP Configuration
	HTTP HTTPConfig

	// Session Configuration
	Session SessionConfig

	// Logging Configuration
	Logging LoggingConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string `env:"DATABASE_URL" envDefault:"adminkit.sqlite"`
}

// HTTPConfig holds listener and CORS configuration
type HTTPConfig struct {
	Addr        string   `env:"HTTP_ADDR" envDefault:":8080"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:9528"`
}

// SessionConfig holds token and route catalogue configuration
type SessionConfig struct {
	TokenTTL time.Duration `env:"TOKEN_TTL" envDefault:"12h"`
	// RoutesFile points to a YAML route catalogue; empty uses the built-in one
	RoutesFile string `env:"ROUTES_FILE"`
	// PurgeSchedule is the cron expression for purging expired revocations
	PurgeSchedule string `env:"REVOCATION_PURGE_SCHEDULE" envDefault:"@hourly"`
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"` // json, console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if cfg.Session.TokenTTL <= 0 {
		return nil, fmt.Errorf("TOKEN_TTL must be positive, got %s", cfg.Session.TokenTTL)
	}

	return &cfg, nil
}

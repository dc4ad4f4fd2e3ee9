package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config holds the configuration for the contract assistant service.
// Environment variables are automatically parsed from the CONTRACT_SERVICE_ prefix.
type Config struct {
	// Build target selects high-level environment: local, cloud-dev, cloud
	BuildTarget string `envconfig:"BUILD_TARGET" default:"local"`

	// Derived or override driver: sqlite, postgres, or auto
	DBDriver string `envconfig:"DB_DRIVER" default:"auto"`

	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`

	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Postgres Configuration
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`

	// SQLite Configuration
	SQLitePath string `envconfig:"SQLITE_PATH" default:"data/contract-assistant.db"`

	// AI Provider Configuration
	AIBaseURL       string `envconfig:"AI_BASE_URL" default:"http://localhost:11434"`
	AIAPIKey        string `envconfig:"AI_API_KEY" default:""`
	AIModelBasic    string `envconfig:"AI_MODEL_BASIC" default:"llama3.1:8b"`
	AIModelStandard string `envconfig:"AI_MODEL_STANDARD" default:"llama3.1:70b"`
	AIModelPremium  string `envconfig:"AI_MODEL_PREMIUM" default:"llama3.1:405b"`

	// Retention sweep interval
	SweepInterval time.Duration `envconfig:"SWEEP_INTERVAL" default:"1h"`
}

// ResolveDefaults validates BuildTarget and derives DBDriver when set to "auto" or empty.
func (c *Config) ResolveDefaults() error {
	var defaultDB string

	switch c.BuildTarget {
	case "local":
		defaultDB = "sqlite"
	case "cloud-dev", "cloud":
		defaultDB = "postgres"
	default:
		return fmt.Errorf("unsupported BUILD_TARGET: %s", c.BuildTarget)
	}

	if c.DBDriver == "" || c.DBDriver == "auto" {
		c.DBDriver = defaultDB
	}

	allowedDB := map[string]bool{"sqlite": true, "postgres": true}
	if !allowedDB[c.DBDriver] {
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	if c.DBDriver == "postgres" && c.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required when DB_DRIVER is postgres")
	}
	return nil
}

// New creates a new Config by parsing environment variables.
// Environment variables should be prefixed with CONTRACT_SERVICE_
// Example: CONTRACT_SERVICE_HTTP_PORT, CONTRACT_SERVICE_DB_DRIVER
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("CONTRACT_SERVICE", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("build_target", cfg.BuildTarget).
		Str("db_driver", cfg.DBDriver).
		Str("environment", string(cfg.Environment)).
		Int("port", cfg.HTTPPort).
		Str("ai_base_url", cfg.AIBaseURL).
		Dur("sweep_interval", cfg.SweepInterval).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config specifically for testing
func NewForTesting() *Config {
	return &Config{
		BuildTarget: "local",
		DBDriver:    "auto",
		Environment: EnvTesting,
		HTTPPort:    8080,
		SQLitePath:  ":memory:",
		AIBaseURL:   "http://localhost:11434",

		AIModelBasic:    "llama3.1:8b",
		AIModelStandard: "llama3.1:70b",
		AIModelPremium:  "llama3.1:405b",

		SweepInterval: time.Hour,
	}
}

// IsTesting returns true if the environment is set to testing
func (c *Config) IsTesting() bool {
	return c.Environment == EnvTesting
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/shared/utils"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Storage    StorageConfig
	PreInstall PreInstallConfig
	Events     EventsConfig
	Logging    LogConfig
	RateLimit  RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8000" validate:"required,numeric"`
	Host            string        `envconfig:"HOST" default:"0.0.0.0"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// StorageConfig holds the bundle database settings.
type StorageConfig struct {
	Path     string `envconfig:"BMS_DB_PATH" default:"bundlemgr.db" validate:"required"`
	Compress bool   `envconfig:"BMS_COMPRESS" default:"true"`
}

// PreInstallConfig points at the factory pre-install lists. An empty dir
// skips seeding.
type PreInstallConfig struct {
	Dir string `envconfig:"BMS_PREINSTALL_DIR"`
}

// EventsConfig holds system broadcast settings. An empty sink keeps
// broadcasts in process.
type EventsConfig struct {
	Sink    string `envconfig:"BMS_EVENT_SINK" validate:"omitempty,url"`
	Source  string `envconfig:"BMS_EVENT_SOURCE" default:"bundlemgr" validate:"required"`
	Retries int    `envconfig:"BMS_EVENT_RETRIES" default:"3" validate:"min=0"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100" validate:"min=1"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200" validate:"min=1"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := utils.ValidateStruct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8000",
			Host:            "0.0.0.0",
			ShutdownTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			Path:     "bundlemgr.db",
			Compress: true,
		},
		Events: EventsConfig{
			Source:  "bundlemgr",
			Retries: 3,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}

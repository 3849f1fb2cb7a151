package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ZerkerEOD/slotban/internal/db"
	"github.com/ZerkerEOD/slotban/pkg/debug"
	"github.com/ZerkerEOD/slotban/pkg/env"
	"github.com/go-playground/validator/v10"
)

// Storage drivers
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config holds the application configuration
type Config struct {
	Host              string `validate:"required"`
	Port              int    `validate:"min=1,max=65535"`
	CORSAllowedOrigin string
	AppEnv            string

	StorageDriver string         `validate:"oneof=memory postgres"`
	Database      DatabaseConfig `validate:"-"`

	TwitchUsername string
	TwitchToken    string
	TwitchChannels []string

	SweepSchedule   string `validate:"required"`
	BanDurationDays int    `validate:"min=1"`
	SeedFile        string
}

// DatabaseConfig is only validated when the postgres driver is selected.
type DatabaseConfig struct {
	Host     string `validate:"required"`
	Port     int    `validate:"min=1,max=65535"`
	User     string `validate:"required"`
	Password string
	Name     string `validate:"required"`
	SSLMode  string `validate:"oneof=disable allow prefer require verify-ca verify-full"`
}

// Load reads the configuration from the environment and validates it
func Load() (*Config, error) {
	cfg := &Config{
		Host:              env.GetOrDefault("HOST", "0.0.0.0"),
		Port:              env.GetIntOrDefault("PORT", 5000),
		CORSAllowedOrigin: env.GetOrDefault("CORS_ALLOWED_ORIGIN", "*"),
		AppEnv:            env.GetOrDefault("APP_ENV", "production"),
		StorageDriver:     strings.ToLower(env.GetOrDefault("STORAGE_DRIVER", StorageMemory)),
		Database: DatabaseConfig{
			Host:     env.GetOrDefault("DB_HOST", "localhost"),
			Port:     env.GetIntOrDefault("DB_PORT", 5432),
			User:     env.GetOrDefault("DB_USER", "slotban"),
			Password: env.GetOrDefault("DB_PASSWORD", ""),
			Name:     env.GetOrDefault("DB_NAME", "slotban"),
			SSLMode:  env.GetOrDefault("DB_SSLMODE", "disable"),
		},
		TwitchUsername:  env.GetOrDefault("TWITCH_USERNAME", ""),
		TwitchToken:     env.GetOrDefault("TWITCH_TOKEN", ""),
		TwitchChannels:  env.GetList("TWITCH_CHANNELS"),
		SweepSchedule:   env.GetOrDefault("SWEEP_SCHEDULE", "@every 24h"),
		BanDurationDays: env.GetIntOrDefault("BAN_DURATION_DAYS", 10),
		SeedFile:        env.GetOrDefault("SEED_FILE", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	debug.Debug("Configuration loaded - Address: %s, Storage: %s, Env: %s", cfg.GetAddress(), cfg.StorageDriver, cfg.AppEnv)
	return cfg, nil
}

// Validate checks field constraints. Database settings are only checked for
// the postgres driver.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.StorageDriver == StoragePostgres {
		if err := v.Struct(c.Database); err != nil {
			return fmt.Errorf("invalid database configuration: %w", err)
		}
	}
	return nil
}

// IsDevelopment reports whether APP_ENV is development
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.AppEnv, "development")
}

// BanDuration returns the configured ban lifetime
func (c *Config) BanDuration() time.Duration {
	return time.Duration(c.BanDurationDays) * 24 * time.Hour
}

// DB converts the database settings for internal/db
func (c *Config) DB() db.Config {
	return db.Config{
		Host:     c.Database.Host,
		Port:     c.Database.Port,
		User:     c.Database.User,
		Password: c.Database.Password,
		DBName:   c.Database.Name,
		SSLMode:  c.Database.SSLMode,
	}
}

// GetWSEndpoint returns the WebSocket endpoint URL
func (c *Config) GetWSEndpoint() string {
	return fmt.Sprintf("ws://%s:%d/ws", c.Host, c.Port)
}

// GetAddress returns the full address for the server to listen on
func (c *Config) GetAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

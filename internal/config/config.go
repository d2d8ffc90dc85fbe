// Package config provides environment-driven configuration for the
// reconciliation run. Values are loaded from environment variables
// with defaults applied, and validated on startup so a missing
// required value fails before any entity is touched.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config holds all run configuration.
type Config struct {
	// Env names the deployment environment, used only for logging.
	Env string `env:"ENV" default:"development"`

	Database DatabaseConfig
	Source   SourceConfig
	Logging  LoggingConfig
}

// DatabaseConfig holds PostgreSQL connection settings. Either a full
// DATABASE_URL or the discrete POSTGRES_* values must be supplied.
type DatabaseConfig struct {
	// URL is a full connection string. When set it takes precedence
	// over the discrete settings below.
	URL string `env:"DATABASE_URL"`

	User     string `env:"POSTGRES_USER"`
	Password string `env:"POSTGRES_PASSWORD"`
	Name     string `env:"POSTGRES_DB"`
	Host     string `env:"POSTGRES_HOST" default:"localhost"`
	Port     int    `env:"POSTGRES_PORT" default:"5432"`

	// Schema is the database schema holding the raw, canonical and
	// errors tables (default: public).
	Schema string `env:"POSTGRES_SCHEMA" default:"public"`

	// MaxConns is the connection pool ceiling (default: 4).
	MaxConns int `env:"DB_MAX_CONNS" default:"4"`

	// MinConns is the number of connections kept open (default: 1).
	MinConns int `env:"DB_MIN_CONNS" default:"1"`

	// ConnectWait is how long to wait before the first connection
	// attempt, giving a co-started database time to come up
	// (default: 3s).
	ConnectWait time.Duration `env:"DB_CONNECT_WAIT" default:"3s"`
}

// SourceConfig holds extract file settings.
type SourceConfig struct {
	// Dir is the directory the per-entity CSV extracts are read from
	// (default: source-data).
	Dir string `env:"SOURCE_DATA_DIR" default:"source-data"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// DSN returns the connection string, composing it from the discrete
// settings when no full URL is configured.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		url.QueryEscape(c.User), url.QueryEscape(c.Password), c.Host, c.Port, c.Name)
}

// Validate checks that the configuration is usable. It reports every
// failure at once rather than the first one found.
func (c *Config) Validate() error {
	var errs []string

	if c.Database.URL == "" {
		if c.Database.User == "" {
			errs = append(errs, "POSTGRES_USER is required when DATABASE_URL is not set")
		}
		if c.Database.Password == "" {
			errs = append(errs, "POSTGRES_PASSWORD is required when DATABASE_URL is not set")
		}
		if c.Database.Name == "" {
			errs = append(errs, "POSTGRES_DB is required when DATABASE_URL is not set")
		}
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("POSTGRES_PORT (%d) must be 1-65535", c.Database.Port))
	}
	if c.Database.MaxConns <= 0 {
		errs = append(errs, "DB_MAX_CONNS must be positive")
	}
	if c.Database.MinConns < 0 {
		errs = append(errs, "DB_MIN_CONNS must be non-negative")
	}
	if c.Database.MaxConns < c.Database.MinConns {
		errs = append(errs, fmt.Sprintf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)",
			c.Database.MaxConns, c.Database.MinConns))
	}
	if c.Database.ConnectWait < 0 {
		errs = append(errs, "DB_CONNECT_WAIT must be non-negative")
	}
	if c.Source.Dir == "" {
		errs = append(errs, "SOURCE_DATA_DIR must not be empty")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// String returns a safe representation of the config for logging.
// Credentials are masked.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Env: %q, Database: {DSN: [MASKED], Schema: %q, MaxConns: %d}, Source: {Dir: %q}, Logging: {Level: %q, Format: %q}}",
		c.Env, c.Database.Schema, c.Database.MaxConns, c.Source.Dir, c.Logging.Level, c.Logging.Format)
}

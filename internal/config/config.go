// Package config provides centralized configuration management for the
// application. It loads configuration from environment variables with
// sensible defaults and validates all settings on startup to fail fast
// on misconfiguration.
package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Database DatabaseConfig
	Fetch    FetchConfig
	Publish  PublishConfig
	Export   ExportConfig
	Logging  LoggingConfig
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	// Host is the database host (default: 127.0.0.1)
	Host string `env:"DB_HOST" default:"127.0.0.1"`

	// Port is the database port (default: 5432)
	Port int `env:"DB_PORT" default:"5432"`

	// Name is the database name (default: cadastro)
	Name string `env:"DB_NAME" default:"cadastro"`

	// User is the database user (default: postgres)
	User string `env:"DB_USER" default:"postgres"`

	// Password is the database password (required)
	// Supports both PG_PASSWORD and DB_PASSWORD env vars for compatibility
	Password string `env:"PG_PASSWORD" envAlt:"DB_PASSWORD" required:"true"`

	// MaxConns is the maximum number of connections in the pool (default: 5)
	MaxConns int `env:"DB_MAX_CONNS" default:"5"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"DB_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// FetchConfig holds settings for pulling JSON documents from the web.
type FetchConfig struct {
	// Timeout is the HTTP client timeout for a single fetch (default: 30s)
	Timeout time.Duration `env:"FETCH_TIMEOUT" default:"30s"`
}

// PublishConfig holds settings for the outbound web publish.
type PublishConfig struct {
	// APIKey is the JSONBin.io master key. Optional: the publish
	// operation refuses to run without it, everything else works.
	APIKey string `env:"JSONBIN_API_KEY"`
}

// ExportConfig holds settings for local JSON/ZIP exports.
type ExportConfig struct {
	// Dir is the directory export artifacts are written to (default: .)
	Dir string `env:"EXPORT_DIR" default:"."`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// DSN returns the connection string for pgxpool.ParseConfig.
// User and password are URL-escaped so special characters survive.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		url.QueryEscape(c.User), url.QueryEscape(c.Password), c.Host, c.Port, c.Name)
}

// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Upload   UploadConfig
	Cache    CacheConfig
	Explore  ExploreConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Events   EventsConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds the optional event store connection.
// With no URL the event log is written to a file only.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	MaxConns        int           `env:"DB_MAX_CONNS" default:"4"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"0"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// Enabled reports whether an event store is configured.
func (c DatabaseConfig) Enabled() bool { return c.URL != "" }

// UploadConfig bounds upload size and parse concurrency.
type UploadConfig struct {
	// MaxFileSize is the maximum accepted upload in bytes (default: 50MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"52428800"`

	// MaxConcurrent is the number of files parsed at once (default: 4)
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long a request waits for a parse slot (default: 10s)
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"10s"`
}

// CacheConfig sizes the load and export caches, in entries.
type CacheConfig struct {
	LoadEntries   int `env:"CACHE_LOAD_ENTRIES" default:"32"`
	ExportEntries int `env:"CACHE_EXPORT_ENTRIES" default:"64"`
}

// ExploreConfig holds the defaults applied to missing selections.
type ExploreConfig struct {
	// DefaultColumns is how many leading columns are shown by default (default: 5)
	DefaultColumns int `env:"EXPLORE_DEFAULT_COLUMNS" default:"5"`

	// DefaultFilterValues is how many distinct values a new filter selects (default: 5)
	DefaultFilterValues int `env:"EXPLORE_DEFAULT_FILTER_VALUES" default:"5"`

	// PreviewRows is the row limit of table previews (default: 200)
	PreviewRows int `env:"EXPLORE_PREVIEW_ROWS" default:"200"`

	// MaxPreviewRows caps any requested limit (default: 10000)
	MaxPreviewRows int `env:"EXPLORE_MAX_PREVIEW_ROWS" default:"10000"`

	// DefaultBins is the histogram bin count when none is given (default: 20)
	DefaultBins int `env:"EXPLORE_DEFAULT_BINS" default:"20"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 120)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"120"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// RequireAPIKey protects /api routes with an X-API-Key header (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// EventsConfig controls the append-only event log.
type EventsConfig struct {
	// File is the event log path; empty disables the file log (default: app.log)
	File string `env:"EVENT_LOG_FILE" default:"app.log"`

	// RetentionDays is how long events stay in the database (default: 30)
	RetentionDays int `env:"EVENT_RETENTION_DAYS" default:"30"`

	// PurgeInterval is how often old events are deleted (default: 24h)
	PurgeInterval time.Duration `env:"EVENT_PURGE_INTERVAL" default:"24h"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

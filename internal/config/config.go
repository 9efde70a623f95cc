// Package config provides centralized configuration management for the dashboard,
// the ingestion service and the CLI. It loads configuration from environment
// variables with sensible defaults and validates all settings on startup to fail
// fast on misconfiguration.
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
	Ingest   IngestConfig
	Upload   UploadConfig
	Database DatabaseConfig
	Screen   ScreenConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings for the dashboard.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 0 for SSE)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for non-streaming requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// IngestConfig describes the ingestion service, both as a client target
// and as a listener for cmd/ingestd.
type IngestConfig struct {
	// ServiceURL is the base URL the dashboard and CLI submit to
	ServiceURL string `env:"INGEST_SERVICE_URL" default:"http://localhost:8000"`

	// APIKey is sent as X-API-Key on every request to the service
	APIKey string `env:"INGEST_API_KEY"`

	// RequestTimeout bounds a single call to the service (default: 60s)
	RequestTimeout time.Duration `env:"INGEST_REQUEST_TIMEOUT" default:"60s"`

	// AutoDismissDelay is how long a clean import toast stays up (default: 3s)
	AutoDismissDelay time.Duration `env:"INGEST_AUTO_DISMISS_DELAY" default:"3s"`

	// ListenAddr is where cmd/ingestd listens (default: :8000)
	ListenAddr string `env:"INGEST_LISTEN_ADDR" default:":8000"`
}

// UploadConfig holds file upload settings.
type UploadConfig struct {
	// MaxFileSize is the upload size limit; accepts KB, MB or GB suffixes (default: 10MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"10MB"`
}

// DatabaseConfig holds database connection settings for the ingestion service.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string. Empty selects the in-memory store.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 2)
	MinConns int `env:"DB_MIN_CONNS" default:"2"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// ScreenConfig controls lexical screening in the ingestion service.
type ScreenConfig struct {
	// BlocklistPath is a file of known-bad domains, one per line
	BlocklistPath string `env:"SCREEN_BLOCKLIST_PATH"`

	// BulkEnabled screens bulk submissions into skipped_malicious (default: false).
	// Lookalike matching flags some legitimate names, e.g. canada.ca next to canara.
	BulkEnabled bool `env:"SCREEN_BULK_ENABLED" default:"false"`

	// Brands are extra labels protected against one-edit lookalikes
	Brands []string `env:"SCREEN_BRANDS"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the sustained rate per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// Burst is the token bucket size per IP (default: 20)
	Burst int `env:"RATE_LIMIT_BURST" default:"20"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// RequireAPIKey rejects requests without a valid X-API-Key (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`

	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// UseMemoryStore reports whether the ingestion service should run without Postgres.
func (c *DatabaseConfig) UseMemoryStore() bool {
	return c.URL == ""
}

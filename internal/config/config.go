// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Sources  SourcesConfig
	Query    QueryConfig
	Database DatabaseConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Metrics  MetricsConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 60s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 45s).
	// The first request to a cold source parses the whole release.
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"45s"`
}

// SourcesConfig locates the backing files of each source.
// A source with an empty path stays registered but answers "unavailable".
type SourcesConfig struct {
	// USGSFile is the USGS Mineral Commodity Summaries world production CSV
	USGSFile string `env:"USGS_MCS_LOCAL_CSV" envAlt:"USGS_MCS_FILE"`

	// BGSFile is the BGS World Mineral Statistics export (CSV or XLSX)
	BGSFile string `env:"BGS_LOCAL_FILE" envAlt:"BGS_WMS_FILE"`

	// MRDSFile is the USGS Mineral Resources Data System CSV
	MRDSFile string `env:"MRDS_LOCAL_CSV" envAlt:"MRDS_FILE"`

	// AliasesFile replaces the embedded country alias table (YAML)
	AliasesFile string `env:"COUNTRY_ALIASES_FILE"`

	// WarmOnStart builds every configured source before serving (default: false)
	WarmOnStart bool `env:"SOURCES_WARM_ON_START" default:"false"`

	// WarmTimeout bounds the warm-up (default: 2m)
	WarmTimeout time.Duration `env:"SOURCES_WARM_TIMEOUT" default:"2m"`
}

// QueryConfig holds defaults applied when a caller omits a parameter.
type QueryConfig struct {
	// DefaultTopN is the ranking size when neither caller nor source sets one (default: 10)
	DefaultTopN int `env:"QUERY_DEFAULT_TOP_N" default:"10"`

	// ProfileLimit is the number of commodities in a country profile (default: 20)
	ProfileLimit int `env:"QUERY_PROFILE_LIMIT" default:"20"`

	// RecordLimit caps records search results (default: 500)
	RecordLimit int `env:"QUERY_RECORD_LIMIT" default:"500"`

	// DepositLimit is the default number of deposits returned (default: 200)
	DepositLimit int `env:"QUERY_DEPOSIT_LIMIT" default:"200"`

	// MaxDepositLimit caps caller-supplied deposit limits (default: 5000)
	MaxDepositLimit int `env:"QUERY_MAX_DEPOSIT_LIMIT" default:"5000"`

	// DefaultStatistic is the statistic type filter (default: Production)
	DefaultStatistic string `env:"QUERY_DEFAULT_STATISTIC" default:"Production"`
}

// DatabaseConfig holds database connection settings.
// The database is only used by the export command.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 4)
	MaxConns int `env:"DB_MAX_CONNS" default:"4"`

	// MinConns is the minimum number of connections to keep open (default: 0)
	MinConns int `env:"DB_MIN_CONNS" default:"0"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// ExportTable is the destination table for exports (default: mineral_observations)
	ExportTable string `env:"DB_EXPORT_TABLE" default:"mineral_observations"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the sustained rate per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// Burst is the number of requests allowed above the sustained rate (default: 20)
	Burst int `env:"RATE_LIMIT_BURST" default:"20"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey enables X-API-Key authentication on /api routes (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// MetricsConfig holds Prometheus settings.
type MetricsConfig struct {
	// Enabled mounts the metrics endpoint (default: true)
	Enabled bool `env:"METRICS_ENABLED" default:"true"`

	// Namespace prefixes every metric name (default: minerals)
	Namespace string `env:"METRICS_NAMESPACE" default:"minerals"`

	// Path is the route of the metrics endpoint (default: /metrics)
	Path string `env:"METRICS_PATH" default:"/metrics"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

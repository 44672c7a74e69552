// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Store backends.
const (
	BackendPostgres = "postgres"
	BackendREST     = "rest"
)

// Rate limiter backends.
const (
	RateBackendMemory = "memory"
	RateBackendRedis  = "redis"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Database DatabaseConfig
	REST     RESTConfig
	Register RegisterConfig
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

	// WriteTimeout is the maximum duration for writing response (default: 30s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 20s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"20s"`
}

// StoreConfig selects where registrations are written.
type StoreConfig struct {
	// Backend is "postgres" (direct pgx) or "rest" (PostgREST/Supabase)
	Backend string `env:"STORE_BACKEND" default:"postgres"`

	// Table is the target table (default: User)
	Table string `env:"STORE_TABLE" default:"User"`
}

// DatabaseConfig holds database connection settings for the postgres backend.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (required for postgres backend)
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"DB_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// RESTConfig holds settings for the PostgREST/Supabase backend.
type RESTConfig struct {
	// URL is the project URL, e.g. https://abc.supabase.co
	URL string `env:"SUPABASE_URL" envAlt:"REST_URL"`

	// APIKey is the anon/public key sent as apikey header
	APIKey string `env:"SUPABASE_ANON_KEY" envAlt:"REST_API_KEY"`

	// Timeout bounds a single REST call (default: 10s)
	Timeout time.Duration `env:"REST_TIMEOUT" default:"10s"`
}

// RegisterConfig holds limits for the registration endpoint.
type RegisterConfig struct {
	// MaxInFlight is the maximum number of concurrent registrations (default: 32)
	MaxInFlight int `env:"REGISTER_MAX_IN_FLIGHT" default:"32"`

	// MaxWaitTime is how long to wait for an in-flight slot (default: 2s)
	MaxWaitTime time.Duration `env:"REGISTER_MAX_WAIT_TIME" default:"2s"`

	// MaxBodyBytes caps the request body size (default: 64KB)
	MaxBodyBytes int64 `env:"REGISTER_MAX_BODY_BYTES" default:"65536"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the rate limit per client IP (default: 30)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"30"`

	// Backend is "memory" (per process) or "redis" (shared) (default: memory)
	Backend string `env:"RATE_LIMIT_BACKEND" default:"memory"`

	// BlockDuration is how long a client stays blocked after exceeding
	// the limit with the redis backend (default: 1m)
	BlockDuration time.Duration `env:"RATE_LIMIT_BLOCK_DURATION" default:"1m"`

	// RedisAddr is the redis host:port for the redis backend
	RedisAddr string `env:"REDIS_ADDR" default:"localhost:6379"`

	// RedisPassword is the redis password, if any
	RedisPassword string `env:"REDIS_PASSWORD"`

	// RedisDB is the redis database number (default: 0)
	RedisDB int `env:"REDIS_DB" default:"0"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey enables X-API-Key authentication for API routes (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `env:"API_KEYS"`

	// SessionCookie is the cookie holding the caller's access token
	SessionCookie string `env:"SESSION_COOKIE" default:"sb-access-token"`

	// SessionJWTSecret verifies HS256 session tokens when set
	SessionJWTSecret string `env:"SESSION_JWT_SECRET"`

	// CORSAllowedOrigins is a comma-separated list of allowed origins
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS"`
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
	// Enabled exposes /metrics (default: true)
	Enabled bool `env:"METRICS_ENABLED" default:"true"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// Package config provides configuration management for holdoff.
package config

import (
	"strconv"
	"time"
)

// Config is the root configuration structure for holdoff.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Trigger  TriggerConfig  `mapstructure:"trigger"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host to bind the server to
	Host string `mapstructure:"host"`

	// Port to listen on
	Port int `mapstructure:"port"`

	// Request timeouts
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`

	// CORS settings for browser-originated schedule requests
	CORS CORSConfig `mapstructure:"cors"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	// Enable CORS
	Enabled bool `mapstructure:"enabled"`

	// Allowed origins (use ["*"] for all)
	AllowedOrigins []string `mapstructure:"allowed_origins"`

	// Allowed methods
	AllowedMethods []string `mapstructure:"allowed_methods"`

	// Allowed headers
	AllowedHeaders []string `mapstructure:"allowed_headers"`

	// Max age for preflight cache
	MaxAge time.Duration `mapstructure:"max_age"`
}

// DatabaseConfig holds database settings.
type DatabaseConfig struct {
	// Path to SQLite database file
	Path string `mapstructure:"path"`

	// Enable WAL mode (recommended)
	WALMode bool `mapstructure:"wal_mode"`

	// Cache size in KB (negative for KB, positive for pages)
	CacheSize int `mapstructure:"cache_size"`

	// Busy timeout
	BusyTimeout time.Duration `mapstructure:"busy_timeout"`

	// Maximum open connections
	MaxOpenConns int `mapstructure:"max_open_conns"`

	// Maximum idle connections
	MaxIdleConns int `mapstructure:"max_idle_conns"`
}

// TriggerConfig holds settings for the outbound trigger call.
type TriggerConfig struct {
	// URL is the statically configured target. When set, schedule requests
	// may omit the x-webhook-url header; a header still takes precedence.
	URL string `mapstructure:"url"`

	// Method for the trigger call, POST or GET. The call carries no body.
	Method string `mapstructure:"method"`

	// Secret gates schedule and status requests when non-empty. Callers
	// present it via the x-webhook-secret header or the secret query param.
	Secret string `mapstructure:"secret"`

	// DelaySeconds is the default delay applied when a schedule request
	// omits the x-delay-seconds header. Zero means the header is required.
	DelaySeconds int `mapstructure:"delay_seconds"`

	// Timeout for the outbound trigger call.
	Timeout time.Duration `mapstructure:"timeout"`

	// Cron is an optional standard cron expression. When set, an execution
	// is enqueued on every tick using the configured URL and default delay.
	Cron string `mapstructure:"cron"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Log level (debug, info, warn, error)
	Level string `mapstructure:"level"`

	// Log format (json, console)
	Format string `mapstructure:"format"`

	// Include caller info
	Caller bool `mapstructure:"caller"`

	// Include timestamp
	Timestamp bool `mapstructure:"timestamp"`
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return s.Host + ":" + strconv.Itoa(s.Port)
}

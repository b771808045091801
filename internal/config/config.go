// Package config provides configuration types for the Brotherhood client.
//
// Configuration is file-based (brotherhood.yaml) with environment overrides.
// Only client-side concerns live here: where the API is, how long to wait for
// it, how much to cache and how long the auth checks may block.
package config

import (
	"time"

	"github.com/spf13/viper"
)

// Default values applied by SetDefaults.
const (
	DefaultBaseURL      = "http://localhost:8000/api"
	DefaultTimeout      = "30s"
	DefaultMaxRetries   = 3
	DefaultCacheEntries = 50
	DefaultCacheTTL     = "5m"
	DefaultCheckTimeout = "10s"
	DefaultGuardTimeout = "10s"
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "text"
)

// Config is the top-level configuration for the Brotherhood client.
type Config struct {
	// API configures the REST API connection.
	API APIConfig `yaml:"api" mapstructure:"api"`

	// Cache configures the in-memory GET cache.
	Cache CacheConfig `yaml:"cache" mapstructure:"cache"`

	// Auth configures the session state machine.
	Auth AuthConfig `yaml:"auth" mapstructure:"auth"`

	// Guard configures the route guard.
	Guard GuardConfig `yaml:"guard" mapstructure:"guard"`

	// Log configures structured logging.
	Log LogConfig `yaml:"log" mapstructure:"log"`

	// Metrics configures the optional Prometheus endpoint of the shell.
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`

	// Tracing configures request span export.
	Tracing TracingConfig `yaml:"tracing" mapstructure:"tracing"`

	// DevMode forces debug logging.
	DevMode bool `yaml:"dev_mode" mapstructure:"dev_mode"`
}

// APIConfig configures the HTTP client.
type APIConfig struct {
	// BaseURL is prefixed to every request path (e.g., "https://brotherhood.example/api").
	// Defaults to "http://localhost:8000/api".
	BaseURL string `yaml:"base_url" mapstructure:"base_url" validate:"required,url"`

	// Timeout is the hard network timeout per request (e.g., "30s").
	// Defaults to "30s".
	Timeout string `yaml:"timeout" mapstructure:"timeout" validate:"required,duration"`

	// MaxRetries is how many times a 5xx response is retried.
	// Defaults to 3.
	MaxRetries int `yaml:"max_retries" mapstructure:"max_retries" validate:"min=0,max=10"`

	// CSRFToken is sent as X-CSRF-Token when set.
	CSRFToken string `yaml:"csrf_token" mapstructure:"csrf_token"`

	// CSRFPageURL is an HTML page whose <meta name="csrf-token"> tag provides
	// the CSRF token. Ignored when CSRFToken is set.
	CSRFPageURL string `yaml:"csrf_page_url" mapstructure:"csrf_page_url" validate:"omitempty,url"`
}

// CacheConfig configures the request cache.
type CacheConfig struct {
	// MaxEntries bounds the cache; the oldest entries are evicted first.
	// Defaults to 50.
	MaxEntries int `yaml:"max_entries" mapstructure:"max_entries" validate:"min=1"`

	// TTL is the default freshness window for cached GETs (e.g., "5m").
	// Defaults to "5m".
	TTL string `yaml:"ttl" mapstructure:"ttl" validate:"required,duration"`
}

// AuthConfig configures the auth session.
type AuthConfig struct {
	// CheckTimeout is the mount watchdog: loading is forced off after it elapses.
	// Defaults to "10s".
	CheckTimeout string `yaml:"check_timeout" mapstructure:"check_timeout" validate:"required,duration"`
}

// GuardConfig configures the route guard.
type GuardConfig struct {
	// Timeout bounds how long a guarded page waits for the auth check.
	// Defaults to "10s".
	Timeout string `yaml:"timeout" mapstructure:"timeout" validate:"required,duration"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	// Defaults to "info". DevMode=true overrides to "debug".
	Level string `yaml:"level" mapstructure:"level" validate:"omitempty,oneof=debug info warn warning error"`

	// Format is "text" or "json". Defaults to "text".
	Format string `yaml:"format" mapstructure:"format" validate:"omitempty,oneof=text json"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Addr is the listen address for /metrics (e.g., "127.0.0.1:9464").
	// Empty disables the endpoint.
	Addr string `yaml:"addr" mapstructure:"addr" validate:"omitempty,hostname_port"`
}

// TracingConfig configures span export.
type TracingConfig struct {
	// Enabled writes request spans to stderr.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// SetDefaults applies default values to unset fields.
func (c *Config) SetDefaults() {
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	if c.API.Timeout == "" {
		c.API.Timeout = DefaultTimeout
	}
	// viper.IsSet distinguishes "not set" from an explicit 0 (retries disabled).
	if c.API.MaxRetries == 0 && !viper.IsSet("api.max_retries") {
		c.API.MaxRetries = DefaultMaxRetries
	}

	if c.Cache.MaxEntries == 0 {
		c.Cache.MaxEntries = DefaultCacheEntries
	}
	if c.Cache.TTL == "" {
		c.Cache.TTL = DefaultCacheTTL
	}

	if c.Auth.CheckTimeout == "" {
		c.Auth.CheckTimeout = DefaultCheckTimeout
	}
	if c.Guard.Timeout == "" {
		c.Guard.Timeout = DefaultGuardTimeout
	}

	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}

// EffectiveLogLevel returns the configured level, or "debug" in dev mode.
func (c *Config) EffectiveLogLevel() string {
	if c.DevMode {
		return "debug"
	}
	return c.Log.Level
}

// TimeoutDuration returns API.Timeout parsed. Call after Validate.
func (c *APIConfig) TimeoutDuration() time.Duration {
	return mustDuration(c.Timeout)
}

// TTLDuration returns Cache.TTL parsed. Call after Validate.
func (c *CacheConfig) TTLDuration() time.Duration {
	return mustDuration(c.TTL)
}

// CheckTimeoutDuration returns Auth.CheckTimeout parsed. Call after Validate.
func (c *AuthConfig) CheckTimeoutDuration() time.Duration {
	return mustDuration(c.CheckTimeout)
}

// TimeoutDuration returns Guard.Timeout parsed. Call after Validate.
func (c *GuardConfig) TimeoutDuration() time.Duration {
	return mustDuration(c.Timeout)
}

// mustDuration parses a validated duration string. Invalid input yields 0,
// which Validate rejects before any caller gets here.
func mustDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}

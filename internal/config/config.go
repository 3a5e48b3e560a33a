package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/tickerdesk/tickerdesk/internal/api"
	"github.com/tickerdesk/tickerdesk/internal/output"
)

// DefaultAPIURL is the platform endpoint used when none is configured.
const DefaultAPIURL = "https://api.tickerdesk.io"

// Config represents the complete client configuration. It is loaded once per
// invocation and passed explicitly to the components that need it.
type Config struct {
	APIKey    string          `mapstructure:"api_key"`
	APIURL    string          `mapstructure:"api_url"`
	Timeout   time.Duration   `mapstructure:"timeout"`
	Retry     RetryConfig     `mapstructure:"retry"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Display   DisplayConfig   `mapstructure:"display"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// RetryConfig controls retries of transient failures.
type RetryConfig struct {
	MaxRetries int           `mapstructure:"max_retries"`
	BaseDelay  time.Duration `mapstructure:"base_delay"`
	MaxDelay   time.Duration `mapstructure:"max_delay"`
	Multiplier float64       `mapstructure:"multiplier"`
}

// RateLimitConfig caps requests per rolling window. MaxRequests of zero
// disables the limiter.
type RateLimitConfig struct {
	MaxRequests int           `mapstructure:"max_requests"`
	Window      time.Duration `mapstructure:"window"`
}

// DisplayConfig holds output preferences.
type DisplayConfig struct {
	// Format is one of table, compact, json, csv.
	Format    string `mapstructure:"format"`
	Precision int    `mapstructure:"precision"`
	Limit     int    `mapstructure:"limit"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level controls the minimum log level
	// Valid values: debug, info, warn, error
	Level string `mapstructure:"level"`

	// Format selects text (console) or json (structured) log output
	Format string `mapstructure:"format"`
}

// HasCredentials reports whether an API key is available.
func (c *Config) HasCredentials() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// Validate checks values that would otherwise fail later with a less useful
// message.
func (c *Config) Validate() error {
	parsed, err := url.Parse(strings.TrimSpace(c.APIURL))
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("invalid api_url %q: must be an http(s) URL", c.APIURL)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("invalid timeout %s: must not be negative", c.Timeout)
	}
	if c.Retry.MaxRetries < 0 {
		return fmt.Errorf("invalid retry.max_retries %d: must not be negative", c.Retry.MaxRetries)
	}
	if c.RateLimit.MaxRequests < 0 {
		return fmt.Errorf("invalid rate_limit.max_requests %d: must not be negative", c.RateLimit.MaxRequests)
	}
	if c.RateLimit.MaxRequests > 0 && c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate_limit.window must be positive when rate_limit.max_requests is set")
	}
	if _, err := output.ParseFormat(c.Display.Format); err != nil {
		return fmt.Errorf("invalid display.format: %w", err)
	}
	return nil
}

// APIConfig converts the stored settings into request wrapper settings.
func (c *Config) APIConfig() api.Config {
	cfg := api.Config{
		BaseURL: strings.TrimSpace(c.APIURL),
		Timeout: c.Timeout,
		APIKey:  strings.TrimSpace(c.APIKey),
		Retry: &api.RetryPolicy{
			MaxRetries: c.Retry.MaxRetries,
			BaseDelay:  c.Retry.BaseDelay,
			MaxDelay:   c.Retry.MaxDelay,
			Multiplier: c.Retry.Multiplier,
		},
	}
	if c.RateLimit.MaxRequests > 0 {
		cfg.RateLimit = &api.RateLimit{
			MaxRequests: c.RateLimit.MaxRequests,
			Window:      c.RateLimit.Window,
		}
	}
	return cfg
}

// MaskedAPIKey returns the API key with all but its last four characters
// hidden.
func (c *Config) MaskedAPIKey() string {
	return MaskSecret(c.APIKey)
}

// MaskSecret hides all but the last four characters of value.
func MaskSecret(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	return strings.Repeat("*", 8) + value[len(value)-4:]
}

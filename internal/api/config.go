// Package api wraps an HTTP client with authentication, a rolling-window rate
// limit, retry with exponential backoff, and a small normalized error taxonomy.
//
// Every failure leaving this package is an *Error; callers branch on its Kind
// and StatusCode, never on transport-specific error types.
package api

import (
	"math"
	"net/http"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
)

const (
	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 3
	DefaultBaseDelay  = 1000 * time.Millisecond
	DefaultMaxDelay   = 10000 * time.Millisecond
	DefaultMultiplier = 2.0

	// APIKeyHeader carries the platform API key on every request.
	APIKeyHeader = "X-API-Key"
	// RequestIDHeader carries a per-attempt correlation id.
	RequestIDHeader = "X-Request-ID"
)

// Config configures a Client. Zero values fall back to package defaults.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	APIKey    string
	UserAgent string

	// Retry is the retry policy; nil selects DefaultRetryPolicy.
	Retry *RetryPolicy
	// RateLimit bounds requests per rolling window; nil disables limiting.
	RateLimit *RateLimit

	HTTPClient *http.Client
	Tracer     *Tracer
	Logger     *logging.Logger
}

// RetryPolicy controls how transient failures are retried.
//
// Invalid values are normalized:
//   - MaxRetries < 0 becomes 0 (single attempt)
//   - BaseDelay <= 0 becomes DefaultBaseDelay
//   - MaxDelay <= 0 becomes DefaultMaxDelay
//   - Multiplier < 1 becomes DefaultMultiplier
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
}

// DefaultRetryPolicy returns 3 retries starting at 1s, doubling, capped at 10s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: DefaultMaxRetries,
		BaseDelay:  DefaultBaseDelay,
		MaxDelay:   DefaultMaxDelay,
		Multiplier: DefaultMultiplier,
	}
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultBaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = DefaultMaxDelay
	}
	if p.Multiplier < 1 {
		p.Multiplier = DefaultMultiplier
	}
	return p
}

// Delay returns the wait before retry n (n >= 1):
// min(BaseDelay * Multiplier^(n-1), MaxDelay).
func (p RetryPolicy) Delay(n int) time.Duration {
	p = p.normalized()
	if n < 1 {
		n = 1
	}
	delay := float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(n-1))
	if delay >= float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(delay)
}

// RateLimit allows at most MaxRequests dispatches within any trailing Window.
type RateLimit struct {
	MaxRequests int
	Window      time.Duration
}

func (r *RateLimit) enabled() bool {
	return r != nil && r.MaxRequests > 0 && r.Window > 0
}

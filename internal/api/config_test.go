package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRetryPolicyDelay(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 3, BaseDelay: 100 * time.Millisecond, MaxDelay: 10 * time.Second, Multiplier: 2}

	require.Equal(t, 100*time.Millisecond, policy.Delay(1))
	require.Equal(t, 200*time.Millisecond, policy.Delay(2))
	require.Equal(t, 400*time.Millisecond, policy.Delay(3))
}

func TestRetryPolicyDelayCapped(t *testing.T) {
	policy := DefaultRetryPolicy()

	require.Equal(t, time.Second, policy.Delay(1))
	require.Equal(t, 2*time.Second, policy.Delay(2))
	require.Equal(t, 4*time.Second, policy.Delay(3))
	require.Equal(t, 8*time.Second, policy.Delay(4))
	require.Equal(t, 10*time.Second, policy.Delay(5))
	require.Equal(t, 10*time.Second, policy.Delay(30))
}

func TestRetryPolicyNormalized(t *testing.T) {
	policy := RetryPolicy{MaxRetries: -2, Multiplier: 0.5}.normalized()

	require.Equal(t, 0, policy.MaxRetries)
	require.Equal(t, DefaultBaseDelay, policy.BaseDelay)
	require.Equal(t, DefaultMaxDelay, policy.MaxDelay)
	require.Equal(t, DefaultMultiplier, policy.Multiplier)
	require.Equal(t, DefaultBaseDelay, policy.Delay(0))
}

func TestRateLimitEnabled(t *testing.T) {
	var nilLimit *RateLimit
	require.False(t, nilLimit.enabled())
	require.False(t, (&RateLimit{MaxRequests: 0, Window: time.Second}).enabled())
	require.False(t, (&RateLimit{MaxRequests: 2}).enabled())
	require.True(t, (&RateLimit{MaxRequests: 2, Window: time.Second}).enabled())
}

package api

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now   time.Time
	slept []time.Duration
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	f.slept = append(f.slept, d)
	f.now = f.now.Add(d)
	return ctx.Err()
}

func newFakeLimiter(maxRequests int, window time.Duration) (*windowLimiter, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	limiter := newWindowLimiter(&RateLimit{MaxRequests: maxRequests, Window: window})
	limiter.now = clock.Now
	limiter.sleep = clock.Sleep
	return limiter, clock
}

func TestWindowLimiterDisabled(t *testing.T) {
	require.Nil(t, newWindowLimiter(nil))
	require.Nil(t, newWindowLimiter(&RateLimit{MaxRequests: 0, Window: time.Second}))

	var limiter *windowLimiter
	require.NoError(t, limiter.Wait(context.Background()))
	require.Equal(t, 0, limiter.pending())
}

func TestWindowLimiterDelaysUntilOldestExits(t *testing.T) {
	limiter, clock := newFakeLimiter(2, time.Second)
	start := clock.now
	ctx := context.Background()

	require.NoError(t, limiter.Wait(ctx))
	clock.now = clock.now.Add(100 * time.Millisecond)
	require.NoError(t, limiter.Wait(ctx))
	clock.now = clock.now.Add(100 * time.Millisecond)
	require.Empty(t, clock.slept)

	require.NoError(t, limiter.Wait(ctx))
	require.Equal(t, []time.Duration{800 * time.Millisecond}, clock.slept)
	require.Equal(t, start.Add(time.Second), clock.now)
	require.Equal(t, 2, limiter.pending())
}

func TestWindowLimiterNeverExceedsMaxInWindow(t *testing.T) {
	limiter, clock := newFakeLimiter(3, time.Second)
	ctx := context.Background()

	admitted := make([]time.Time, 0, 10)
	for i := 0; i < 10; i++ {
		require.NoError(t, limiter.Wait(ctx))
		admitted = append(admitted, clock.now)
		clock.now = clock.now.Add(50 * time.Millisecond)
	}

	for i := range admitted {
		inWindow := 0
		for j := range admitted {
			if !admitted[j].After(admitted[i]) && admitted[i].Sub(admitted[j]) < time.Second {
				inWindow++
			}
		}
		require.LessOrEqual(t, inWindow, 3, "request %d", i)
	}
}

func TestWindowLimiterPrunesExpired(t *testing.T) {
	limiter, clock := newFakeLimiter(2, time.Second)
	ctx := context.Background()

	require.NoError(t, limiter.Wait(ctx))
	require.NoError(t, limiter.Wait(ctx))
	clock.now = clock.now.Add(time.Second)

	require.Equal(t, 0, limiter.pending())
	require.NoError(t, limiter.Wait(ctx))
	require.Empty(t, clock.slept)
}

func TestWindowLimiterCanceledWait(t *testing.T) {
	limiter, _ := newFakeLimiter(1, time.Minute)
	limiter.sleep = sleepContext

	require.NoError(t, limiter.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, limiter.Wait(ctx), context.Canceled)
}

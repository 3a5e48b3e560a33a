package api

import (
	"context"
	"sync"
	"time"
)

// windowLimiter keeps a log of dispatch timestamps and admits a request only
// when fewer than max fall inside the trailing window. Callers pass the gate
// one at a time, so a burst is released in arrival order.
type windowLimiter struct {
	mu     sync.Mutex
	max    int
	window time.Duration
	stamps []time.Time

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

func newWindowLimiter(limit *RateLimit) *windowLimiter {
	if !limit.enabled() {
		return nil
	}
	return &windowLimiter{
		max:    limit.MaxRequests,
		window: limit.Window,
		stamps: make([]time.Time, 0, limit.MaxRequests),
		now:    time.Now,
		sleep:  sleepContext,
	}
}

// Wait blocks until a dispatch slot is free, then records it.
func (l *windowLimiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for {
		now := l.now()
		l.prune(now)
		if len(l.stamps) < l.max {
			l.stamps = append(l.stamps, now)
			return nil
		}

		wait := l.stamps[0].Add(l.window).Sub(now)
		if wait <= 0 {
			continue
		}
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// prune drops timestamps that have left the window ending at now.
func (l *windowLimiter) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	keep := 0
	for keep < len(l.stamps) && !l.stamps[keep].After(cutoff) {
		keep++
	}
	if keep > 0 {
		l.stamps = append(l.stamps[:0], l.stamps[keep:]...)
	}
}

// pending returns the number of timestamps currently inside the window.
func (l *windowLimiter) pending() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(l.now())
	return len(l.stamps)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

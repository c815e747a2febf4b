package util

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter is a token bucket shared by goroutines that trigger expensive work,
// such as watch-driven re-analysis.
type Limiter struct {
	inner *rate.Limiter
}

// NewLimiter allows one event per interval with the given burst. A
// non-positive interval disables limiting.
func NewLimiter(interval time.Duration, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Limiter{inner: rate.NewLimiter(limit, burst)}
}

// Allow reports whether one event may happen now, consuming a token if so.
func (l *Limiter) Allow() bool {
	return l.inner.Allow()
}

// Delay reports how long the caller must wait before the next event is
// allowed, reserving the token.
func (l *Limiter) Delay() time.Duration {
	return l.inner.Reserve().Delay()
}

// Wait blocks until a token is available or ctx ends.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.inner.Wait(ctx)
}

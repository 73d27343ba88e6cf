// Package ratelimit paces outbound submissions per archiving service.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter enforces a minimum interval between requests to each service.
// Archive endpoints throttle aggressively, so one in-flight request per
// service with spacing between them is the safe default.
type Limiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	interval time.Duration
}

// New creates a Limiter. A non-positive interval disables pacing.
func New(minInterval time.Duration) *Limiter {
	return &Limiter{
		limiters: make(map[string]*rate.Limiter),
		interval: minInterval,
	}
}

// Wait blocks until the named service may issue its next request,
// respecting the context.
func (l *Limiter) Wait(ctx context.Context, service string) error {
	l.mu.Lock()
	limiter, ok := l.limiters[service]
	if !ok {
		r := rate.Inf
		if l.interval > 0 {
			r = rate.Every(l.interval)
		}
		limiter = rate.NewLimiter(r, 1)
		l.limiters[service] = limiter
	}
	l.mu.Unlock()

	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait for %s: %w", service, err)
	}
	return nil
}

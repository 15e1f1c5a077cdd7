package oracle

import (
	"context"
	"sync"
	"time"
)

// RateLimiter spaces oracle requests evenly at a fixed rate. Providers
// throttle hard, so pacing beats bursting for long runs.
type RateLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	next     time.Time
}

// NewRateLimiter allows rps requests per second.
func NewRateLimiter(rps int) *RateLimiter {
	if rps <= 0 {
		rps = 1
	}
	return &RateLimiter{interval: time.Second / time.Duration(rps)}
}

// Wait sleeps until the next request slot opens, or until ctx ends.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	now := time.Now()
	slot := r.next
	if slot.Before(now) {
		slot = now
	}
	r.next = slot.Add(r.interval)
	r.mu.Unlock()

	delay := time.Until(slot)
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

package githubapi

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// RateLimiter paces calls against the GitHub API quota
type RateLimiter interface {
	Wait(ctx context.Context) error
	UpdateLimit(remaining int, resetTime time.Time)
}

// restRateLimiter tracks the remaining REST quota reported by response
// headers and enforces a minimum spacing between requests.
type restRateLimiter struct {
	mu        sync.Mutex
	remaining int
	resetTime time.Time
	minDelay  time.Duration
	lastCall  time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter() RateLimiter {
	return &restRateLimiter{
		remaining: 5000, // GitHub REST default quota
		resetTime: time.Now().Add(time.Hour),
		minDelay:  50 * time.Millisecond,
	}
}

// Wait blocks until it is safe to make another API call
func (r *restRateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Near-exhausted quota: hold until the reported reset time
	if r.remaining <= 10 {
		waitDuration := time.Until(r.resetTime)
		if waitDuration > 0 {
			fmt.Printf("  Rate limit low (%d remaining), waiting %v until reset...\n", r.remaining, waitDuration.Round(time.Second))
			if err := r.sleepUnlocked(ctx, waitDuration); err != nil {
				return err
			}
		}
		r.remaining = 5000
		r.resetTime = time.Now().Add(time.Hour)
	}

	// Enforce minimum spacing between requests
	if elapsed := time.Since(r.lastCall); elapsed < r.minDelay {
		if err := r.sleepUnlocked(ctx, r.minDelay-elapsed); err != nil {
			return err
		}
	}

	r.lastCall = time.Now()
	return nil
}

// sleepUnlocked releases the mutex for the duration of the sleep.
// The caller must hold the mutex.
func (r *restRateLimiter) sleepUnlocked(ctx context.Context, d time.Duration) error {
	r.mu.Unlock()
	defer r.mu.Lock()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// UpdateLimit records the quota reported by API response headers
func (r *restRateLimiter) UpdateLimit(remaining int, resetTime time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.remaining = remaining
	r.resetTime = resetTime
}

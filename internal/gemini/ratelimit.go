package gemini

import (
	"context"
	"sync"
	"time"
)

// RateLimiter admits at most limit calls in any sliding window.
type RateLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	stamps []time.Time
	now    func() time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// Wait blocks until a slot is free or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	for {
		wait := r.reserve()
		if wait <= 0 {
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// reserve records a call and returns 0, or returns how long to wait.
func (r *RateLimiter) reserve() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	cutoff := now.Add(-r.window)
	kept := r.stamps[:0]
	for _, ts := range r.stamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	r.stamps = kept

	if len(r.stamps) < r.limit {
		r.stamps = append(r.stamps, now)
		return 0
	}
	return r.stamps[0].Add(r.window).Sub(now)
}

// InWindow returns how many calls were admitted in the current window.
func (r *RateLimiter) InWindow() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-r.window)
	n := 0
	for _, ts := range r.stamps {
		if ts.After(cutoff) {
			n++
		}
	}
	return n
}

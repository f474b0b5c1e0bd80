package providers

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is a token bucket shared by all calls to one remote backend.
// Capacity equals one second's worth of requests, with a floor of one token.
type RateLimiter struct {
	mu sync.Mutex

	rps        float64
	capacity   float64
	tokens     float64
	lastUpdate time.Time

	totalWaited time.Duration
}

// NewRateLimiter creates a limiter allowing rps requests per second.
// Non-positive rps disables limiting.
func NewRateLimiter(rps float64) *RateLimiter {
	capacity := max(1, rps)
	return &RateLimiter{
		rps:        rps,
		capacity:   capacity,
		tokens:     capacity,
		lastUpdate: time.Now(),
	}
}

// Wait blocks until a token is available or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if r == nil || r.rps <= 0 {
		return ctx.Err()
	}
	for {
		r.mu.Lock()
		r.refill()
		if r.tokens >= 1 {
			r.tokens--
			r.mu.Unlock()
			return nil
		}
		wait := time.Duration((1 - r.tokens) / r.rps * float64(time.Second))
		r.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
			r.mu.Lock()
			r.totalWaited += wait
			r.mu.Unlock()
		}
	}
}

// Drain empties the bucket, typically after a 429 response.
func (r *RateLimiter) Drain() {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens = 0
	r.lastUpdate = time.Now()
}

// TotalWaited reports the cumulative time callers spent blocked.
func (r *RateLimiter) TotalWaited() time.Duration {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.totalWaited
}

// refill adds tokens for elapsed time. Must be called with lock held.
func (r *RateLimiter) refill() {
	now := time.Now()
	r.tokens += now.Sub(r.lastUpdate).Seconds() * r.rps
	r.lastUpdate = now
	if r.tokens > r.capacity {
		r.tokens = r.capacity
	}
}

package google

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// defaultBackoff is applied when a 429 response carries no Retry-After hint.
const defaultBackoff = time.Minute

// RateLimitConfig tunes the request pacing for the Drive API.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate limit.
	RequestsPerSecond float64
	// BurstSize is the maximum burst size.
	BurstSize int
}

// DefaultRateLimit stays well below Google's 10/sec/user Drive quota so
// interactive calls and the scheduler can share one tenant's allowance.
var DefaultRateLimit = RateLimitConfig{RequestsPerSecond: 8.0, BurstSize: 10}

// RateLimiter paces Drive API requests with a token bucket and holds an
// additional backoff window after the API reports quota exhaustion.
type RateLimiter struct {
	mu      sync.Mutex
	bucket  *rate.Limiter
	retryAt time.Time
}

// NewRateLimiter creates a limiter for the given pacing configuration.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		bucket: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize),
	}
}

// Wait blocks until a request may proceed. A backoff window set by
// Backoff is honoured before the token bucket is consulted.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if remaining := r.backoffRemaining(); remaining > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(remaining):
		}
	}
	return r.bucket.Wait(ctx)
}

// Backoff suspends all requests for the given duration, typically the
// Retry-After value of a 429 response. A non-positive duration applies
// the default window.
func (r *RateLimiter) Backoff(after time.Duration) {
	if after <= 0 {
		after = defaultBackoff
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if until := time.Now().Add(after); until.After(r.retryAt) {
		r.retryAt = until
	}
}

func (r *RateLimiter) backoffRemaining() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return time.Until(r.retryAt)
}

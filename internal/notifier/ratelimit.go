package notifier

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter paces outbound posts to the push endpoint with a token
// bucket, so retry loops and forced re-runs cannot hammer ntfy.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter allows a sustained requestsPerSecond with bursts of up
// to burst immediate requests.
func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst)}
}

// Allow blocks until a token is available or ctx is canceled.
func (r *RateLimiter) Allow(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

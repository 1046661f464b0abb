package httpclient

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter throttles outbound fetches using a token bucket, independent
// of the pipeline's post-wise concurrency cap: concurrency bounds how many
// fetches run at once, this bounds how many start per second.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter builds a limiter allowing requestsPerSecond sustained,
// with up to burst requests admitted immediately.
func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst)}
}

// Allow blocks until a token is available or ctx is done.
func (r *RateLimiter) Allow(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

package worker

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter throttles calls to a single external endpoint, such as an
// embedding provider's batch API.
type Limiter struct {
	limiter *rate.Limiter
}

// NewLimiter creates a limiter allowing the given requests per second with
// the given burst. Non-positive rates disable throttling.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if requestsPerSecond <= 0 {
		return &Limiter{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst)}
}

// Wait blocks until a request may proceed or the context ends.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Allow reports whether a request may proceed without waiting.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

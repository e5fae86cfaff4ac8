package reaper

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces out log group evaluations to stay under the CloudWatch Logs API rate limits.
type Pacer interface {
	Wait(ctx context.Context) error
}

// RatePacer is a token bucket with a burst of one: the first Wait returns at
// once and every following Wait returns no sooner than interval after the previous one.
type RatePacer struct {
	limiter *rate.Limiter
}

// NewRatePacer creates a pacer allowing one evaluation per interval.
// A zero or negative interval disables pacing.
func NewRatePacer(interval time.Duration) *RatePacer {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &RatePacer{
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Wait blocks until the next evaluation may start or ctx is done.
func (p *RatePacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimited throttles calls to a Generator so a batch fan-out stays within provider quotas.
type RateLimited struct {
	inner   Generator
	limiter *rate.Limiter
}

// NewRateLimited allows rps calls per second with the given burst.
func NewRateLimited(inner Generator, rps float64, burst int) *RateLimited {
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{inner: inner, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Generate waits for a token, then delegates. A cancelled wait returns the context error.
func (r *RateLimited) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}
	return r.inner.Generate(ctx, prompt, opts)
}

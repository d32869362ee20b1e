package llm

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/maesd-ai/maesd/pkg/errors"
)

// RateLimitedProvider throttles chat calls to the configured requests per
// minute, matching the RPM config key. Waiting respects context
// cancellation.
type RateLimitedProvider struct {
	next    Provider
	limiter *rate.Limiter
}

// NewRateLimitedProvider wraps next with an RPM limiter. rpm must be > 0.
func NewRateLimitedProvider(next Provider, rpm int) *RateLimitedProvider {
	interval := time.Minute / time.Duration(rpm)
	return &RateLimitedProvider{
		next:    next,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Chat implements Provider.
func (rp *RateLimitedProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if err := rp.limiter.Wait(ctx); err != nil {
		return nil, errors.New(errors.CodeRateLimit, "rate limiter wait aborted", err).
			WithRecoverable(false)
	}
	return rp.next.Chat(ctx, req)
}

var _ Provider = (*RateLimitedProvider)(nil)

// File: internal/llmclient/ratelimit.go
package llmclient

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/knakar/replyvet/api/schemas"
)

// RateLimitedClient wraps an LLMClient with a token-bucket limiter shared
// across all callers. Waiting respects the caller's context, so a session
// timeout still fires while queued behind the limiter.
type RateLimitedClient struct {
	inner   schemas.LLMClient
	limiter *rate.Limiter
}

// NewRateLimiter builds the token bucket for requestsPerMinute. A
// non-positive rate disables limiting and returns nil.
func NewRateLimiter(requestsPerMinute float64) *rate.Limiter {
	if requestsPerMinute <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(requestsPerMinute/60.0), 1)
}

// NewRateLimitedClient wraps inner with the given limiter. The limiter is
// shared by every client wrapped with it, so one bucket caps the drafter
// and the critic together. A nil limiter returns the inner client
// unchanged.
func NewRateLimitedClient(inner schemas.LLMClient, limiter *rate.Limiter) schemas.LLMClient {
	if limiter == nil {
		return inner
	}
	return &RateLimitedClient{inner: inner, limiter: limiter}
}

// Complete waits for a limiter slot, then delegates.
func (c *RateLimitedClient) Complete(ctx context.Context, req schemas.CompletionRequest) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter wait: %w", err)
	}
	return c.inner.Complete(ctx, req)
}

package llm

import (
	"context"
	"errors"
	"time"

	"github.com/plancraft/plancraft"
	"github.com/plancraft/plancraft/backoff"
)

// RetryingClient wraps a Client and retries rate-limited completions
// with a backoff strategy. Other error categories are returned
// immediately; the pipeline handles those through degradation or
// failure instead of blind retries.
type RetryingClient struct {
	inner       Client
	strategy    backoff.Strategy
	maxAttempts int
}

// WithRetry wraps c so that RATE_LIMIT_ERROR completions are retried
// up to maxAttempts times, sleeping per the strategy between attempts.
// A nil strategy uses backoff.DefaultStrategy; maxAttempts < 1 is
// treated as 1 (no retries).
func WithRetry(c Client, strategy backoff.Strategy, maxAttempts int) *RetryingClient {
	if strategy == nil {
		strategy = backoff.DefaultStrategy()
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &RetryingClient{inner: c, strategy: strategy, maxAttempts: maxAttempts}
}

// Complete delegates to the wrapped client, retrying on rate limits.
func (r *RetryingClient) Complete(ctx context.Context, req Request) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		out, err := r.inner.Complete(ctx, req)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if plancraft.Classify(err) != plancraft.CategoryRateLimit || attempt == r.maxAttempts {
			return "", err
		}
		timer := time.NewTimer(r.strategy.Delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", errors.Join(ctx.Err(), lastErr)
		case <-timer.C:
		}
	}
	return "", lastErr
}

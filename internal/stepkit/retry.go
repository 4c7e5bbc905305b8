package stepkit

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/coagents/workflow-engine/internal/node"
	"github.com/coagents/workflow-engine/internal/wferrors"
)

// DefaultRetryable matches spec.md §4.6's default predicate: retry
// everything except user cancellation and interruption-style errors.
func DefaultRetryable(err error) bool {
	return !errors.Is(err, wferrors.ErrCancelled) && !errors.Is(err, wferrors.ErrNotSuspended)
}

// WithRetry runs op up to policy.MaxAttempts times, sleeping
// policy.Backoff between attempts, stopping early if policy.Retryable (or
// DefaultRetryable when nil) returns false for the error. Grounded on
// retry.py's with_retry and internal/node.RetryPolicy.Backoff's
// formula (spec.md §4.6's literal
// initial_delay * backoff_factor^(attempt-1), capped at max_delay).
func WithRetry(ctx context.Context, policy node.RetryPolicy, rng *rand.Rand, op func(ctx context.Context) error) error {
	retryable := policy.Retryable
	if retryable == nil {
		retryable = DefaultRetryable
	}
	maxAttempts := policy.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) || attempt == maxAttempts {
			return lastErr
		}
		delay := policy.Backoff(attempt, rng)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}

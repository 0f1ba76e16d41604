package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

// Policy bounds a retry sequence. Delays grow as
// initial * multiplier^(attempt-1), capped at MaxDelay, unless the failed
// attempt carried a server-supplied retry hint, which takes precedence.
type Policy struct {
	// MaxRetries is the total number of invocations allowed, including the first.
	MaxRetries int `mapstructure:"max_retries" default:"5"`
	// InitialDelay is the delay before the second invocation.
	InitialDelay time.Duration `mapstructure:"initial_delay" default:"500ms"`
	// MaxDelay caps the computed delay between invocations.
	MaxDelay time.Duration `mapstructure:"max_delay" default:"30s"`
	// Multiplier is the exponential growth factor.
	Multiplier float64 `mapstructure:"multiplier" default:"2"`
}

// Classifier decides whether an error is worth retrying. Authentication and
// validation failures must return false; transient network and quota errors
// return true.
type Classifier func(error) bool

// Hinted is implemented by errors that carry a server-supplied wait duration
// (HTTP 429 Retry-After, quota window reset). The hint overrides the
// computed backoff delay for the next attempt.
type Hinted interface {
	RetryAfterHint() time.Duration
}

// Executor wraps operations with bounded exponential-backoff retry.
// Construct one per concern and inject it; the classifier is fixed at
// construction so call sites cannot disagree about what is retryable.
type Executor struct {
	logger    *zap.Logger
	retryable Classifier
}

// NewExecutor creates an Executor. A nil classifier treats every error as
// retryable.
func NewExecutor(logger *zap.Logger, retryable Classifier) *Executor {
	if retryable == nil {
		retryable = func(error) bool { return true }
	}
	return &Executor{logger: logger, retryable: retryable}
}

// Do invokes op until it succeeds, a non-retryable error occurs, the policy
// is exhausted, or ctx is cancelled. Backoff waits are timer-based and only
// suspend the calling goroutine. On terminal failure the last error is
// returned wrapped with the attempt count; the supplied fields are attached
// to every attempt log so terminal failures are attributable without caller
// bookkeeping.
func Do[T any](ctx context.Context, e *Executor, policy Policy, op func() (T, error), fields ...zap.Field) (T, error) {
	var zero T

	maxTries := policy.MaxRetries
	if maxTries < 1 {
		maxTries = 1
	}

	var lastErr error
	attempts := 0

	wrapped := func() (T, error) {
		attempts++
		v, err := op()
		if err == nil {
			return v, nil
		}
		lastErr = err

		if !e.retryable(err) {
			return zero, backoff.Permanent(err)
		}

		var hinted Hinted
		if errors.As(err, &hinted) {
			return zero, &backoff.RetryAfterError{Duration: hinted.RetryAfterHint()}
		}
		return zero, err
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = policy.InitialDelay
	expo.MaxInterval = policy.MaxDelay
	expo.Multiplier = policy.Multiplier

	notify := func(err error, wait time.Duration) {
		e.logger.Warn("operation failed, backing off",
			append([]zap.Field{
				zap.Error(err),
				zap.Int("attempt", attempts),
				zap.Duration("wait", wait),
			}, fields...)...)
	}

	result, err := backoff.Retry(ctx, wrapped,
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(uint(maxTries)),
		backoff.WithNotify(notify),
	)
	if err != nil {
		if lastErr == nil {
			lastErr = err
		}
		e.logger.Error("operation failed permanently",
			append([]zap.Field{zap.Error(lastErr), zap.Int("attempts", attempts)}, fields...)...)
		return zero, fmt.Errorf("failed after %d attempt(s): %w", attempts, lastErr)
	}

	return result, nil
}

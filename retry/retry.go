package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/instarank/instarank/logging"
)

// Operation is a function that may need retrying.
type Operation func() error

// OperationWithResult is an operation that also produces a result.
type OperationWithResult[T any] func() (T, error)

// Config holds retry configuration.
type Config struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// Backoff strategy between attempts.
	Backoff BackoffStrategy
	// RetryIf decides whether an error is worth retrying.
	RetryIf func(error) bool
	// Logger for retry attempts.
	Logger logging.Logger
}

// DefaultConfig returns a retry configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts: 3,
		Backoff:     DefaultExponentialBackoff(),
		RetryIf:     DefaultRetryIf,
		Logger:      logging.NoOpLogger{},
	}
}

// DefaultRetryIf retries everything except context cancellation.
func DefaultRetryIf(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}

// Do executes op, retrying per cfg until it succeeds, the attempt budget is
// exhausted or ctx is cancelled.
func Do(ctx context.Context, op Operation, cfg *Config) error {
	_, err := DoWithResult(ctx, func() (struct{}, error) { return struct{}{}, op() }, cfg)
	return err
}

// DoWithResult executes op with retry logic and returns its result.
func DoWithResult[T any](ctx context.Context, op OperationWithResult[T], cfg *Config) (T, error) {
	var zero T
	if cfg == nil {
		cfg = DefaultConfig()
	}
	retryIf := cfg.RetryIf
	if retryIf == nil {
		retryIf = DefaultRetryIf
	}
	backoff := cfg.Backoff
	if backoff == nil {
		backoff = DefaultExponentialBackoff()
	}
	log := cfg.Logger
	if log == nil {
		log = logging.NoOpLogger{}
	}

	var lastErr error
	for attempt := 1; cfg.MaxAttempts <= 0 || attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := op()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !retryIf(err) {
			return zero, err
		}
		if cfg.MaxAttempts > 0 && attempt == cfg.MaxAttempts {
			break
		}

		delay := backoff.NextDelay(attempt)
		log.Warn("operation failed, retrying", "attempt", attempt, "delay", delay.String(), "error", err.Error())

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}

	return zero, fmt.Errorf("all %d attempts failed: %w", cfg.MaxAttempts, lastErr)
}

package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(maxAttempts int) *Config {
	cfg := DefaultConfig()
	cfg.MaxAttempts = maxAttempts
	cfg.Backoff = &ConstantBackoff{Delay: time.Millisecond}
	return cfg
}

func TestDoWithResult_SucceedsAfterTransientFailure(t *testing.T) {
	attempts := 0
	result, err := DoWithResult(context.Background(), func() (string, error) {
		attempts++
		if attempts < 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	}, fastConfig(5))

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, attempts)
}

func TestDoWithResult_ExhaustsAttempts(t *testing.T) {
	attempts := 0
	_, err := DoWithResult(context.Background(), func() (int, error) {
		attempts++
		return 0, errors.New("persistent")
	}, fastConfig(3))

	require.Error(t, err)
	assert.Equal(t, 3, attempts)
	assert.Contains(t, err.Error(), "all 3 attempts failed")
	assert.ErrorContains(t, err, "persistent")
}

func TestDoWithResult_RetryIfStopsEarly(t *testing.T) {
	cfg := fastConfig(5)
	permanent := errors.New("permanent")
	cfg.RetryIf = func(err error) bool { return !errors.Is(err, permanent) }

	attempts := 0
	_, err := DoWithResult(context.Background(), func() (int, error) {
		attempts++
		return 0, permanent
	}, cfg)

	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, attempts)
}

func TestDoWithResult_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	_, err := DoWithResult(ctx, func() (int, error) {
		attempts++
		return 0, errors.New("never reached")
	}, fastConfig(3))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, attempts)
}

func TestDo_DelegatesToDoWithResult(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		return nil
	}, fastConfig(3))

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDefaultRetryIf(t *testing.T) {
	assert.False(t, DefaultRetryIf(nil))
	assert.False(t, DefaultRetryIf(context.Canceled))
	assert.False(t, DefaultRetryIf(context.DeadlineExceeded))
	assert.True(t, DefaultRetryIf(errors.New("anything else")))
}

func TestExponentialBackoff_NextDelay(t *testing.T) {
	eb := &ExponentialBackoff{
		BaseDelay:  time.Second,
		MaxDelay:   10 * time.Second,
		Multiplier: 2.0,
	}

	assert.Equal(t, time.Duration(0), eb.NextDelay(0))
	assert.Equal(t, time.Second, eb.NextDelay(1))
	assert.Equal(t, 2*time.Second, eb.NextDelay(2))
	assert.Equal(t, 4*time.Second, eb.NextDelay(3))
	// capped
	assert.Equal(t, 10*time.Second, eb.NextDelay(10))
}

func TestExponentialBackoff_JitterStaysInRange(t *testing.T) {
	eb := &ExponentialBackoff{
		BaseDelay:    time.Second,
		MaxDelay:     time.Minute,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}

	for i := 0; i < 50; i++ {
		d := eb.NextDelay(1)
		assert.GreaterOrEqual(t, d, 900*time.Millisecond)
		assert.LessOrEqual(t, d, 1100*time.Millisecond)
	}
}

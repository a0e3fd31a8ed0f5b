package vectorindex

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRetryService(maxRetries int, timeout time.Duration) *RetryService {
	cfg := DefaultConfig()
	cfg.MaxRetries = maxRetries
	cfg.RetryDelay = time.Millisecond
	cfg.Timeout = timeout
	return NewRetryService(cfg, noopLogger{})
}

func TestRetryService_SucceedsAfterTransientFailures(t *testing.T) {
	r := testRetryService(3, time.Second)
	calls := 0
	err := r.RetryWithTimeout(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryService_GivesUp(t *testing.T) {
	r := testRetryService(2, time.Second)
	calls := 0
	err := r.RetryWithTimeout(context.Background(), func(ctx context.Context) error {
		calls++
		return errors.New("still down")
	})
	var idxErr *IndexError
	require.ErrorAs(t, err, &idxErr)
	assert.Equal(t, ErrTypeRetry, idxErr.Type)
	assert.Equal(t, 3, calls)
}

func TestRetryService_PermanentErrorNotRetried(t *testing.T) {
	r := testRetryService(5, time.Second)
	calls := 0
	err := r.RetryWithTimeout(context.Background(), func(ctx context.Context) error {
		calls++
		return NewDimensionError(3, 2)
	})
	var idxErr *IndexError
	require.ErrorAs(t, err, &idxErr)
	assert.Equal(t, ErrTypeDimension, idxErr.Type)
	assert.Equal(t, 1, calls)
}

func TestRetryService_Timeout(t *testing.T) {
	r := testRetryService(10, 20*time.Millisecond)
	err := r.RetryWithTimeout(context.Background(), func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	var idxErr *IndexError
	require.ErrorAs(t, err, &idxErr)
	assert.Equal(t, ErrTypeTimeout, idxErr.Type)
}

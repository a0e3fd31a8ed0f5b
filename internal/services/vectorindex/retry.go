// File: internal/services/vectorindex/retry.go
package vectorindex

import (
	"context"
	"errors"

	"github.com/sethvargo/go-retry"
)

type RetryService struct {
	config *Config
	logger Logger
}

func NewRetryService(config *Config, logger Logger) *RetryService {
	return &RetryService{
		config: config,
		logger: logger,
	}
}

// RetryWithTimeout runs call under config.Timeout with exponential backoff.
// Dimension and config errors are returned without retrying.
func (r *RetryService) RetryWithTimeout(ctx context.Context, call func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	attempt := 0
	backoff := retry.WithMaxRetries(uint64(r.config.MaxRetries), retry.NewExponential(r.config.RetryDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			r.logger.Debug("retrying operation", "attempt", attempt, "max_retries", r.config.MaxRetries)
		}
		err := call(ctx)
		if err == nil {
			if attempt > 1 {
				r.logger.Info("operation succeeded after retry", "attempts", attempt)
			}
			return nil
		}
		if isPermanent(err) || ctx.Err() != nil {
			return err
		}
		r.logger.Warn("operation failed, retrying", "attempt", attempt, "error", err)
		return retry.RetryableError(err)
	})
	if err == nil {
		return nil
	}

	if isPermanent(err) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || ctx.Err() != nil {
		return NewTimeoutError("operation timed out", err)
	}
	r.logger.Error("operation failed after all retries", "attempts", attempt, "error", err)
	return NewRetryError("operation failed after all retries", err)
}

package translator

import (
	"context"
	"errors"
	"strings"
	"time"

	"pdf-inplace-translator/internal/logger"
	"pdf-inplace-translator/internal/types"
)

const (
	// DefaultMaxRetries is the number of extra attempts after the first call
	DefaultMaxRetries = 2
	// BaseRetryDelay is the delay before the first retry
	BaseRetryDelay = 500 * time.Millisecond
	maxRetryDelay  = 30 * time.Second
)

// RetryPolicy retries transient provider failures with exponential backoff
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// DefaultRetryPolicy returns the policy used when none is configured
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: DefaultMaxRetries, BaseDelay: BaseRetryDelay}
}

// calculateBackoffDelay doubles the delay with each attempt, capped at 30 seconds.
// attempt is 1-based.
func (r RetryPolicy) calculateBackoffDelay(attempt int) time.Duration {
	base := r.BaseDelay
	if base <= 0 {
		base = BaseRetryDelay
	}
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 16 {
		return maxRetryDelay
	}
	delay := base * time.Duration(1<<uint(attempt-1))
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}
	return delay
}

// do calls fn until it succeeds, fails with a non-retryable error, runs out of
// attempts or ctx is done.
func (r RetryPolicy) do(ctx context.Context, provider string, fn func(context.Context) (string, error)) (string, error) {
	attempts := r.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		out, err := fn(ctx)
		if err == nil {
			return out, nil
		}
		lastErr = err

		if !isRetryableError(err) || attempt == attempts {
			break
		}

		delay := r.calculateBackoffDelay(attempt)
		logger.Debug("retrying translation",
			logger.String("provider", provider),
			logger.Int("attempt", attempt),
			logger.String("delay", delay.String()),
			logger.Err(err))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
		}
	}
	return "", lastErr
}

// isRetryableError determines if an error should trigger a retry.
// Retryable: network errors, rate limits (429) and server errors (5xx).
// Not retryable: authentication failures, invalid requests and cancellation.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var appErr *types.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case types.ErrNetwork, types.ErrAPIRateLimit:
			return true
		case types.ErrAPICall:
			return strings.Contains(appErr.Details, "status 5")
		default:
			return false
		}
	}

	// errors from client libraries, matched on their text
	errStr := strings.ToLower(err.Error())
	for _, s := range []string{"429", "rate limit", "status code: 5", "connection", "timeout", "network", "eof", "reset by peer"} {
		if strings.Contains(errStr, s) {
			return true
		}
	}
	return false
}

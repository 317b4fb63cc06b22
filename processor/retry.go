package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

var errPending = errors.New("pending")

// Retry calls op up to attempts times with a fixed delay between calls.
// Only errors classified by IsRetryable are retried. When attempts run out
// the last error is returned wrapped.
func Retry(ctx context.Context, attempts int, delay time.Duration, log *slog.Logger, op func(ctx context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}
	n := 0
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(delay), uint64(attempts-1)), ctx)
	err := backoff.RetryNotify(func() error {
		n++
		err := op(ctx)
		if err != nil && !IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, b, func(err error, next time.Duration) {
		if log != nil {
			log.Debug("retrying", "attempt", n, "next", next, "error", err)
		}
	})
	if err != nil && n >= attempts && IsRetryable(err) {
		return fmt.Errorf("operation failed after %d attempts: %w", attempts, err)
	}
	return err
}

// Poll calls check every interval until it reports done, returns a
// non-retryable error, or timeout elapses. Running out of time yields an
// error matching ErrTimeout; cancellation of ctx itself is returned as is.
func Poll(ctx context.Context, interval, timeout time.Duration, check func(ctx context.Context) (bool, error)) error {
	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var last error
	err := backoff.Retry(func() error {
		done, err := check(pctx)
		switch {
		case err != nil && IsRetryable(err):
			last = err
			return err
		case err != nil:
			return backoff.Permanent(err)
		case !done:
			return errPending
		}
		return nil
	}, backoff.WithContext(backoff.NewConstantBackOff(interval), pctx))
	if err == nil {
		return nil
	}
	if ctx.Err() == nil && errors.Is(pctx.Err(), context.DeadlineExceeded) {
		if last != nil {
			return fmt.Errorf("%w after %s: %w", ErrTimeout, timeout, last)
		}
		return fmt.Errorf("%w after %s", ErrTimeout, timeout)
	}
	return err
}

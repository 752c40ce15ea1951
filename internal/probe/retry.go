package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// SleepFunc waits for d or until ctx ends.
type SleepFunc func(ctx context.Context, d time.Duration) error

// attemptFunc performs one HTTP attempt.
type attemptFunc func(ctx context.Context) (*http.Response, error)

// retryFunc observes a retry decision before the backoff sleep.
type retryFunc func(attempt int, wait time.Duration, statusCode int, err error)

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("backoff interrupted: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

// retry runs do until the policy declines another attempt or ctx ends.
// It returns the last response or error; a response is returned with its body open.
func retry(ctx context.Context, policy RetryPolicy, sleep SleepFunc, do attemptFunc, onRetry retryFunc) (*http.Response, error) {
	for attempt := 1; ; attempt++ {
		resp, err := do(ctx)
		status := 0
		if err == nil && resp != nil {
			status = resp.StatusCode
		}
		if !policy.ShouldRetry(status, err, attempt) || ctx.Err() != nil {
			return resp, err
		}

		wait := policy.Backoff(attempt)
		if onRetry != nil {
			onRetry(attempt, wait, status, err)
		}
		discard(resp)
		if err := sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
}

// discard drains a bounded amount of the body so the connection can be reused.
func discard(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.CopyN(io.Discard, resp.Body, 64<<10)
	_ = resp.Body.Close()
}

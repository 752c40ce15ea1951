package probe

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newResponse(status int) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Body:       io.NopCloser(strings.NewReader("body")),
	}
}

type recordingSleep struct {
	waits []time.Duration
	err   error
}

func (s *recordingSleep) sleep(_ context.Context, d time.Duration) error {
	s.waits = append(s.waits, d)
	return s.err
}

func TestRetryRecoversAfterTransientStatus(t *testing.T) {
	t.Parallel()

	statuses := []int{http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusOK}
	calls := 0
	do := func(context.Context) (*http.Response, error) {
		resp := newResponse(statuses[calls])
		calls++
		return resp, nil
	}
	var retried []int
	onRetry := func(attempt int, _ time.Duration, status int, _ error) {
		retried = append(retried, status)
		require.Equal(t, len(retried), attempt)
	}
	sleeper := &recordingSleep{}

	resp, err := retry(context.Background(), NewExponentialRetryPolicy(3, time.Millisecond, 0), sleeper.sleep, do, onRetry)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 3, calls)
	require.Equal(t, []int{http.StatusServiceUnavailable, http.StatusBadGateway}, retried)
	require.Equal(t, []time.Duration{2 * time.Millisecond, 4 * time.Millisecond}, sleeper.waits)
}

func TestRetryReturnsLastStatusWhenExhausted(t *testing.T) {
	t.Parallel()

	calls := 0
	do := func(context.Context) (*http.Response, error) {
		calls++
		return newResponse(http.StatusServiceUnavailable), nil
	}
	sleeper := &recordingSleep{}

	resp, err := retry(context.Background(), NewExponentialRetryPolicy(2, time.Millisecond, 0), sleeper.sleep, do, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	require.Equal(t, 3, calls)
	require.Len(t, sleeper.waits, 2)
}

func TestRetryStopsWhenSleepFails(t *testing.T) {
	t.Parallel()

	calls := 0
	do := func(context.Context) (*http.Response, error) {
		calls++
		return nil, errors.New("connection reset")
	}
	sleeper := &recordingSleep{err: context.DeadlineExceeded}

	resp, err := retry(context.Background(), NewExponentialRetryPolicy(3, time.Millisecond, 0), sleeper.sleep, do, nil)
	require.Nil(t, resp)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, 1, calls)
}

func TestRetryStopsWhenContextDone(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	do := func(context.Context) (*http.Response, error) {
		calls++
		cancel()
		return nil, errors.New("connection reset")
	}

	_, err := retry(ctx, NewExponentialRetryPolicy(3, time.Millisecond, 0), sleepContext, do, nil)
	require.Error(t, err)
	require.Equal(t, 1, calls)
}

func TestSleepContext(t *testing.T) {
	t.Parallel()

	require.NoError(t, sleepContext(context.Background(), time.Millisecond))
	require.NoError(t, sleepContext(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := sleepContext(ctx, time.Hour)
	require.ErrorIs(t, err, context.Canceled)
}

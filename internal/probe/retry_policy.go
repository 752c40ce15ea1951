package probe

import (
	"context"
	"crypto/rand"
	"errors"
	"math"
	"math/big"
	"net/http"
	"time"
)

// ErrNotRetryable marks attempt errors that must not be retried.
var ErrNotRetryable = errors.New("not retryable")

// retryableStatus lists the response codes treated as transient.
var retryableStatus = map[int]bool{
	http.StatusRequestTimeout:      true,
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// RetryPolicy decides whether a finished attempt is retried and how long to wait first.
// Attempts are numbered from 1.
type RetryPolicy interface {
	ShouldRetry(statusCode int, err error, attempt int) bool
	Backoff(attempt int) time.Duration
	MaxRetries() int
}

// ExponentialRetryPolicy implements RetryPolicy with base*2^attempt backoff plus jitter.
type ExponentialRetryPolicy struct {
	maxRetries int
	baseDelay  time.Duration
	maxJitter  time.Duration
	jitter     func(limit time.Duration) time.Duration
}

// NewExponentialRetryPolicy builds a policy allowing maxRetries retries after the first attempt.
func NewExponentialRetryPolicy(maxRetries int, baseDelay, maxJitter time.Duration) *ExponentialRetryPolicy {
	return &ExponentialRetryPolicy{
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		maxJitter:  maxJitter,
		jitter:     randomJitter,
	}
}

// MaxRetries reports how many retries follow the first attempt.
func (p *ExponentialRetryPolicy) MaxRetries() int {
	return p.maxRetries
}

// ShouldRetry retries transport errors and transient status codes until the budget is spent.
func (p *ExponentialRetryPolicy) ShouldRetry(statusCode int, err error, attempt int) bool {
	if attempt > p.maxRetries {
		return false
	}
	if err != nil {
		return !errors.Is(err, ErrNotRetryable) &&
			!errors.Is(err, context.Canceled)
	}
	return retryableStatus[statusCode]
}

// Backoff returns the wait before retry number attempt.
func (p *ExponentialRetryPolicy) Backoff(attempt int) time.Duration {
	delay := time.Duration(float64(p.baseDelay) * math.Pow(2, float64(attempt)))
	return delay + p.jitter(p.maxJitter)
}

// randomJitter returns a uniform duration in [0, limit).
func randomJitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(limit)))
	if err != nil {
		return limit / 2
	}
	return time.Duration(n.Int64())
}

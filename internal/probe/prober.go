// Package probe checks destination URLs over HTTP with retries and a watchdog timeout.
package probe

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/aka-exporter/internal/links"
	"github.com/JakeFAU/aka-exporter/internal/metrics"
)

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Limiter throttles attempts per destination.
type Limiter interface {
	Wait(ctx context.Context, url string) error
}

// Config controls probe behavior.
type Config struct {
	// Timeout bounds a whole probe including retries and backoff.
	Timeout   time.Duration
	UserAgent string
}

// Prober implements links.Prober.
type Prober struct {
	client  Doer
	policy  RetryPolicy
	limiter Limiter
	sleep   SleepFunc
	cfg     Config
	logger  *zap.Logger
}

// New constructs a Prober. limiter may be nil.
func New(client Doer, policy RetryPolicy, limiter Limiter, cfg Config, logger *zap.Logger) *Prober {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Prober{
		client:  client,
		policy:  policy,
		limiter: limiter,
		sleep:   sleepContext,
		cfg:     cfg,
		logger:  logger,
	}
}

// Probe issues a GET against url and classifies the outcome. It always returns.
func (p *Prober) Probe(ctx context.Context, url string) links.ProbeResult {
	start := time.Now()
	watchdog, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	result := p.probe(ctx, watchdog, url)
	metrics.ObserveProbe(string(links.ClassOf(result.StatusCode)), time.Since(start))
	return result
}

func (p *Prober) probe(parent, watchdog context.Context, url string) links.ProbeResult {
	req, err := http.NewRequestWithContext(watchdog, http.MethodGet, url, nil)
	if err != nil {
		p.logger.Error("probe request invalid", zap.String("url", url), zap.Error(err))
		return links.ProbeResult{StatusCode: links.NoResponse, StatusLine: ReasonUnexpected}
	}
	if p.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", p.cfg.UserAgent)
	}

	attempt := func(ctx context.Context) (*http.Response, error) {
		if p.limiter != nil {
			if err := p.limiter.Wait(ctx, url); err != nil {
				return nil, fmt.Errorf("%w: %w: %w", ErrNotRetryable, errBudget, err)
			}
		}
		return p.client.Do(req.Clone(ctx))
	}
	onRetry := func(n int, wait time.Duration, status int, err error) {
		metrics.ObserveRetry()
		reason := http.StatusText(status)
		if err != nil {
			reason = err.Error()
		}
		p.logger.Warn("retrying probe",
			zap.String("url", url),
			zap.String("attempt", fmt.Sprintf("%d/%d", n, p.policy.MaxRetries())),
			zap.Int64("wait_ms", wait.Milliseconds()),
			zap.Int("status", status),
			zap.String("reason", reason),
		)
	}

	resp, err := retry(watchdog, p.policy, p.sleep, attempt, onRetry)
	if err != nil {
		reason := classifyFailure(parent, watchdog, err)
		p.logger.Error("probe failed",
			zap.String("url", url),
			zap.String("reason", reason),
			zap.Int("max_retries", p.policy.MaxRetries()),
			zap.Error(err),
		)
		return links.ProbeResult{StatusCode: links.NoResponse, StatusLine: reason}
	}
	defer discard(resp)

	result := links.ProbeResult{StatusCode: resp.StatusCode, StatusLine: statusLine(resp)}
	if result.StatusCode >= http.StatusBadRequest {
		p.logger.Error("probe returned error status",
			zap.String("url", url),
			zap.Int("status", result.StatusCode),
			zap.String("status_line", result.StatusLine),
		)
	}
	return result
}

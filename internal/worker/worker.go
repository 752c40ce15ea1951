// Package worker probes queued records and emits report rows.
package worker

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/aka-exporter/internal/links"
	"github.com/JakeFAU/aka-exporter/internal/metrics"
	"github.com/JakeFAU/aka-exporter/internal/probe"
	"github.com/JakeFAU/aka-exporter/internal/queue/memory"
)

// Worker consumes queued records and probes their destination URL.
type Worker struct {
	queue  links.Queue
	prober links.Prober
	logger *zap.Logger
}

// New constructs a Worker.
func New(queue links.Queue, prober links.Prober, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		queue:  queue,
		prober: prober,
		logger: logger,
	}
}

// Run blocks, consuming records until the queue is closed and drained.
// Dequeueing ignores cancellation of ctx so every record already read is reported;
// probes still observe ctx and resolve promptly once it is cancelled.
func (w *Worker) Run(ctx context.Context, results chan<- links.ReportRow) {
	detached := context.WithoutCancel(ctx)
	for {
		rec, err := w.queue.Dequeue(detached)
		if err != nil {
			if !errors.Is(err, memory.ErrClosed) {
				w.logger.Error("queue dequeue failed", zap.Error(err))
			}
			return
		}
		results <- links.ReportRow{Record: rec, ProbeResult: w.probe(ctx, rec)}
	}
}

func (w *Worker) probe(ctx context.Context, rec links.Record) (result links.ProbeResult) {
	metrics.IncActiveProbes()
	defer metrics.DecActiveProbes()
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("probe panicked",
				zap.String("aka_link", rec.AkaLink),
				zap.String("url", rec.URL),
				zap.String("panic", fmt.Sprint(r)),
			)
			result = links.ProbeResult{StatusCode: links.NoResponse, StatusLine: probe.ReasonUnexpected}
		}
	}()

	result = w.prober.Probe(ctx, rec.URL)
	w.logger.Debug("probed link",
		zap.String("aka_link", rec.AkaLink),
		zap.Int("status", result.StatusCode),
		zap.String("status_line", result.StatusLine),
	)
	return result
}

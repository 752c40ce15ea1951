// Package dispatcher fans records from a source out to a pool of probe workers.
package dispatcher

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/aka-exporter/internal/links"
	"github.com/JakeFAU/aka-exporter/internal/queue/memory"
	"github.com/JakeFAU/aka-exporter/internal/worker"
)

// Config controls the size of the worker pool.
type Config struct {
	// Concurrency is the number of probes in flight at once.
	Concurrency int
	// QueueCapacity bounds the records buffered ahead of the workers.
	QueueCapacity int
}

// Dispatcher runs one export pass: scan, probe, collect.
type Dispatcher struct {
	prober links.Prober
	cfg    Config
	logger *zap.Logger
}

// New creates a Dispatcher.
func New(prober links.Prober, cfg Config, logger *zap.Logger) *Dispatcher {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = cfg.Concurrency * 2
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		prober: prober,
		cfg:    cfg,
		logger: logger,
	}
}

// Run scans src and probes every record it yields, returning one row per record
// in completion order. When the scan fails the rows already probed are discarded
// and the scan error is returned once the workers have drained. A scan cut short
// by cancelling ctx is not a failure: every record read so far is still reported.
func (d *Dispatcher) Run(ctx context.Context, src links.Source) ([]links.ReportRow, error) {
	queue := memory.NewQueue(d.cfg.QueueCapacity)
	results := make(chan links.ReportRow, d.cfg.Concurrency)

	// Workers keep draining after a scan failure, so the group carries no shared context.
	var g errgroup.Group
	g.Go(func() error {
		defer queue.Close()
		detached := context.WithoutCancel(ctx)
		read := 0
		err := src.Scan(ctx, func(rec links.Record) error {
			read++
			return queue.Enqueue(detached, rec)
		})
		switch {
		case err == nil:
			return nil
		case ctx.Err() != nil && errors.Is(err, ctx.Err()):
			d.logger.Warn("source scan interrupted", zap.Int("records_read", read), zap.Error(err))
			return nil
		default:
			return fmt.Errorf("scan source: %w", err)
		}
	})
	for i := range d.cfg.Concurrency {
		w := worker.New(queue, d.prober, d.logger.With(zap.Int("worker", i)))
		g.Go(func() error {
			w.Run(ctx, results)
			return nil
		})
	}

	collected := make(chan []links.ReportRow, 1)
	go func() {
		var rows []links.ReportRow
		for row := range results {
			rows = append(rows, row)
		}
		collected <- rows
	}()

	err := g.Wait()
	close(results)
	rows := <-collected
	if err != nil {
		return nil, err
	}
	d.logger.Info("probes complete", zap.Int("rows", len(rows)), zap.Int("concurrency", d.cfg.Concurrency))
	return rows, nil
}

package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/aka-exporter/internal/dispatcher"
	"github.com/JakeFAU/aka-exporter/internal/report"
	"github.com/JakeFAU/aka-exporter/internal/storage/local"
)

const (
	contentTypeCSV      = "text/csv; charset=utf-8"
	contentTypeMarkdown = "text/markdown; charset=utf-8"
)

// Result describes one finished export.
type Result struct {
	RunID       string
	Rows        int
	Summary     report.Summary
	Paths       report.Paths
	CSVURI      string
	MarkdownURI string
	Duration    time.Duration
}

// CompletionEvent is the JSON payload published once the reports exist.
type CompletionEvent struct {
	RunID       string         `json:"run_id"`
	Summary     string         `json:"summary"`
	Counts      report.Summary `json:"counts"`
	Rows        int            `json:"rows"`
	CSVURI      string         `json:"csv_uri"`
	MarkdownURI string         `json:"md_uri"`
	CSVSHA256   string         `json:"csv_sha256"`
	MDSHA256    string         `json:"md_sha256"`
	FinishedAt  time.Time      `json:"finished_at"`
}

// Export reads every live link, probes it, and writes the CSV and Markdown reports
// derived from outputPath. Progress lines and the summary go to out.
// Local write and source failures are returned; mirror and publish failures are logged.
func (a *App) Export(ctx context.Context, outputPath string, out io.Writer) (Result, error) {
	paths, err := report.ResolvePaths(outputPath)
	if err != nil {
		return Result{}, err
	}
	localStore, err := local.New(local.Config{BaseDir: paths.Dir})
	if err != nil {
		return Result{}, fmt.Errorf("prepare output directory: %w", err)
	}
	runID, err := a.svc.IDs.NewID()
	if err != nil {
		return Result{}, fmt.Errorf("generate run id: %w", err)
	}
	logger := a.logger.With(zap.String("run_id", runID))
	if a.metrics != nil {
		a.metrics.SetReady(true)
	}

	start := a.svc.Clock.Now()
	fmt.Fprintf(out, "Exporting links from %s to %s\n", a.cfg.Table.Name, paths.Dir)

	d := dispatcher.New(a.svc.Prober, dispatcher.Config{Concurrency: a.cfg.Probe.Concurrency}, logger.Named("dispatcher"))
	rows, err := d.Run(ctx, a.svc.Source)
	if err != nil {
		return Result{}, fmt.Errorf("export %s: %w", a.cfg.Table.Name, err)
	}
	elapsed := a.svc.Clock.Now().Sub(start)
	fmt.Fprintf(out, "Checked %d links in %s\n", len(rows), elapsed.Round(time.Millisecond))

	report.Sort(rows)
	summary := report.Summarize(rows)

	var csvBuf, mdBuf bytes.Buffer
	if err := report.WriteCSV(&csvBuf, rows); err != nil {
		return Result{}, err
	}
	if err := report.WriteMarkdown(&mdBuf, rows); err != nil {
		return Result{}, err
	}

	csvFile := paths.Base + ".csv"
	mdFile := paths.Base + ".md"
	csvPath, err := localStore.PutObject(ctx, csvFile, contentTypeCSV, bytes.NewReader(csvBuf.Bytes()))
	if err != nil {
		return Result{}, fmt.Errorf("write csv report: %w", err)
	}
	fmt.Fprintf(out, "CSV data exported to %s\n", csvPath)
	mdPath, err := localStore.PutObject(ctx, mdFile, contentTypeMarkdown, bytes.NewReader(mdBuf.Bytes()))
	if err != nil {
		return Result{}, fmt.Errorf("write markdown report: %w", err)
	}
	fmt.Fprintf(out, "Markdown report exported to %s\n", mdPath)

	res := Result{
		RunID:       runID,
		Rows:        len(rows),
		Summary:     summary,
		Paths:       paths,
		CSVURI:      csvPath,
		MarkdownURI: mdPath,
		Duration:    elapsed,
	}

	// Outer surfaces run after the local reports exist and must not fail the export.
	surfaceCtx := context.WithoutCancel(ctx)
	if a.svc.Mirror != nil {
		prefix := path.Join(a.cfg.Storage.Prefix, runID)
		if uri, err := a.svc.Mirror.PutObject(surfaceCtx, path.Join(prefix, csvFile), contentTypeCSV, bytes.NewReader(csvBuf.Bytes())); err != nil {
			logger.Warn("failed to mirror csv report", zap.Error(err))
		} else {
			res.CSVURI = uri
		}
		if uri, err := a.svc.Mirror.PutObject(surfaceCtx, path.Join(prefix, mdFile), contentTypeMarkdown, bytes.NewReader(mdBuf.Bytes())); err != nil {
			logger.Warn("failed to mirror markdown report", zap.Error(err))
		} else {
			res.MarkdownURI = uri
		}
	}
	if a.svc.Publisher != nil {
		event := CompletionEvent{
			RunID:       runID,
			Summary:     summary.String(),
			Counts:      summary,
			Rows:        len(rows),
			CSVURI:      res.CSVURI,
			MarkdownURI: res.MarkdownURI,
			CSVSHA256:   a.hasher.Hash(csvBuf.Bytes()),
			MDSHA256:    a.hasher.Hash(mdBuf.Bytes()),
			FinishedAt:  a.svc.Clock.Now(),
		}
		if id, err := a.svc.Publisher.Publish(surfaceCtx, a.cfg.PubSub.TopicName, event); err != nil {
			logger.Warn("failed to publish completion event", zap.String("topic", a.cfg.PubSub.TopicName), zap.Error(err))
		} else {
			logger.Info("published completion event", zap.String("message_id", id))
		}
	}

	logger.Info("export finished",
		zap.Int("rows", len(rows)),
		zap.String("summary", summary.String()),
		zap.Duration("elapsed", elapsed),
	)
	fmt.Fprintf(out, "EXPORT_SUMMARY=%s\n", summary)
	return res, nil
}

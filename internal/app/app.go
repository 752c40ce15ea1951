// Package app builds the exporter's long-lived services from configuration and runs exports.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/JakeFAU/aka-exporter/internal/api"
	"github.com/JakeFAU/aka-exporter/internal/clock/system"
	"github.com/JakeFAU/aka-exporter/internal/config"
	"github.com/JakeFAU/aka-exporter/internal/hash/sha256"
	"github.com/JakeFAU/aka-exporter/internal/id/uuid"
	"github.com/JakeFAU/aka-exporter/internal/links"
	"github.com/JakeFAU/aka-exporter/internal/policy/ratelimit"
	"github.com/JakeFAU/aka-exporter/internal/probe"
	akapubsub "github.com/JakeFAU/aka-exporter/internal/publisher/pubsub"
	"github.com/JakeFAU/aka-exporter/internal/source"
	"github.com/JakeFAU/aka-exporter/internal/source/aztables"
	"github.com/JakeFAU/aka-exporter/internal/source/postgres"
	"github.com/JakeFAU/aka-exporter/internal/storage/gcs"
)

// Services are the collaborators an App drives. Mirror and Publisher are optional.
type Services struct {
	Source    links.Source
	Prober    links.Prober
	Mirror    links.BlobStore
	Publisher links.Publisher
	Clock     links.Clock
	IDs       links.IDGenerator
}

// App holds the shared services for one process. It is built once at startup
// and closed by the CLI after the command finishes.
type App struct {
	cfg     config.Config
	logger  *zap.Logger
	svc     Services
	hasher  *sha256.Hasher
	metrics *api.Server
	closers []namedCloser
}

type namedCloser struct {
	name  string
	close func() error
}

// New initializes every service named by cfg. Failures to reach the table store
// are fatal; failures to set up the optional mirror or publisher are logged and
// leave that surface disabled.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{cfg: cfg, logger: logger, hasher: sha256.New()}
	a.svc.Clock = system.New()
	a.svc.IDs = uuid.New()

	src, err := a.buildSource(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.svc.Source = src
	a.svc.Prober = a.buildProber()

	if cfg.Storage.Provider == config.StorageGCS {
		mirror, err := a.buildMirror(ctx)
		if err != nil {
			logger.Warn("report mirror disabled", zap.String("bucket", cfg.Storage.GCSBucket), zap.Error(err))
		} else {
			a.svc.Mirror = mirror
		}
	}
	if cfg.PubSub.TopicName != "" {
		pub, err := a.buildPublisher(ctx)
		if err != nil {
			logger.Warn("completion event disabled", zap.String("topic", cfg.PubSub.TopicName), zap.Error(err))
		} else {
			a.svc.Publisher = pub
		}
	}
	if cfg.Metrics.ListenAddr != "" {
		if err := a.startMetrics(cfg.Metrics.ListenAddr); err != nil {
			a.Close()
			return nil, err
		}
	}

	logger.Info("application services initialized",
		zap.String("driver", cfg.Table.Driver),
		zap.String("table", cfg.Table.Name),
		zap.Int("concurrency", cfg.Probe.Concurrency),
		zap.Bool("mirror", a.svc.Mirror != nil),
		zap.Bool("publish", a.svc.Publisher != nil),
	)
	return a, nil
}

// NewWithServices assembles an App from prebuilt services.
func NewWithServices(cfg config.Config, logger *zap.Logger, svc Services) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	if svc.Clock == nil {
		svc.Clock = system.New()
	}
	if svc.IDs == nil {
		svc.IDs = uuid.New()
	}
	return &App{cfg: cfg, logger: logger, svc: svc, hasher: sha256.New()}
}

// Logger returns the shared logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Close releases every service in reverse order of construction.
func (a *App) Close() {
	if a.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.metrics.Shutdown(ctx); err != nil {
			a.logger.Warn("failed to stop metrics listener", zap.Error(err))
		}
		cancel()
		a.metrics = nil
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.close(); err != nil {
			a.logger.Warn("failed to close service", zap.String("service", c.name), zap.Error(err))
		}
	}
	a.closers = nil
}

func (a *App) onClose(name string, fn func() error) {
	a.closers = append(a.closers, namedCloser{name: name, close: fn})
}

func (a *App) buildSource(ctx context.Context) (links.Source, error) {
	mapper := source.Mapper{
		LinkPrefix:                a.cfg.Links.Prefix,
		MissingArchivedIsArchived: a.cfg.Links.TreatMissingArchivedAsArchived,
	}
	switch a.cfg.Table.Driver {
	case config.DriverAzureTables:
		src, err := aztables.New(aztables.Config{
			ConnectionString: a.cfg.Table.ConnectionString,
			Table:            a.cfg.Table.Name,
			Mapper:           mapper,
		}, a.logger.Named("source"))
		if err != nil {
			return nil, fmt.Errorf("open table source: %w", err)
		}
		return src, nil
	case config.DriverPostgres:
		src, err := postgres.New(ctx, postgres.Config{
			DSN:    a.cfg.Table.ConnectionString,
			Table:  a.cfg.Table.Name,
			Mapper: mapper,
		})
		if err != nil {
			return nil, fmt.Errorf("open postgres source: %w", err)
		}
		a.onClose("postgres", func() error {
			src.Close()
			return nil
		})
		return src, nil
	default:
		return nil, fmt.Errorf("unknown table driver %q", a.cfg.Table.Driver)
	}
}

func (a *App) buildProber() *probe.Prober {
	pc := a.cfg.Probe
	client := probe.NewHTTPClient(pc.RequestTimeout, pc.Concurrency)
	policy := probe.NewExponentialRetryPolicy(pc.MaxRetries, pc.BackoffBase, pc.JitterMax)

	var limiter probe.Limiter
	rlCfg := ratelimit.Config{PerHostRPS: pc.PerHostRPS, PerHostBurst: pc.PerHostBurst}
	if rlCfg.Enabled() {
		limiter = ratelimit.New(rlCfg)
	}
	return probe.New(client, policy, limiter, probe.Config{
		Timeout:   pc.Timeout,
		UserAgent: pc.UserAgent,
	}, a.logger.Named("probe"))
}

func (a *App) buildMirror(ctx context.Context) (*gcs.BlobStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create GCS client: %w", err)
	}
	store, err := gcs.New(client, gcs.Config{Bucket: a.cfg.Storage.GCSBucket})
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	if err := store.Check(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	a.onClose("gcs", client.Close)
	return store, nil
}

func (a *App) buildPublisher(ctx context.Context) (*akapubsub.Publisher, error) {
	client, err := pubsub.NewClient(ctx, a.cfg.PubSub.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	pub := akapubsub.New(client, map[string]string{"source": "aka-exporter"})
	a.onClose("pubsub", pub.Close)
	return pub, nil
}

func (a *App) startMetrics(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	srv := api.NewServer(a.logger.Named("api"))
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, net.ErrClosed) {
			a.logger.Error("metrics listener failed", zap.Error(err))
		}
	}()
	a.metrics = srv
	return nil
}

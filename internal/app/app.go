// Package app builds the long-lived services of a scraper run from the
// configuration and hands out a ready pipeline.Runner.
package app

import (
	"context"
	"fmt"

	gpubsub "cloud.google.com/go/pubsub"
	gstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/JakeFAU/election-results-scraper/internal/clock"
	"github.com/JakeFAU/election-results-scraper/internal/config"
	"github.com/JakeFAU/election-results-scraper/internal/extract"
	"github.com/JakeFAU/election-results-scraper/internal/fetcher"
	collyfetcher "github.com/JakeFAU/election-results-scraper/internal/fetcher/colly"
	"github.com/JakeFAU/election-results-scraper/internal/id/uuid"
	"github.com/JakeFAU/election-results-scraper/internal/notify/pubsub"
	"github.com/JakeFAU/election-results-scraper/internal/output"
	"github.com/JakeFAU/election-results-scraper/internal/pipeline"
	"github.com/JakeFAU/election-results-scraper/internal/storage"
	"github.com/JakeFAU/election-results-scraper/internal/storage/gcs"
	"github.com/JakeFAU/election-results-scraper/internal/storage/local"
	"github.com/JakeFAU/election-results-scraper/internal/storage/postgres"
	"github.com/JakeFAU/election-results-scraper/internal/walker"
)

// App holds the services shared by every command.
type App struct {
	cfg    config.Config
	logger *zap.Logger
	runner *pipeline.Runner

	closers []func() error
}

// Config returns the loaded configuration.
func (a *App) Config() config.Config {
	return a.cfg
}

// Logger returns the root logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Runner returns the configured pipeline.
func (a *App) Runner() *pipeline.Runner {
	return a.runner
}

// MunicipalHierarchy builds the municipal hierarchy from the configuration.
func (a *App) MunicipalHierarchy() (walker.Hierarchy, error) {
	m := a.cfg.Municipales
	return walker.Municipal(m.BaseURL, m.Sectorized, m.NoResultsMarker)
}

// New initializes every service named by cfg. Optional sinks are only built
// when configured.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{cfg: cfg, logger: logger}

	enc, err := output.EncoderFor(cfg.Output.Format)
	if err != nil {
		return nil, err
	}
	store, err := a.blobStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	deps := pipeline.Deps{
		Loader: fetcher.NewLoader(collyfetcher.New(collyfetcher.Config{
			UserAgent:     cfg.HTTP.UserAgent,
			RespectRobots: cfg.HTTP.RespectRobots,
			Timeout:       cfg.Timeout(),
		}), logger.Named("loader")),
		Extractor:       extract.NewDefault(),
		IDs:             uuid.New(),
		Writer:          output.NewWriter(enc, store, logger.Named("output")),
		Workers:         cfg.Scrape.Workers,
		MetricsTextfile: cfg.Metrics.Textfile,
		Logger:          logger.Named("pipeline"),
		Clock:           clock.System{},
	}

	if cfg.DB.DSN != "" {
		rows, err := postgres.New(ctx, postgres.Config{DSN: cfg.DB.DSN, Table: cfg.DB.Table})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("init results store: %w", err)
		}
		a.closers = append(a.closers, func() error { rows.Close(); return nil })
		if err := rows.EnsureSchema(ctx); err != nil {
			a.Close()
			return nil, err
		}
		deps.Rows = rows
		logger.Info("postgres sink enabled", zap.String("table", cfg.DB.Table))
	}

	if cfg.PubSub.Topic != "" {
		client, err := gpubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("init pubsub client: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		pub, err := pubsub.Open(ctx, client, cfg.PubSub.Topic)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, func() error { pub.Stop(); return nil })
		deps.Notifier = pub
		logger.Info("run notifications enabled", zap.String("topic", cfg.PubSub.Topic))
	}

	runner, err := pipeline.NewRunner(deps)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.runner = runner
	return a, nil
}

func (a *App) blobStore(ctx context.Context) (storage.BlobStore, error) {
	if a.cfg.Output.GCSBucket == "" {
		store, err := local.New(local.Config{Dir: a.cfg.Output.Dir})
		if err != nil {
			return nil, fmt.Errorf("init output directory: %w", err)
		}
		return store, nil
	}
	client, err := gstorage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("init storage client: %w", err)
	}
	a.closers = append(a.closers, client.Close)
	store, err := gcs.New(client, gcs.Config{Bucket: a.cfg.Output.GCSBucket, Prefix: a.cfg.Output.GCSPrefix})
	if err != nil {
		return nil, err
	}
	a.logger.Info("writing results to GCS", zap.String("bucket", a.cfg.Output.GCSBucket))
	return store, nil
}

// Close releases the clients in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("error closing service", zap.Error(err))
		}
	}
	a.closers = nil
}

// Package app assembles the crawler's long-lived services from configuration.
package app

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/JakeFAU/dailynews-crawler/internal/clock/system"
	"github.com/JakeFAU/dailynews-crawler/internal/config"
	"github.com/JakeFAU/dailynews-crawler/internal/crawler"
	"github.com/JakeFAU/dailynews-crawler/internal/extract"
	collyfetcher "github.com/JakeFAU/dailynews-crawler/internal/fetcher/colly"
	"github.com/JakeFAU/dailynews-crawler/internal/id/uuid"
	"github.com/JakeFAU/dailynews-crawler/internal/news"
	memorypublisher "github.com/JakeFAU/dailynews-crawler/internal/publisher/memory"
	gcppublisher "github.com/JakeFAU/dailynews-crawler/internal/publisher/pubsub"
	gcsstorage "github.com/JakeFAU/dailynews-crawler/internal/storage/gcs"
	localstorage "github.com/JakeFAU/dailynews-crawler/internal/storage/local"
	memorystorage "github.com/JakeFAU/dailynews-crawler/internal/storage/memory"
	pgstore "github.com/JakeFAU/dailynews-crawler/internal/storage/postgres"
)

// App holds the services shared by every command.
type App struct {
	Config   config.Config
	Logger   *zap.Logger
	Location *time.Location
	Clock    news.Clock
	Store    news.Store
	Crawler  *crawler.Crawler
	Runner   *crawler.Runner
	Batch    *crawler.Batch

	pgStore         *pgstore.Store
	gcsClient       *storage.Client
	pubsubClient    *pubsub.Client
	pubsubPublisher *gcppublisher.Publisher
}

// Build wires every service. Callers must Close the result.
func Build(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	a := &App{
		Config:   cfg,
		Logger:   logger,
		Location: loc,
		Clock:    system.New(loc),
	}

	if err := a.setupStore(ctx); err != nil {
		a.Close()
		return nil, err
	}
	archive, err := a.setupArchive(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	publisher, err := a.setupPublisher(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent: cfg.Crawler.UserAgent,
		Timeout:   cfg.Crawler.RequestTimeout,
	})
	a.Crawler = crawler.New(
		fetcher,
		extract.New(cfg.Layout),
		a.Clock,
		crawler.Config{ArticleDelay: cfg.Crawler.ArticleDelay, Location: loc},
		logger.Named("crawler"),
	)
	a.Runner = crawler.NewRunner(
		a.Crawler,
		a.Store,
		archive,
		publisher,
		uuid.New(),
		a.Clock,
		crawler.RunnerConfig{Location: loc, ArchivePrefix: cfg.Archive.Prefix, Topic: cfg.Notify.Topic},
		logger.Named("runner"),
	)
	a.Batch = crawler.NewBatch(a.Runner, cfg.Batch.Gap, logger.Named("batch"))
	return a, nil
}

// Ready reports whether the store answers queries.
func (a *App) Ready(ctx context.Context) error {
	if _, err := a.Store.Stats(ctx); err != nil {
		return fmt.Errorf("store not ready: %w", err)
	}
	return nil
}

// Close releases external clients. It is safe on a partially built App.
func (a *App) Close() {
	if a.pubsubPublisher != nil {
		a.pubsubPublisher.Stop()
	}
	if a.pubsubClient != nil {
		if err := a.pubsubClient.Close(); err != nil {
			a.Logger.Warn("pubsub client close failed", zap.Error(err))
		}
	}
	if a.gcsClient != nil {
		if err := a.gcsClient.Close(); err != nil {
			a.Logger.Warn("gcs client close failed", zap.Error(err))
		}
	}
	if a.pgStore != nil {
		a.pgStore.Close()
	}
	_ = a.Logger.Sync()
}

func (a *App) setupStore(ctx context.Context) error {
	db := a.Config.DB
	if db.DSN == "" {
		a.Logger.Warn("no db.dsn configured, records are kept in memory for this process only")
		a.Store = memorystorage.NewNewsStore()
		return nil
	}
	store, err := pgstore.New(ctx, pgstore.Config{
		DSN:             db.DSN,
		Table:           db.Table,
		MaxConns:        db.MaxConns,
		MinConns:        db.MinConns,
		MaxConnLifetime: db.MaxConnLifetime,
	})
	if err != nil {
		return fmt.Errorf("postgres store init failed: %w", err)
	}
	a.pgStore = store
	a.Store = store
	if db.AutoMigrate {
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
	}
	a.Logger.Info("postgres store initialized", zap.String("table", db.Table))
	return nil
}

func (a *App) setupArchive(ctx context.Context) (news.Archive, error) {
	cfg := a.Config.Archive
	switch cfg.Backend {
	case config.BackendGCS:
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("gcs client init failed: %w", err)
		}
		a.gcsClient = client
		archive, err := gcsstorage.New(client, gcsstorage.Config{Bucket: cfg.Bucket})
		if err != nil {
			return nil, fmt.Errorf("gcs archive init failed: %w", err)
		}
		a.Logger.Info("using GCS archive", zap.String("bucket", cfg.Bucket), zap.String("prefix", cfg.Prefix))
		return archive, nil
	case config.BackendLocal:
		archive, err := localstorage.New(localstorage.Config{BaseDir: cfg.BaseDir})
		if err != nil {
			return nil, fmt.Errorf("local archive init failed: %w", err)
		}
		a.Logger.Info("using local archive", zap.String("path", cfg.BaseDir))
		return archive, nil
	case config.BackendMemory:
		return memorystorage.NewBlobStore(), nil
	default:
		return nil, nil
	}
}

func (a *App) setupPublisher(ctx context.Context) (news.Publisher, error) {
	cfg := a.Config.Notify
	switch cfg.Backend {
	case config.BackendPubSub:
		client, err := pubsub.NewClient(ctx, cfg.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("pubsub client init failed: %w", err)
		}
		a.pubsubClient = client
		a.pubsubPublisher = gcppublisher.New(client)
		a.Logger.Info("Pub/Sub publisher initialized",
			zap.String("project", cfg.ProjectID),
			zap.String("topic", cfg.Topic),
		)
		return a.pubsubPublisher, nil
	case config.BackendMemory:
		return memorypublisher.New(), nil
	default:
		return nil, nil
	}
}

// Package app initializes and holds long-lived services, acting as the
// dependency injection point for both CLI modes.
package app

import (
	"context"
	"fmt"

	gpubsub "cloud.google.com/go/pubsub"
	gstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/ssnlabs/blocklistd/internal/archive"
	archivegcs "github.com/ssnlabs/blocklistd/internal/archive/gcs"
	archivelocal "github.com/ssnlabs/blocklistd/internal/archive/local"
	archivememory "github.com/ssnlabs/blocklistd/internal/archive/memory"
	"github.com/ssnlabs/blocklistd/internal/clock/system"
	"github.com/ssnlabs/blocklistd/internal/config"
	"github.com/ssnlabs/blocklistd/internal/etl"
	"github.com/ssnlabs/blocklistd/internal/feed"
	"github.com/ssnlabs/blocklistd/internal/fetch"
	"github.com/ssnlabs/blocklistd/internal/id/uuid"
	"github.com/ssnlabs/blocklistd/internal/publisher"
	pubmemory "github.com/ssnlabs/blocklistd/internal/publisher/memory"
	pubgcp "github.com/ssnlabs/blocklistd/internal/publisher/pubsub"
	"github.com/ssnlabs/blocklistd/internal/storage"
	"github.com/ssnlabs/blocklistd/internal/storage/elastic"
	"github.com/ssnlabs/blocklistd/internal/storage/memory"
	"github.com/ssnlabs/blocklistd/internal/storage/mongo"
)

// App holds the shared, long-lived services of one connector process.
type App struct {
	Config config.Config
	Logger *zap.Logger
	Store  storage.Provider
	Runner *etl.Runner

	pubsubClient *gpubsub.Client
	gcsClient    *gstorage.Client
}

// New builds every service from configuration. It fails fast: a store
// that cannot be reached or a missing connection string stops the
// process before any endpoint is touched.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	a := &App{
		Config: cfg,
		Logger: logger,
	}

	store, err := a.buildStore(ctx)
	if err != nil {
		return nil, err
	}
	a.Store = store

	blobs, err := a.buildBlobStore(ctx)
	if err != nil {
		return nil, err
	}

	pub, err := a.buildPublisher(ctx)
	if err != nil {
		return nil, err
	}

	endpoints := cfg.Feed.Endpoints
	if len(endpoints) == 0 {
		endpoints = feed.DefaultEndpoints()
	}

	fetcher := fetch.New(fetch.Config{
		Timeout:    cfg.RequestTimeout(),
		UserAgent:  cfg.HTTP.UserAgent,
		PerHostRPS: cfg.HTTP.PerHostRPS,
		Policy: fetch.Policy{
			MaxRetries:         cfg.HTTP.MaxRetries,
			BackoffFactor:      cfg.HTTP.BackoffFactor,
			RateLimitRetryCap:  cfg.HTTP.RateLimitRetryCap,
			StrictEmptyPayload: cfg.Feed.StrictEmptyPayload,
		},
	}, logger)

	coll := store.Collection(storage.CollectionName(cfg.Feed.ConnectorName))
	a.Runner = etl.New(etl.Params{
		Endpoints:     feed.EndpointsFromMap(endpoints),
		Fetcher:       fetcher,
		Parser:        feed.NewParser(cfg.Feed.ValidateAddresses, logger),
		Loader:        storage.NewLoader(coll, logger),
		Blobs:         blobs,
		Publisher:     pub,
		Topic:         cfg.Publish.Topic,
		ArchivePrefix: cfg.Archive.Prefix,
		Clock:         system.New(),
		IDGen:         uuid.NewGenerator(),
		PoliteDelay:   cfg.PoliteDelay(),
		Logger:        logger,
	})

	return a, nil
}

func (a *App) buildStore(ctx context.Context) (storage.Provider, error) {
	switch a.Config.Store.Provider {
	case "mongo":
		a.Logger.Info("using mongo store",
			zap.String("database", a.Config.Store.Mongo.Database))
		store, err := mongo.New(ctx, mongo.Config{
			URI:      a.Config.Store.Mongo.URI,
			Database: a.Config.Store.Mongo.Database,
		})
		if err != nil {
			return nil, fmt.Errorf("initialize mongo store: %w", err)
		}
		return store, nil
	case "elastic":
		a.Logger.Info("using elasticsearch store",
			zap.String("url", a.Config.Store.Elastic.URL))
		store, err := elastic.New(ctx, elastic.Config{
			URL:      a.Config.Store.Elastic.URL,
			Username: a.Config.Store.Elastic.Username,
			Password: a.Config.Store.Elastic.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("initialize elasticsearch store: %w", err)
		}
		return store, nil
	case "memory":
		a.Logger.Info("using in-memory store; documents will not survive the process")
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown store provider: %s", a.Config.Store.Provider)
	}
}

func (a *App) buildBlobStore(ctx context.Context) (archive.BlobStore, error) {
	switch a.Config.Archive.Provider {
	case "gcs":
		client, err := gstorage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("create gcs client: %w", err)
		}
		a.gcsClient = client
		blobs, err := archivegcs.New(client, archivegcs.Config{Bucket: a.Config.Archive.GCSBucket})
		if err != nil {
			return nil, fmt.Errorf("initialize gcs archive: %w", err)
		}
		a.Logger.Info("archiving snapshots to gcs",
			zap.String("bucket", a.Config.Archive.GCSBucket))
		return blobs, nil
	case "local":
		blobs, err := archivelocal.New(archivelocal.Config{BaseDir: a.Config.Archive.LocalDir})
		if err != nil {
			return nil, fmt.Errorf("initialize local archive: %w", err)
		}
		return blobs, nil
	case "memory":
		return archivememory.NewBlobStore(), nil
	case "noop":
		return archive.NoOp{}, nil
	default:
		return nil, fmt.Errorf("unknown archive provider: %s", a.Config.Archive.Provider)
	}
}

func (a *App) buildPublisher(ctx context.Context) (publisher.Publisher, error) {
	if a.Config.Publish.Topic == "" {
		return publisher.NoOp{}, nil
	}
	if a.Config.Publish.ProjectID == "" {
		a.Logger.Warn("publish.topic set without publish.project_id; using memory publisher")
		return pubmemory.New(), nil
	}

	client, err := gpubsub.NewClient(ctx, a.Config.Publish.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	a.pubsubClient = client
	pub, err := pubgcp.New(client)
	if err != nil {
		return nil, fmt.Errorf("initialize pubsub publisher: %w", err)
	}
	return pub, nil
}

// Close releases every client the App owns.
func (a *App) Close(ctx context.Context) {
	if a.Store != nil {
		if err := a.Store.Close(ctx); err != nil {
			a.Logger.Error("close store", zap.Error(err))
		}
	}
	if a.pubsubClient != nil {
		if err := a.pubsubClient.Close(); err != nil {
			a.Logger.Error("close pubsub client", zap.Error(err))
		}
	}
	if a.gcsClient != nil {
		if err := a.gcsClient.Close(); err != nil {
			a.Logger.Error("close gcs client", zap.Error(err))
		}
	}
}

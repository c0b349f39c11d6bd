// Package mongo implements the storage provider on MongoDB.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/ssnlabs/blocklistd/internal/feed"
	"github.com/ssnlabs/blocklistd/internal/storage"
)

// Config captures the parameters required to connect to MongoDB.
type Config struct {
	URI      string
	Database string
}

// Store hands out collections backed by one shared client.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// New connects to MongoDB and verifies the connection. A missing URI is
// a configuration error and fails construction.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("store.mongo.uri is not set")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("store.mongo.database is not set")
	}

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		if disconnectErr := client.Disconnect(ctx); disconnectErr != nil {
			return nil, fmt.Errorf("ping mongo: %w (disconnect: %v)", err, disconnectErr)
		}
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &Store{
		client: client,
		db:     client.Database(cfg.Database),
	}, nil
}

// Collection returns the named collection.
func (s *Store) Collection(name string) storage.Collection {
	return &collection{coll: s.db.Collection(name)}
}

// Ping verifies the connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("ping mongo: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect mongo: %w", err)
	}
	return nil
}

type collection struct {
	coll *mongo.Collection
}

func (c *collection) Name() string {
	return c.coll.Name()
}

// InsertUnordered submits the whole batch as one unordered InsertMany.
// A bulk write exception carries per-document rejections; the accepted
// count is the batch size minus those, returned without an error.
func (c *collection) InsertUnordered(ctx context.Context, records []feed.Record) (int, error) {
	docs := make([]any, len(records))
	for i, r := range records {
		docs[i] = r
	}

	res, err := c.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err != nil {
		var bwe mongo.BulkWriteException
		if errors.As(err, &bwe) {
			return len(records) - len(bwe.WriteErrors), nil
		}
		return 0, fmt.Errorf("insert many: %w", err)
	}
	return len(res.InsertedIDs), nil
}

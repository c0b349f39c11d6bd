// Package storage defines the persistence port for record batches.
// The abstraction keeps the pipeline independent of a specific document
// store; providers live in subpackages (mongo, elastic, memory).
package storage

import (
	"context"

	"github.com/ssnlabs/blocklistd/internal/feed"
)

// Collection is one named document collection accepting unordered bulk
// writes.
type Collection interface {
	// Name returns the collection or index name.
	Name() string
	// InsertUnordered submits all records as a single unordered bulk
	// write and returns the number of documents the store
	// acknowledged. Per-document rejections are not an error: the
	// accepted count is returned with a nil error. A non-nil error
	// means the write failed as a whole.
	InsertUnordered(ctx context.Context, records []feed.Record) (int, error)
}

// Provider hands out collections and owns the underlying client.
type Provider interface {
	Collection(name string) Collection
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// CollectionName derives the raw-collection name for a connector.
func CollectionName(connector string) string {
	return connector + "_raw"
}

package storage

import (
	"context"

	"go.uber.org/zap"

	"github.com/ssnlabs/blocklistd/internal/feed"
	"github.com/ssnlabs/blocklistd/internal/metrics"
)

// Loader wraps a Collection with the partial-failure-tolerant insert
// policy: a batch never raises past this boundary. One bad document
// never costs the rest of its batch, and an unexpected store failure
// costs only that batch.
type Loader struct {
	coll   Collection
	logger *zap.Logger
}

// NewLoader builds a Loader for the given collection.
func NewLoader(coll Collection, logger *zap.Logger) *Loader {
	return &Loader{
		coll:   coll,
		logger: logger,
	}
}

// InsertBatch persists records and returns how many the store accepted.
// An empty batch short-circuits without touching the store.
func (l *Loader) InsertBatch(ctx context.Context, records []feed.Record) int {
	if len(records) == 0 {
		l.logger.Info("no documents to insert", zap.String("collection", l.coll.Name()))
		return 0
	}

	inserted, err := l.coll.InsertUnordered(ctx, records)
	if err != nil {
		l.logger.Error("bulk insert failed",
			zap.String("collection", l.coll.Name()),
			zap.Error(err),
		)
		return 0
	}
	if inserted < len(records) {
		l.logger.Warn("bulk insert partially rejected",
			zap.String("collection", l.coll.Name()),
			zap.Int("inserted", inserted),
			zap.Int("submitted", len(records)),
		)
		metrics.DocumentsRejected(records[0].Service, len(records)-inserted)
		return inserted
	}

	l.logger.Info("inserted documents",
		zap.String("collection", l.coll.Name()),
		zap.Int("inserted", inserted),
	)
	return inserted
}

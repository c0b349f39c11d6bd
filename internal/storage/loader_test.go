package storage_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ssnlabs/blocklistd/internal/feed"
	"github.com/ssnlabs/blocklistd/internal/storage"
	"github.com/ssnlabs/blocklistd/internal/storage/memory"
)

func batch(n int) []feed.Record {
	now := time.Now().UTC()
	records := make([]feed.Record, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, feed.Record{
			IP:        "1.2.3.4",
			Service:   "ssh",
			Source:    feed.Source,
			FetchedAt: now,
		})
	}
	return records
}

func TestInsertBatchEmptySkipsStore(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	coll := store.Collection("blocklist_lists_raw")
	loader := storage.NewLoader(coll, zap.NewNop())

	require.Zero(t, loader.InsertBatch(context.Background(), nil))
	require.Zero(t, coll.(*memory.Collection).Inserts())
}

func TestInsertBatchFullSuccess(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	loader := storage.NewLoader(store.Collection("blocklist_lists_raw"), zap.NewNop())

	inserted := loader.InsertBatch(context.Background(), batch(4))
	require.Equal(t, 4, inserted)
	require.Len(t, store.Documents("blocklist_lists_raw"), 4)
}

func TestInsertBatchPartialRejection(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	rejected := 0
	store.RejectFn = func(feed.Record) bool {
		rejected++
		return rejected%2 == 0
	}
	loader := storage.NewLoader(store.Collection("blocklist_lists_raw"), zap.NewNop())

	records := batch(5)
	inserted := loader.InsertBatch(context.Background(), records)
	require.Equal(t, 3, inserted)
	require.LessOrEqual(t, inserted, len(records))
}

func TestInsertBatchStoreFailureReturnsZero(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	store.InsertErr = errors.New("connection reset")
	loader := storage.NewLoader(store.Collection("blocklist_lists_raw"), zap.NewNop())

	require.Zero(t, loader.InsertBatch(context.Background(), batch(3)))
}

func TestCollectionName(t *testing.T) {
	t.Parallel()

	require.Equal(t, "blocklist_lists_raw", storage.CollectionName("blocklist_lists"))
}

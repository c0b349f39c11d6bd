// Package memory contains an in-memory storage provider for tests and
// dry runs. Rejection behavior is injectable so partial bulk failures
// can be simulated deterministically.
package memory

import (
	"context"
	"sync"

	"github.com/ssnlabs/blocklistd/internal/feed"
	"github.com/ssnlabs/blocklistd/internal/storage"
)

// Store keeps collections in process memory.
type Store struct {
	mu          sync.Mutex
	collections map[string]*Collection

	// RejectFn, when set, is applied to every submitted record;
	// records it reports true for are rejected, mimicking
	// per-document bulk write errors.
	RejectFn func(feed.Record) bool
	// InsertErr, when set, fails every bulk write as a whole.
	InsertErr error
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{collections: make(map[string]*Collection)}
}

// Collection returns the named collection, creating it on first use.
func (s *Store) Collection(name string) storage.Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	coll, ok := s.collections[name]
	if !ok {
		coll = &Collection{name: name, store: s}
		s.collections[name] = coll
	}
	return coll
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error {
	return nil
}

// Close is a no-op.
func (s *Store) Close(context.Context) error {
	return nil
}

// Documents returns everything inserted into the named collection.
func (s *Store) Documents(name string) []feed.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	coll, ok := s.collections[name]
	if !ok {
		return nil
	}
	return append([]feed.Record(nil), coll.docs...)
}

// Collection is one in-memory document collection.
type Collection struct {
	name  string
	store *Store

	mu      sync.Mutex
	docs    []feed.Record
	inserts int
}

// Name returns the collection name.
func (c *Collection) Name() string {
	return c.name
}

// InsertUnordered stores every non-rejected record and returns the
// accepted count.
func (c *Collection) InsertUnordered(_ context.Context, records []feed.Record) (int, error) {
	if c.store.InsertErr != nil {
		return 0, c.store.InsertErr
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inserts++
	accepted := 0
	for _, r := range records {
		if c.store.RejectFn != nil && c.store.RejectFn(r) {
			continue
		}
		c.docs = append(c.docs, r)
		accepted++
	}
	return accepted, nil
}

// Inserts reports how many bulk writes the collection received.
func (c *Collection) Inserts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inserts
}

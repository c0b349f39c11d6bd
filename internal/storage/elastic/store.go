// Package elastic implements the storage provider on Elasticsearch.
// Each collection maps to an index and bulk writes use the _bulk API,
// whose per-item errors give the same partial-failure accounting as an
// unordered document-store insert.
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	es "github.com/elastic/go-elasticsearch/v8"

	"github.com/ssnlabs/blocklistd/internal/feed"
	"github.com/ssnlabs/blocklistd/internal/storage"
)

// Config captures the parameters required to connect to Elasticsearch.
type Config struct {
	URL      string
	Username string
	Password string
}

// Store hands out index-backed collections.
type Store struct {
	client *es.Client
}

// New builds the client and verifies the cluster responds.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("store.elastic.url is not set")
	}

	client, err := es.NewClient(es.Config{
		Addresses: []string{normalizeURL(cfg.URL)},
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	store := &Store{client: client}
	if err := store.Ping(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// Collection returns a collection writing to the named index.
func (s *Store) Collection(name string) storage.Collection {
	return &collection{client: s.client, index: name}
}

// Ping verifies the cluster is reachable.
func (s *Store) Ping(ctx context.Context) error {
	res, err := s.client.Ping(s.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("ping elasticsearch: %w", err)
	}
	defer res.Body.Close() //nolint:errcheck // read-only body
	if res.IsError() {
		return fmt.Errorf("ping elasticsearch: %s", res.Status())
	}
	return nil
}

// Close is a no-op; the underlying transport has no teardown.
func (s *Store) Close(context.Context) error {
	return nil
}

func normalizeURL(url string) string {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return "http://" + url
	}
	return url
}

type collection struct {
	client *es.Client
	index  string
}

func (c *collection) Name() string {
	return c.index
}

// InsertUnordered submits the batch as one _bulk request of index
// actions and counts accepted items from the response.
func (c *collection) InsertUnordered(ctx context.Context, records []feed.Record) (int, error) {
	var buf bytes.Buffer
	for _, r := range records {
		buf.WriteString(`{"index":{}}`)
		buf.WriteByte('\n')
		doc, err := json.Marshal(r)
		if err != nil {
			return 0, fmt.Errorf("marshal record: %w", err)
		}
		buf.Write(doc)
		buf.WriteByte('\n')
	}

	res, err := c.client.Bulk(
		bytes.NewReader(buf.Bytes()),
		c.client.Bulk.WithContext(ctx),
		c.client.Bulk.WithIndex(c.index),
	)
	if err != nil {
		return 0, fmt.Errorf("bulk request: %w", err)
	}
	defer res.Body.Close() //nolint:errcheck // read-only body

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return 0, fmt.Errorf("bulk request: %s: %s", res.Status(), string(body))
	}

	var parsed bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return 0, fmt.Errorf("decode bulk response: %w", err)
	}

	accepted := 0
	for _, item := range parsed.Items {
		if item.Index.Status >= 200 && item.Index.Status < 300 {
			accepted++
		}
	}
	return accepted, nil
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []struct {
		Index struct {
			Status int `json:"status"`
		} `json:"index"`
	} `json:"items"`
}

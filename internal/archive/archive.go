// Package archive defines the blob store port used to keep a raw
// snapshot of every fetched list body, so a run can be audited or
// replayed without refetching. Providers live in subpackages.
package archive

import "context"

// BlobStore persists one raw payload under a path and returns its URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// NoOp discards every payload. Used when archiving is disabled.
type NoOp struct{}

// PutObject does nothing and returns an empty URI.
func (NoOp) PutObject(context.Context, string, string, []byte) (string, error) {
	return "", nil
}

// Package storage defines where rendered result files end up. Local
// directories and GCS buckets implement BlobStore.
package storage

import (
	"context"
	"io"
)

// BlobStore persists one named object and returns its URI.
type BlobStore interface {
	PutObject(ctx context.Context, path, contentType string, r io.Reader) (string, error)
}

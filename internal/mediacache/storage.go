package mediacache

import (
	"context"
	"io"
	"time"
)

// StorageDriver defines how the cache interacts with binary storage.
type StorageDriver interface {
	// Save writes the content to storage under the given key.
	Save(ctx context.Context, key string, body io.Reader, contentType string) error

	// Get returns a ReadCloser streaming the stored bytes and the content
	// type recorded at save time.
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)

	// Delete removes the stored object. Deleting a missing key is a no-op.
	Delete(ctx context.Context, key string) error

	// GenerateURL returns a public-facing URL for the stored object.
	GenerateURL(ctx context.Context, key string, expires time.Duration) (string, error)
}

package mediacache

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Cache fetches remote artifacts into storage and serves them back by
// handle. Handles are opaque UUIDs; the original remote URL is not
// recoverable from a handle and is expected to expire.
type Cache struct {
	storage      StorageDriver
	http         *http.Client
	fetchTimeout time.Duration
	logger       *slog.Logger
}

// NewCache creates a Cache over the given storage driver. fetchTimeout
// bounds each remote fetch.
func NewCache(storage StorageDriver, fetchTimeout time.Duration, logger *slog.Logger) *Cache {
	return &Cache{
		storage:      storage,
		http:         &http.Client{},
		fetchTimeout: fetchTimeout,
		logger:       logger.With("component", "media_cache"),
	}
}

// CacheRemote downloads the artifact at url and stores it under a fresh
// handle. The content type comes from the response; absent one the bytes are
// stored as application/octet-stream.
func (c *Cache) CacheRemote(ctx context.Context, url string) (uuid.UUID, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, url, nil)
	if err != nil {
		return uuid.Nil, fmt.Errorf("build fetch request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return uuid.Nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return uuid.Nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	handle := uuid.New()
	if err := c.storage.Save(ctx, handle.String(), resp.Body, contentType); err != nil {
		return uuid.Nil, fmt.Errorf("store fetched media: %w", err)
	}

	c.logger.Info("cached remote media",
		"handle", handle,
		"content_type", contentType)
	return handle, nil
}

// Put stores raw bytes under a fresh handle. Used for uploaded reference
// images, which never had a remote URL.
func (c *Cache) Put(ctx context.Context, data []byte, contentType string) (uuid.UUID, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	handle := uuid.New()
	if err := c.storage.Save(ctx, handle.String(), bytes.NewReader(data), contentType); err != nil {
		return uuid.Nil, fmt.Errorf("store media: %w", err)
	}
	return handle, nil
}

// Open streams the cached bytes for a handle.
func (c *Cache) Open(ctx context.Context, handle uuid.UUID) (io.ReadCloser, string, error) {
	return c.storage.Get(ctx, handle.String())
}

// Delete removes a cached artifact.
func (c *Cache) Delete(ctx context.Context, handle uuid.UUID) error {
	return c.storage.Delete(ctx, handle.String())
}

// URL returns a public-facing URL for a cached artifact.
func (c *Cache) URL(ctx context.Context, handle uuid.UUID, expires time.Duration) (string, error) {
	return c.storage.GenerateURL(ctx, handle.String(), expires)
}

// ResolveReferenceImages loads the raw bytes for each handle, preserving
// order. A missing handle fails the whole resolution: executing a task with
// a partial reference set would silently change its meaning.
func (c *Cache) ResolveReferenceImages(ctx context.Context, handles []uuid.UUID) ([][]byte, error) {
	if len(handles) == 0 {
		return nil, nil
	}

	images := make([][]byte, 0, len(handles))
	for _, handle := range handles {
		reader, _, err := c.storage.Get(ctx, handle.String())
		if err != nil {
			return nil, fmt.Errorf("resolve reference image %s: %w", handle, err)
		}
		data, err := io.ReadAll(reader)
		_ = reader.Close()
		if err != nil {
			return nil, fmt.Errorf("read reference image %s: %w", handle, err)
		}
		images = append(images, data)
	}
	return images, nil
}

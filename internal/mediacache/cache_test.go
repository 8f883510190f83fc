package mediacache

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/promptq/internal/mediacache/drivers"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	driver, err := drivers.NewLocalFSDriver(t.TempDir(), "")
	require.NoError(t, err)
	return NewCache(driver, 5*time.Second, slog.Default())
}

func TestCache_CacheRemote_RoundTrip(t *testing.T) {
	t.Parallel()

	payload := []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x01, 0x02}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	cache := newTestCache(t)
	ctx := context.Background()

	handle, err := cache.CacheRemote(ctx, srv.URL+"/gen/result.png")
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, handle)

	reader, contentType, err := cache.Open(ctx, handle)
	require.NoError(t, err)
	defer func() { _ = reader.Close() }()

	data := make([]byte, len(payload)+1)
	n, _ := reader.Read(data)
	assert.Equal(t, payload, data[:n], "cached bytes must be identical to the fetched artifact")
	assert.Equal(t, "image/png", contentType)
}

func TestCache_CacheRemote_HTTPErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "expired", http.StatusForbidden)
	}))
	defer srv.Close()

	cache := newTestCache(t)

	_, err := cache.CacheRemote(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestCache_CacheRemote_Unreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(nil)
	srv.Close()

	cache := newTestCache(t)

	_, err := cache.CacheRemote(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestCache_PutAndResolveReferenceImages(t *testing.T) {
	t.Parallel()

	cache := newTestCache(t)
	ctx := context.Background()

	first, err := cache.Put(ctx, []byte("first image"), "image/jpeg")
	require.NoError(t, err)
	second, err := cache.Put(ctx, []byte("second image"), "image/jpeg")
	require.NoError(t, err)

	images, err := cache.ResolveReferenceImages(ctx, []uuid.UUID{first, second})
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, "first image", string(images[0]))
	assert.Equal(t, "second image", string(images[1]))
}

func TestCache_ResolveReferenceImages_MissingHandleFails(t *testing.T) {
	t.Parallel()

	cache := newTestCache(t)
	ctx := context.Background()

	known, err := cache.Put(ctx, []byte("present"), "image/png")
	require.NoError(t, err)

	_, err = cache.ResolveReferenceImages(ctx, []uuid.UUID{known, uuid.New()})
	require.Error(t, err, "partial reference sets must not execute")
}

func TestCache_ResolveReferenceImages_Empty(t *testing.T) {
	t.Parallel()

	cache := newTestCache(t)

	images, err := cache.ResolveReferenceImages(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, images)
}

func TestCache_Delete(t *testing.T) {
	t.Parallel()

	cache := newTestCache(t)
	ctx := context.Background()

	handle, err := cache.Put(ctx, []byte("ephemeral"), "text/plain")
	require.NoError(t, err)
	require.NoError(t, cache.Delete(ctx, handle))

	_, _, err = cache.Open(ctx, handle)
	assert.Error(t, err)
}

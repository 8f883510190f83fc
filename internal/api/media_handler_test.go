package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMediaStore implements MediaStore over a map.
type fakeMediaStore struct {
	data         map[uuid.UUID][]byte
	contentTypes map[uuid.UUID]string
	putErr       error
}

func newFakeMediaStore() *fakeMediaStore {
	return &fakeMediaStore{
		data:         make(map[uuid.UUID][]byte),
		contentTypes: make(map[uuid.UUID]string),
	}
}

func (f *fakeMediaStore) Put(ctx context.Context, data []byte, contentType string) (uuid.UUID, error) {
	if f.putErr != nil {
		return uuid.Nil, f.putErr
	}
	handle := uuid.New()
	f.data[handle] = data
	f.contentTypes[handle] = contentType
	return handle, nil
}

func (f *fakeMediaStore) Open(ctx context.Context, handle uuid.UUID) (io.ReadCloser, string, error) {
	data, ok := f.data[handle]
	if !ok {
		return nil, "", errors.New("object not found")
	}
	return io.NopCloser(bytes.NewReader(data)), f.contentTypes[handle], nil
}

func newMediaRouter(cache MediaStore) http.Handler {
	handler := NewMediaHandler(cache, nil)
	r := chi.NewRouter()
	r.Get("/media/{handle}", handler.Get)
	r.Post("/media", handler.Upload)
	return r
}

func TestMediaUploadAndGet(t *testing.T) {
	t.Parallel()

	cache := newFakeMediaStore()
	router := newMediaRouter(cache)

	payload := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a}
	req := httptest.NewRequest(http.MethodPost, "/media", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "image/png")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	var resp UploadResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.NotEqual(t, uuid.Nil, resp.Handle)

	req = httptest.NewRequest(http.MethodGet, "/media/"+resp.Handle.String(), nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	assert.Equal(t, payload, rr.Body.Bytes())
}

func TestMediaUploadValidation(t *testing.T) {
	t.Parallel()

	t.Run("missing content type", func(t *testing.T) {
		t.Parallel()

		router := newMediaRouter(newFakeMediaStore())

		req := httptest.NewRequest(http.MethodPost, "/media", bytes.NewReader([]byte("data")))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("empty body", func(t *testing.T) {
		t.Parallel()

		router := newMediaRouter(newFakeMediaStore())

		req := httptest.NewRequest(http.MethodPost, "/media", bytes.NewReader(nil))
		req.Header.Set("Content-Type", "image/png")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("storage failure is internal error", func(t *testing.T) {
		t.Parallel()

		cache := newFakeMediaStore()
		cache.putErr = errors.New("disk full")
		router := newMediaRouter(cache)

		req := httptest.NewRequest(http.MethodPost, "/media", bytes.NewReader([]byte("data")))
		req.Header.Set("Content-Type", "image/png")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}

func TestMediaGetErrors(t *testing.T) {
	t.Parallel()

	router := newMediaRouter(newFakeMediaStore())

	t.Run("unknown handle is 404", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/media/"+uuid.NewString(), nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("malformed handle is 400", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/media/not-a-uuid", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

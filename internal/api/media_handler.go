package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/phrazzld/promptq/internal/api/shared"
)

// maxUploadBytes caps reference image uploads at 32 MiB.
const maxUploadBytes = 32 << 20

// MediaStore is the cache surface the media endpoints need.
// Satisfied by *mediacache.Cache.
//
// Version: 1.0
type MediaStore interface {
	Put(ctx context.Context, data []byte, contentType string) (uuid.UUID, error)
	Open(ctx context.Context, handle uuid.UUID) (io.ReadCloser, string, error)
}

// MediaHandler serves cached media and accepts reference image uploads.
type MediaHandler struct {
	cache  MediaStore
	logger *slog.Logger
}

// NewMediaHandler creates a new MediaHandler with the given dependencies.
func NewMediaHandler(cache MediaStore, logger *slog.Logger) *MediaHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MediaHandler{
		cache:  cache,
		logger: logger.With(slog.String("component", "media_handler")),
	}
}

// Get handles GET /media/{handle}. It streams the cached artifact with its
// stored content type.
func (h *MediaHandler) Get(w http.ResponseWriter, r *http.Request) {
	handle, err := getPathUUID(r, "handle")
	if err != nil {
		handleAPIError(w, r, err, "")
		return
	}

	body, contentType, err := h.cache.Open(r.Context(), handle)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusNotFound, "Media not found", err)
		return
	}
	defer func() { _ = body.Close() }()

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Warn("failed to stream cached media",
			slog.String("handle", handle.String()),
			slog.String("error", err.Error()))
	}
}

// Upload handles POST /media. The raw request body is stored in the cache
// and the resulting handle returned; upload a reference image here before
// attaching its handle to a task.
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Content-Type header is required")
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes+1))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Failed to read request body")
		return
	}
	if len(data) == 0 {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Request body is empty")
		return
	}
	if len(data) > maxUploadBytes {
		shared.RespondWithError(w, r, http.StatusRequestEntityTooLarge, "Upload exceeds size limit")
		return
	}

	handle, err := h.cache.Put(r.Context(), data, contentType)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to store media", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, UploadResponse{Handle: handle})
}

package capture

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/phrazzld/promptq/internal/events"
	"github.com/phrazzld/promptq/internal/store"
)

// RemoteFetcher is the slice of the media cache the handler needs.
type RemoteFetcher interface {
	CacheRemote(ctx context.Context, url string) (uuid.UUID, error)
}

// MediaHandler caches remote media referenced by freshly captured results.
// Fetches are best-effort: only successfully cached handles are attached to
// the stored result, and a partial failure still attaches the rest.
type MediaHandler struct {
	cache  RemoteFetcher
	tasks  store.TaskStore
	logger *slog.Logger
}

var _ events.Handler = (*MediaHandler)(nil)

// NewMediaHandler creates a MediaHandler.
func NewMediaHandler(cache RemoteFetcher, tasks store.TaskStore, logger *slog.Logger) *MediaHandler {
	return &MediaHandler{
		cache:  cache,
		tasks:  tasks,
		logger: logger.With("component", "media_handler"),
	}
}

// HandleEvent processes EventMediaCacheRequested events and ignores the rest.
func (h *MediaHandler) HandleEvent(ctx context.Context, event *events.Event) error {
	if event.Type != events.EventMediaCacheRequested {
		return nil
	}

	var payload MediaCacheRequestedPayload
	if err := event.UnmarshalPayload(&payload); err != nil {
		h.logger.Error("invalid media cache payload", "event_id", event.ID, "error", err)
		return err
	}

	log := h.logger.With("task_id", payload.TaskID, "result_id", payload.ResultID)

	handles := make([]uuid.UUID, 0, len(payload.URLs))
	for _, url := range payload.URLs {
		handle, err := h.cache.CacheRemote(ctx, url)
		if err != nil {
			log.Warn("failed to cache remote media", "url", url, "error", err)
			continue
		}
		handles = append(handles, handle)
	}

	if len(handles) == 0 {
		log.Warn("no media cached for result", "url_count", len(payload.URLs))
		return nil
	}

	if err := h.tasks.AttachCacheHandles(ctx, payload.TaskID, payload.ResultID, handles); err != nil {
		log.Error("failed to attach cache handles", "error", err)
		return err
	}

	log.Info("media cached",
		"cached", len(handles),
		"requested", len(payload.URLs))
	return nil
}

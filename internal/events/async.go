package events

import (
	"context"
	"log/slog"
	"sync"
)

// AsyncHandler wraps a Handler so dispatch returns immediately and the
// wrapped handler runs on its own goroutine. The emitter's caller is never
// blocked by slow handler work; handler errors are logged instead of
// returned. The handler runs on a context detached from the caller's
// cancellation, since the work deliberately outlives the emit.
type AsyncHandler struct {
	inner  Handler
	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewAsyncHandler creates an AsyncHandler around the given handler.
func NewAsyncHandler(inner Handler, logger *slog.Logger) *AsyncHandler {
	return &AsyncHandler{
		inner:  inner,
		logger: logger.With("component", "async_handler"),
	}
}

// HandleEvent dispatches the event to the wrapped handler on a goroutine and
// returns nil immediately.
func (h *AsyncHandler) HandleEvent(ctx context.Context, event *Event) error {
	detached := context.WithoutCancel(ctx)
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		if err := h.inner.HandleEvent(detached, event); err != nil {
			h.logger.Error("async handler failed to process event",
				"error", err,
				"event_id", event.ID,
				"event_type", event.Type)
		}
	}()
	return nil
}

// Wait blocks until every dispatched event has been handled. Used on
// shutdown so in-flight work is not abandoned.
func (h *AsyncHandler) Wait() {
	h.wg.Wait()
}

package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the engine.
const (
	// EventMediaCacheRequested asks the media cache to persist the remote
	// media referenced by a freshly appended task result.
	EventMediaCacheRequested = "media_cache_requested"

	// EventTaskStarted and EventTaskFinished track per-task execution.
	EventTaskStarted  = "task_started"
	EventTaskFinished = "task_finished"

	// EventQueueDrained signals that a queue run reached its end.
	EventQueueDrained = "queue_drained"
)

// Event is one engine notification. The payload is event-type specific and
// serialized as JSON so handlers stay decoupled from emitter packages.
type Event struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type indicates which notification this is
	Type string `json:"type"`

	// Payload contains the event-specific data serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *Event) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewEvent creates a new Event with the specified type and payload.
func NewEvent(eventType string, payload interface{}) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   payloadBytes,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Handler defines an interface for components that can handle events.
type Handler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *Event) error
}

// Emitter defines an interface for components that can emit events.
// This allows the engine to publish events without direct knowledge of
// handlers.
type Emitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *Event) error
}

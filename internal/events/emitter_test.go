package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingHandler captures every event it receives.
type recordingHandler struct {
	events []*Event
	err    error
}

func (h *recordingHandler) HandleEvent(ctx context.Context, event *Event) error {
	h.events = append(h.events, event)
	return h.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewEvent(t *testing.T) {
	t.Parallel()

	type payload struct {
		TaskID string `json:"task_id"`
	}

	event, err := NewEvent(EventTaskStarted, payload{TaskID: "abc"})
	require.NoError(t, err)
	assert.Equal(t, EventTaskStarted, event.Type)
	assert.False(t, event.CreatedAt.IsZero())

	var decoded payload
	require.NoError(t, event.UnmarshalPayload(&decoded))
	assert.Equal(t, "abc", decoded.TaskID)
}

func TestInMemoryEmitter_EmitEvent(t *testing.T) {
	t.Parallel()

	t.Run("delivers to all handlers", func(t *testing.T) {
		t.Parallel()

		emitter := NewInMemoryEmitter(testLogger())
		first := &recordingHandler{}
		second := &recordingHandler{}
		emitter.RegisterHandler(first)
		emitter.RegisterHandler(second)

		event, err := NewEvent(EventQueueDrained, nil)
		require.NoError(t, err)

		require.NoError(t, emitter.EmitEvent(context.Background(), event))
		assert.Len(t, first.events, 1)
		assert.Len(t, second.events, 1)
	})

	t.Run("handler error does not stop delivery", func(t *testing.T) {
		t.Parallel()

		emitter := NewInMemoryEmitter(testLogger())
		failing := &recordingHandler{err: errors.New("boom")}
		healthy := &recordingHandler{}
		emitter.RegisterHandler(failing)
		emitter.RegisterHandler(healthy)

		event, err := NewEvent(EventTaskFinished, nil)
		require.NoError(t, err)

		err = emitter.EmitEvent(context.Background(), event)
		assert.EqualError(t, err, "boom")
		assert.Len(t, healthy.events, 1, "later handlers still receive the event")
	})

	t.Run("no handlers is not an error", func(t *testing.T) {
		t.Parallel()

		emitter := NewInMemoryEmitter(testLogger())
		event, err := NewEvent(EventTaskStarted, nil)
		require.NoError(t, err)
		assert.NoError(t, emitter.EmitEvent(context.Background(), event))
	})
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/promptq/internal/domain"
	"github.com/phrazzld/promptq/internal/engine/scheduler"
	"github.com/phrazzld/promptq/internal/store"
)

// fakeQueue implements QueueController and records calls.
type fakeQueue struct {
	runAllIDs   []uuid.UUID
	runSingleID uuid.UUID
	fillOnly    bool
	stopped     bool
	policy      scheduler.Policy
	runErr      error
}

func (f *fakeQueue) RunAll(ids []uuid.UUID) error {
	if f.runErr != nil {
		return f.runErr
	}
	f.runAllIDs = ids
	return nil
}

func (f *fakeQueue) RunSingle(id uuid.UUID, fillOnly bool) error {
	if f.runErr != nil {
		return f.runErr
	}
	f.runSingleID = id
	f.fillOnly = fillOnly
	return nil
}

func (f *fakeQueue) Stop(ctx context.Context) error {
	f.stopped = true
	return nil
}

func (f *fakeQueue) Snapshot() scheduler.Snapshot {
	return scheduler.Snapshot{Policy: f.policy}
}

func (f *fakeQueue) SetPolicy(p scheduler.Policy) { f.policy = p }

func (f *fakeQueue) Policy() scheduler.Policy { return f.policy }

// fakeScanner implements Scanner with a fixed content list.
type fakeScanner struct {
	contents []domain.ResultContent
	err      error
}

func (f *fakeScanner) Scan(ctx context.Context) ([]domain.ResultContent, error) {
	return f.contents, f.err
}

func newQueueRouter(queue QueueController, scanner Scanner, taskStore store.TaskStore) http.Handler {
	handler := NewQueueHandler(queue, scanner, taskStore, nil)
	r := chi.NewRouter()
	r.Post("/queue/run", handler.Run)
	r.Post("/queue/run-single", handler.RunSingle)
	r.Post("/queue/stop", handler.Stop)
	r.Get("/queue/state", handler.State)
	r.Get("/queue/policy", handler.GetPolicy)
	r.Put("/queue/policy", handler.UpdatePolicy)
	r.Post("/queue/scan", handler.Scan)
	return r
}

func TestQueueRun(t *testing.T) {
	t.Parallel()

	t.Run("starts run over given ids", func(t *testing.T) {
		t.Parallel()

		queue := &fakeQueue{}
		router := newQueueRouter(queue, nil, store.NewMemoryTaskStore())

		ids := []uuid.UUID{uuid.New(), uuid.New()}
		rr := postJSON(t, router.ServeHTTP, "/queue/run", RunRequest{IDs: ids})

		require.Equal(t, http.StatusAccepted, rr.Code)
		assert.Equal(t, ids, queue.runAllIDs)
	})

	t.Run("empty id list fails validation", func(t *testing.T) {
		t.Parallel()

		queue := &fakeQueue{}
		router := newQueueRouter(queue, nil, store.NewMemoryTaskStore())

		rr := postJSON(t, router.ServeHTTP, "/queue/run", RunRequest{IDs: []uuid.UUID{}})

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Nil(t, queue.runAllIDs)
	})

	t.Run("concurrent run is a conflict", func(t *testing.T) {
		t.Parallel()

		queue := &fakeQueue{runErr: scheduler.ErrAlreadyRunning}
		router := newQueueRouter(queue, nil, store.NewMemoryTaskStore())

		rr := postJSON(t, router.ServeHTTP, "/queue/run", RunRequest{IDs: []uuid.UUID{uuid.New()}})

		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("run single passes fill-only flag", func(t *testing.T) {
		t.Parallel()

		queue := &fakeQueue{}
		router := newQueueRouter(queue, nil, store.NewMemoryTaskStore())

		id := uuid.New()
		rr := postJSON(t, router.ServeHTTP, "/queue/run-single", RunSingleRequest{ID: id, FillOnly: true})

		require.Equal(t, http.StatusAccepted, rr.Code)
		assert.Equal(t, id, queue.runSingleID)
		assert.True(t, queue.fillOnly)
	})
}

func TestQueueStopAndState(t *testing.T) {
	t.Parallel()

	queue := &fakeQueue{}
	router := newQueueRouter(queue, nil, store.NewMemoryTaskStore())

	req := httptest.NewRequest(http.MethodPost, "/queue/stop", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusAccepted, rr.Code)
	assert.True(t, queue.stopped)

	req = httptest.NewRequest(http.MethodGet, "/queue/state", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var state QueueStateResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&state))
	assert.False(t, state.Running)
}

func TestQueuePolicy(t *testing.T) {
	t.Parallel()

	queue := &fakeQueue{policy: scheduler.Policy{AutoAdvance: true}}
	router := newQueueRouter(queue, nil, store.NewMemoryTaskStore())

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/queue/policy", nil)
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var policy scheduler.Policy
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&policy))
	assert.True(t, policy.AutoAdvance)
	assert.False(t, policy.RetryOnFailure)

	payload, err := json.Marshal(PolicyRequest{AutoAdvance: false, RetryOnFailure: true})
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodPut, "/queue/policy", bytes.NewReader(payload))
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.False(t, queue.policy.AutoAdvance)
	assert.True(t, queue.policy.RetryOnFailure)
}

func TestQueueScan(t *testing.T) {
	t.Parallel()

	t.Run("imports each result as a completed task", func(t *testing.T) {
		t.Parallel()

		scanner := &fakeScanner{contents: []domain.ResultContent{
			domain.TextContent("first answer"),
			domain.ImageContent("https://cdn.example.com/fox.png"),
		}}
		taskStore := store.NewMemoryTaskStore()
		router := newQueueRouter(&fakeQueue{}, scanner, taskStore)

		rr := postJSON(t, router.ServeHTTP, "/queue/scan", ScanRequest{Tool: "gemini"})

		require.Equal(t, http.StatusCreated, rr.Code)
		var resp ScanResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		require.Len(t, resp.Imported, 2)

		for _, task := range resp.Imported {
			assert.Equal(t, domain.TaskStatusCompleted, task.Status)
			assert.Equal(t, "gemini", task.Tool)
			require.Len(t, task.Results, 1)
		}
		assert.Equal(t, domain.ResultKindText, resp.Imported[0].Results[0].Content.Kind)
		assert.Equal(t, domain.ResultKindImage, resp.Imported[1].Results[0].Content.Kind)
	})

	t.Run("scan failure is surfaced", func(t *testing.T) {
		t.Parallel()

		scanner := &fakeScanner{err: errors.New("page detached")}
		router := newQueueRouter(&fakeQueue{}, scanner, store.NewMemoryTaskStore())

		rr := postJSON(t, router.ServeHTTP, "/queue/scan", ScanRequest{Tool: "gemini"})

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})

	t.Run("missing scanner is not implemented", func(t *testing.T) {
		t.Parallel()

		router := newQueueRouter(&fakeQueue{}, nil, store.NewMemoryTaskStore())

		rr := postJSON(t, router.ServeHTTP, "/queue/scan", ScanRequest{Tool: "gemini"})

		assert.Equal(t, http.StatusNotImplemented, rr.Code)
	})
}

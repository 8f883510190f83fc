package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/phrazzld/promptq/internal/domain"
	"github.com/phrazzld/promptq/internal/engine/executor"
)

// navigateRequest is the wire form of a Navigate call.
type navigateRequest struct {
	URL string `json:"url"`
}

// scanResponse is the wire form of a Scan reply.
type scanResponse struct {
	Results []domain.ResultContent `json:"results"`
}

// errorResponse carries an execution-context error back over the wire.
type errorResponse struct {
	Error string `json:"error"`
}

// Client talks to an execution context hosted behind NewHandler over HTTP.
// Delivery failures (connection refused, timeouts on control endpoints) wrap
// ErrUnreachable so the scheduler can distinguish them from task failures.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

var _ Channel = (*Client)(nil)

// NewClient creates a Client for the execution context at baseURL. The
// underlying HTTP client carries no timeout: Execute blocks for the full
// generation and is bounded by its context instead.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		logger:  logger.With("component", "http_channel"),
	}
}

// Ping probes the execution context's health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(pingCtx, http.MethodGet, c.baseURL+"/ping", nil)
	if err != nil {
		return fmt.Errorf("build ping request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: ping returned status %d", ErrUnreachable, resp.StatusCode)
	}
	return nil
}

// Execute posts the request and blocks until the execution context replies
// with an outcome.
func (c *Client) Execute(ctx context.Context, req *executor.Request) (executor.Outcome, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return executor.Outcome{}, fmt.Errorf("encode execute request: %w", err)
	}

	resp, err := c.post(ctx, "/execute", body)
	if err != nil {
		return executor.Outcome{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return executor.Outcome{}, fmt.Errorf("execute returned status %d: %s", resp.StatusCode, readError(resp.Body))
	}

	var outcome executor.Outcome
	if err := json.NewDecoder(resp.Body).Decode(&outcome); err != nil {
		return executor.Outcome{}, fmt.Errorf("decode execute outcome: %w", err)
	}
	return outcome, nil
}

// Cancel asks the execution context to interrupt the in-flight execution.
func (c *Client) Cancel(ctx context.Context) error {
	resp, err := c.post(ctx, "/cancel", nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cancel returned status %d: %s", resp.StatusCode, readError(resp.Body))
	}
	return nil
}

// Navigate points the remote page at url.
func (c *Client) Navigate(ctx context.Context, url string) error {
	body, err := json.Marshal(navigateRequest{URL: url})
	if err != nil {
		return fmt.Errorf("encode navigate request: %w", err)
	}

	resp, err := c.post(ctx, "/navigate", body)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("navigate returned status %d: %s", resp.StatusCode, readError(resp.Body))
	}
	return nil
}

// Scan asks the remote page for every previously generated artifact.
func (c *Client) Scan(ctx context.Context) ([]domain.ResultContent, error) {
	resp, err := c.post(ctx, "/scan", nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scan returned status %d: %s", resp.StatusCode, readError(resp.Body))
	}

	var decoded scanResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode scan response: %w", err)
	}
	return decoded.Results, nil
}

func (c *Client) post(ctx context.Context, path string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	return resp, nil
}

func readError(body io.Reader) string {
	var decoded errorResponse
	if err := json.NewDecoder(body).Decode(&decoded); err != nil || decoded.Error == "" {
		return "unknown error"
	}
	return decoded.Error
}

// NewHandler exposes a Local channel over HTTP, the server half of Client.
func NewHandler(local *Local, logger *slog.Logger) http.Handler {
	h := &handler{local: local, logger: logger.With("component", "channel_handler")}

	r := chi.NewRouter()
	r.Get("/ping", h.ping)
	r.Post("/execute", h.execute)
	r.Post("/cancel", h.cancel)
	r.Post("/navigate", h.navigate)
	r.Post("/scan", h.scan)
	return r
}

type handler struct {
	local  *Local
	logger *slog.Logger
}

func (h *handler) ping(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (h *handler) execute(w http.ResponseWriter, r *http.Request) {
	var req executor.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid execute request")
		return
	}

	outcome, err := h.local.Execute(r.Context(), &req)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, outcome)
}

func (h *handler) cancel(w http.ResponseWriter, r *http.Request) {
	if err := h.local.Cancel(r.Context()); err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *handler) navigate(w http.ResponseWriter, r *http.Request) {
	var req navigateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		h.writeError(w, http.StatusBadRequest, "invalid navigate request")
		return
	}

	if err := h.local.Navigate(r.Context(), req.URL); err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *handler) scan(w http.ResponseWriter, r *http.Request) {
	results, err := h.local.Scan(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, scanResponse{Results: results})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, errorResponse{Error: msg})
}

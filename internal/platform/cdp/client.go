// Package cdp drives a page inside a running Chromium-family browser over
// the DevTools protocol. It implements the page driver interface the tool
// adapters program against, so the agent binary can host the executor next
// to a real browser tab.
package cdp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/net/websocket"
)

// Connection errors
var (
	ErrNoPageTarget = errors.New("browser exposes no page target")
	ErrClosed       = errors.New("devtools connection closed")
)

// target is one entry of the browser's /json/list endpoint.
type target struct {
	Type                 string `json:"type"`
	URL                  string `json:"url"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
}

type request struct {
	ID     int64       `json:"id"`
	Method string      `json:"method"`
	Params interface{} `json:"params,omitempty"`
}

type response struct {
	ID     int64           `json:"id"`
	Method string          `json:"method"`
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("devtools error %d: %s", e.Code, e.Message)
}

// Client is one DevTools session against one page target. Calls are
// multiplexed over a single websocket; unsolicited protocol events are
// discarded.
type Client struct {
	conn   *websocket.Conn
	logger *slog.Logger

	mu      sync.Mutex
	nextID  int64
	pending map[int64]chan *response
	closed  bool
}

// Dial discovers the first page target behind the DevTools HTTP endpoint
// and opens a session against it.
func Dial(ctx context.Context, cdpURL string, logger *slog.Logger) (*Client, error) {
	wsURL, err := discoverPageTarget(ctx, cdpURL)
	if err != nil {
		return nil, err
	}
	return dialTarget(wsURL, cdpURL, logger)
}

func discoverPageTarget(ctx context.Context, cdpURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cdpURL+"/json/list", nil)
	if err != nil {
		return "", fmt.Errorf("build target list request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("list devtools targets: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("list devtools targets: unexpected status %d", resp.StatusCode)
	}

	var targets []target
	if err := json.NewDecoder(resp.Body).Decode(&targets); err != nil {
		return "", fmt.Errorf("decode target list: %w", err)
	}
	for _, t := range targets {
		if t.Type == "page" && t.WebSocketDebuggerURL != "" {
			return t.WebSocketDebuggerURL, nil
		}
	}
	return "", ErrNoPageTarget
}

func dialTarget(wsURL, origin string, logger *slog.Logger) (*Client, error) {
	conn, err := websocket.Dial(wsURL, "", origin)
	if err != nil {
		return nil, fmt.Errorf("dial devtools target: %w", err)
	}
	// Protocol messages for a busy page can exceed the codec's default
	// frame buffer.
	conn.MaxPayloadBytes = 64 << 20

	c := &Client{
		conn:    conn,
		logger:  logger.With("component", "cdp"),
		pending: make(map[int64]chan *response),
	}
	go c.readLoop()
	return c, nil
}

// Call sends one protocol command and waits for its reply.
func (c *Client) Call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	c.nextID++
	id := c.nextID
	ch := make(chan *response, 1)
	c.pending[id] = ch
	c.mu.Unlock()

	if err := websocket.JSON.Send(c.conn, request{ID: id, Method: method, Params: params}); err != nil {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return nil, fmt.Errorf("send %s: %w", method, err)
	}

	select {
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return nil, ctx.Err()
	case resp, ok := <-ch:
		if !ok {
			return nil, ErrClosed
		}
		if resp.Error != nil {
			return nil, fmt.Errorf("%s: %w", method, resp.Error)
		}
		return resp.Result, nil
	}
}

func (c *Client) readLoop() {
	for {
		var resp response
		if err := websocket.JSON.Receive(c.conn, &resp); err != nil {
			c.fail()
			return
		}
		if resp.ID == 0 {
			// Unsolicited protocol event; nothing here subscribes to any.
			continue
		}

		c.mu.Lock()
		ch, ok := c.pending[resp.ID]
		if ok {
			delete(c.pending, resp.ID)
		}
		c.mu.Unlock()

		if !ok {
			c.logger.Debug("reply for unknown call", "id", resp.ID, "method", resp.Method)
			continue
		}
		ch <- &resp
	}
}

// fail marks the session closed and releases every waiting caller.
func (c *Client) fail() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
}

// Close tears down the websocket. In-flight calls fail with ErrClosed.
func (c *Client) Close() error {
	c.fail()
	return c.conn.Close()
}

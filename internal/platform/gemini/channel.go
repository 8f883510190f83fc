package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"time"

	"google.golang.org/genai"

	"github.com/phrazzld/promptq/internal/config"
	"github.com/phrazzld/promptq/internal/domain"
	"github.com/phrazzld/promptq/internal/engine/channel"
	"github.com/phrazzld/promptq/internal/engine/executor"
)

// Configuration errors
var (
	ErrMissingAPIKey    = errors.New("gemini API key cannot be empty")
	ErrMissingModelName = errors.New("model name cannot be empty")
)

// generateFunc is the API call the channel depends on. Satisfied by
// *genai.Client's Models service; replaced in tests.
type generateFunc func(ctx context.Context, model, prompt string) (string, error)

// APIChannel implements channel.Channel against the Gemini API. There is no
// page to detect, validate, or navigate: every accepted request is a direct
// model call.
type APIChannel struct {
	logger   *slog.Logger
	model    string
	generate generateFunc

	maxRetries int
	baseDelay  time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
}

var _ channel.Channel = (*APIChannel)(nil)

// NewAPIChannel creates an APIChannel from the Gemini configuration.
func NewAPIChannel(ctx context.Context, logger *slog.Logger, cfg config.GeminiConfig) (*APIChannel, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.ModelName == "" {
		return nil, ErrMissingModelName
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	generate := func(ctx context.Context, model, prompt string) (string, error) {
		resp, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
		if err != nil {
			return "", err
		}
		if resp == nil || len(resp.Candidates) == 0 {
			return "", errors.New("no content generated")
		}
		return resp.Text(), nil
	}

	return &APIChannel{
		logger:     logger.With("component", "gemini_api_channel"),
		model:      cfg.ModelName,
		generate:   generate,
		maxRetries: 3,
		baseDelay:  2 * time.Second,
	}, nil
}

// Ping reports the channel reachable; API-level failures surface per call.
func (c *APIChannel) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Execute sends the task prompt to the model and wraps the reply in a text
// result. Non-text tasks and fill-only runs fail: there is no editor to
// leave populated and no image pipeline behind the API surface.
func (c *APIChannel) Execute(ctx context.Context, req *executor.Request) (executor.Outcome, error) {
	if req.Task.ResultType != domain.ResultTypeText {
		return executor.Failure(fmt.Sprintf("gemini API channel supports text tasks only, got %s", req.Task.ResultType)), nil
	}
	if req.FillOnly {
		return executor.Failure("fill-only runs require a page-backed channel"), nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	if c.cancel != nil {
		c.mu.Unlock()
		cancel()
		return executor.Failure("execution already in progress"), nil
	}
	c.cancel = cancel
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.cancel = nil
		c.mu.Unlock()
		cancel()
	}()

	text, err := c.generateWithRetry(runCtx, req.Task.Prompt)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return executor.Cancelled(), nil
		}
		return executor.Failure("gemini API call: " + err.Error()), nil
	}

	result := domain.TextContent(text)
	return executor.Success(&result), nil
}

// Cancel interrupts the in-flight API call, if any.
func (c *APIChannel) Cancel(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.logger.Info("cancelling in-flight API call")
		c.cancel()
	}
	return nil
}

// Navigate is a no-op: there is no page behind the API.
func (c *APIChannel) Navigate(ctx context.Context, url string) error {
	return nil
}

// generateWithRetry calls the model with exponential backoff and jitter.
// Cancellation is never retried.
func (c *APIChannel) generateWithRetry(ctx context.Context, prompt string) (string, error) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		c.logger.InfoContext(ctx, "making Gemini API call",
			"attempt", attempt+1,
			"max_attempts", c.maxRetries+1)

		text, err := c.generate(ctx, c.model, prompt)
		if err == nil {
			return text, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		lastErr = err
		c.logger.WarnContext(ctx, "Gemini API call failed",
			"attempt", attempt+1,
			"error", err)

		if attempt == c.maxRetries {
			break
		}

		// delay = baseDelay * 2^attempt * (0.5 + rand(0, 0.5))
		backoff := float64(c.baseDelay) * math.Pow(2, float64(attempt))
		jitter := 0.5 + rng.Float64()*0.5
		delay := time.Duration(backoff * jitter)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	return "", fmt.Errorf("exceeded maximum retry attempts (%d): %w", c.maxRetries, lastErr)
}

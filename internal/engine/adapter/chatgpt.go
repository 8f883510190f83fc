package adapter

import (
	"context"
	"strings"

	"github.com/phrazzld/promptq/internal/domain"
	"github.com/phrazzld/promptq/internal/engine/page"
)

// ChatGPT page selectors. Selector breakage surfaces as step failures on the
// task, never as an engine fault.
const (
	chatgptPromptSelector     = "#prompt-textarea"
	chatgptSendSelector       = `[data-testid="send-button"]`
	chatgptBusySelector       = `[data-testid="stop-button"]`
	chatgptLastReplySelector  = `[data-message-author-role="assistant"]:last-of-type`
	chatgptReplyImageSelector = `[data-message-author-role="assistant"]:last-of-type img`
	chatgptFileInputSelector  = `input[type="file"]`
)

var chatgptHosts = []string{"chatgpt.com", "chat.openai.com"}

// ChatGPT drives the ChatGPT web interface. It supports text and image
// tasks; image output arrives inline in the conversation, so no mode
// switching (and therefore no redirect) is ever needed.
type ChatGPT struct {
	page page.Page
	cfg  Config
}

var (
	_ Adapter        = (*ChatGPT)(nil)
	_ StateValidator = (*ChatGPT)(nil)
	_ EditorClearer  = (*ChatGPT)(nil)
	_ ImageFiller    = (*ChatGPT)(nil)
)

// NewChatGPT creates a ChatGPT adapter bound to the given page.
func NewChatGPT(p page.Page, cfg Config) *ChatGPT {
	return &ChatGPT{page: p, cfg: cfg}
}

func (a *ChatGPT) Name() string { return "chatgpt" }

// Detect reports whether the current page origin belongs to ChatGPT.
func (a *ChatGPT) Detect(ctx context.Context) (bool, error) {
	host, err := pageHost(ctx, a.page)
	if err != nil {
		return false, err
	}
	for _, h := range chatgptHosts {
		if host == h {
			return true, nil
		}
	}
	return false, nil
}

// ValidateState confirms the conversation can produce the task's expected
// result type. ChatGPT has no video surface, so video tasks are invalid with
// no corrective URL.
func (a *ChatGPT) ValidateState(ctx context.Context, task domain.Task) (Validation, error) {
	if task.ResultType == domain.ResultTypeVideo {
		return Validation{Valid: false, Reason: "chatgpt cannot produce video"}, nil
	}
	return Validation{Valid: true}, nil
}

// ClearEditor resets the composer so a previous run's prompt or attachments
// cannot leak into this one.
func (a *ChatGPT) ClearEditor(ctx context.Context) error {
	return a.page.ClearInput(ctx, chatgptPromptSelector)
}

// FillImages attaches reference images one at a time. The composer drops
// files attached while it is still ingesting the previous one.
func (a *ChatGPT) FillImages(ctx context.Context, images [][]byte) error {
	for _, img := range images {
		if err := a.page.AttachFiles(ctx, chatgptFileInputSelector, [][]byte{img}); err != nil {
			return err
		}
		if err := settle(ctx, a.cfg.ImageSettle); err != nil {
			return err
		}
	}
	return nil
}

// FillPrompt writes the prompt into the composer.
func (a *ChatGPT) FillPrompt(ctx context.Context, text string) error {
	return a.page.SetText(ctx, chatgptPromptSelector, text)
}

// ClickSend submits the composed prompt.
func (a *ChatGPT) ClickSend(ctx context.Context) error {
	return a.page.Click(ctx, chatgptSendSelector)
}

// WaitForCompletion polls until the stop button disappears.
func (a *ChatGPT) WaitForCompletion(ctx context.Context) error {
	return awaitIndicatorClear(ctx, a.cfg, func(ctx context.Context) (bool, error) {
		return a.page.Exists(ctx, chatgptBusySelector)
	})
}

// LatestResult reads the newest assistant message. When images are expected
// and present they win; otherwise the message text is captured.
func (a *ChatGPT) LatestResult(ctx context.Context, expected domain.ResultType) (*domain.ResultContent, error) {
	urls, err := a.page.AttrAll(ctx, chatgptReplyImageSelector, "src")
	if err != nil {
		return nil, err
	}
	urls = dropEmpty(urls)

	if expected == domain.ResultTypeImage || (expected == domain.ResultTypeMixed && len(urls) > 0) {
		if len(urls) > 0 {
			content := domain.ImageContent(urls...)
			return &content, nil
		}
		// Fall back to whatever was actually produced.
	}

	text, err := a.page.Text(ctx, chatgptLastReplySelector)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoResult
	}
	content := domain.TextContent(text)
	return &content, nil
}

func dropEmpty(values []string) []string {
	kept := values[:0]
	for _, v := range values {
		if v != "" {
			kept = append(kept, v)
		}
	}
	return kept
}

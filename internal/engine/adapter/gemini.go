package adapter

import (
	"context"
	"strings"

	"github.com/phrazzld/promptq/internal/domain"
	"github.com/phrazzld/promptq/internal/engine/page"
)

// Gemini page selectors and mode URLs.
const (
	geminiHost = "gemini.google.com"

	geminiChatURL  = "https://gemini.google.com/app"
	geminiImageURL = "https://gemini.google.com/gem/image-generation"
	geminiVideoURL = "https://gemini.google.com/gem/video-generation"

	geminiEditorSelector     = "rich-textarea .ql-editor"
	geminiSendSelector       = "button.send-button"
	geminiBusySelector       = ".response-loading-indicator"
	geminiLastReplySelector  = "model-response:last-of-type .markdown"
	geminiReplyImageSelector = "model-response:last-of-type img.generated-image"
	geminiReplyVideoSelector = "model-response:last-of-type video source"
)

// Gemini drives the Gemini web interface. Image and video generation live
// behind dedicated gem pages, so a task with the wrong expected result type
// for the current page resolves to a redirect rather than a failure.
type Gemini struct {
	page page.Page
	cfg  Config
}

var (
	_ Adapter        = (*Gemini)(nil)
	_ StateValidator = (*Gemini)(nil)
	_ EditorClearer  = (*Gemini)(nil)
	_ ImageFiller    = (*Gemini)(nil)
)

// NewGemini creates a Gemini adapter bound to the given page.
func NewGemini(p page.Page, cfg Config) *Gemini {
	return &Gemini{page: p, cfg: cfg}
}

func (a *Gemini) Name() string { return "gemini" }

// Detect reports whether the current page origin belongs to Gemini.
func (a *Gemini) Detect(ctx context.Context) (bool, error) {
	host, err := pageHost(ctx, a.page)
	if err != nil {
		return false, err
	}
	return host == geminiHost, nil
}

// ValidateState confirms the loaded gem matches the task's expected result
// type, offering the corrective gem URL when it does not.
func (a *Gemini) ValidateState(ctx context.Context, task domain.Task) (Validation, error) {
	current, err := a.page.URL(ctx)
	if err != nil {
		return Validation{}, err
	}

	target := geminiChatURL
	switch task.ResultType {
	case domain.ResultTypeImage:
		target = geminiImageURL
	case domain.ResultTypeVideo:
		target = geminiVideoURL
	}

	if strings.HasPrefix(current, target) {
		return Validation{Valid: true}, nil
	}
	return Validation{
		Valid:       false,
		RedirectURL: target,
		Reason:      "page is not in the mode the task expects",
	}, nil
}

// ClearEditor resets the prompt editor.
func (a *Gemini) ClearEditor(ctx context.Context) error {
	return a.page.ClearInput(ctx, geminiEditorSelector)
}

// FillImages attaches reference images one at a time with a settling pause;
// the upload widget re-renders after each file and loses concurrent ones.
func (a *Gemini) FillImages(ctx context.Context, images [][]byte) error {
	for _, img := range images {
		if err := a.page.AttachFiles(ctx, `input[type="file"]`, [][]byte{img}); err != nil {
			return err
		}
		if err := settle(ctx, a.cfg.ImageSettle); err != nil {
			return err
		}
	}
	return nil
}

// FillPrompt writes the prompt into the Quill editor and fires the editor's
// own change event on top of the synthetic input/change pair; Quill tracks
// content through its own event.
func (a *Gemini) FillPrompt(ctx context.Context, text string) error {
	if err := a.page.SetText(ctx, geminiEditorSelector, text); err != nil {
		return err
	}
	return a.page.DispatchEvent(ctx, geminiEditorSelector, "text-change")
}

// ClickSend submits the composed prompt.
func (a *Gemini) ClickSend(ctx context.Context) error {
	return a.page.Click(ctx, geminiSendSelector)
}

// WaitForCompletion polls until the response loading indicator clears.
func (a *Gemini) WaitForCompletion(ctx context.Context) error {
	return awaitIndicatorClear(ctx, a.cfg, func(ctx context.Context) (bool, error) {
		return a.page.Exists(ctx, geminiBusySelector)
	})
}

// LatestResult reads the newest model response, preferring the expected
// artifact kind and falling back to whatever the response actually holds.
func (a *Gemini) LatestResult(ctx context.Context, expected domain.ResultType) (*domain.ResultContent, error) {
	switch expected {
	case domain.ResultTypeVideo:
		if content, err := a.latestVideo(ctx); err != nil || content != nil {
			return content, err
		}
	case domain.ResultTypeImage:
		if content, err := a.latestImages(ctx); err != nil || content != nil {
			return content, err
		}
	case domain.ResultTypeMixed:
		if content, err := a.latestVideo(ctx); err != nil || content != nil {
			return content, err
		}
		if content, err := a.latestImages(ctx); err != nil || content != nil {
			return content, err
		}
	}

	text, err := a.page.Text(ctx, geminiLastReplySelector)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoResult
	}
	content := domain.TextContent(text)
	return &content, nil
}

func (a *Gemini) latestImages(ctx context.Context) (*domain.ResultContent, error) {
	urls, err := a.page.AttrAll(ctx, geminiReplyImageSelector, "src")
	if err != nil {
		return nil, err
	}
	urls = dropEmpty(urls)
	if len(urls) == 0 {
		return nil, nil
	}
	content := domain.ImageContent(urls...)
	return &content, nil
}

func (a *Gemini) latestVideo(ctx context.Context) (*domain.ResultContent, error) {
	src, err := a.page.Attr(ctx, geminiReplyVideoSelector, "src")
	if err != nil {
		return nil, err
	}
	if src == "" {
		return nil, nil
	}
	content := domain.VideoContent(src)
	return &content, nil
}

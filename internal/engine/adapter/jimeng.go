package adapter

import (
	"context"
	"strings"

	"github.com/phrazzld/promptq/internal/domain"
	"github.com/phrazzld/promptq/internal/engine/page"
)

// Jimeng page selectors and mode URLs.
const (
	jimengHost = "jimeng.jianying.com"

	jimengImageURL = "https://jimeng.jianying.com/ai-tool/image/generate"
	jimengVideoURL = "https://jimeng.jianying.com/ai-tool/video/generate"

	jimengPromptSelector    = ".prompt-input textarea"
	jimengSendSelector      = ".generate-button"
	jimengBusySelector      = ".generating-mask"
	jimengFileInputSelector = `.reference-upload input[type="file"]`

	jimengLatestImageSelector = ".record-card:first-of-type img"
	jimengLatestVideoSelector = ".record-card:first-of-type video"
	jimengAllImagesSelector   = ".record-card img"
	jimengAllVideosSelector   = ".record-card video"
)

// Jimeng drives the Jimeng generation tool. Image and video generation are
// separate routes of the same app; the record panel keeps every past
// generation on the page, which makes full-page scanning possible.
type Jimeng struct {
	page page.Page
	cfg  Config
}

var (
	_ Adapter        = (*Jimeng)(nil)
	_ StateValidator = (*Jimeng)(nil)
	_ ImageFiller    = (*Jimeng)(nil)
	_ ResultScanner  = (*Jimeng)(nil)
)

// NewJimeng creates a Jimeng adapter bound to the given page.
func NewJimeng(p page.Page, cfg Config) *Jimeng {
	return &Jimeng{page: p, cfg: cfg}
}

func (a *Jimeng) Name() string { return "jimeng" }

// Detect reports whether the current page origin belongs to Jimeng.
func (a *Jimeng) Detect(ctx context.Context) (bool, error) {
	host, err := pageHost(ctx, a.page)
	if err != nil {
		return false, err
	}
	return host == jimengHost, nil
}

// ValidateState confirms the loaded route matches the task's expected result
// type. Text tasks have no Jimeng surface at all.
func (a *Jimeng) ValidateState(ctx context.Context, task domain.Task) (Validation, error) {
	current, err := a.page.URL(ctx)
	if err != nil {
		return Validation{}, err
	}

	var target string
	switch task.ResultType {
	case domain.ResultTypeImage:
		target = jimengImageURL
	case domain.ResultTypeVideo:
		target = jimengVideoURL
	default:
		return Validation{Valid: false, Reason: "jimeng only produces images and video"}, nil
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

// FillImages attaches reference images one at a time with a settling pause.
func (a *Jimeng) FillImages(ctx context.Context, images [][]byte) error {
	for _, img := range images {
		if err := a.page.AttachFiles(ctx, jimengFileInputSelector, [][]byte{img}); err != nil {
			return err
		}
		if err := settle(ctx, a.cfg.ImageSettle); err != nil {
			return err
		}
	}
	return nil
}

// FillPrompt writes the prompt and fires compositionend; the editor commits
// input through composition events.
func (a *Jimeng) FillPrompt(ctx context.Context, text string) error {
	if err := a.page.SetText(ctx, jimengPromptSelector, text); err != nil {
		return err
	}
	return a.page.DispatchEvent(ctx, jimengPromptSelector, "compositionend")
}

// ClickSend submits the composed prompt.
func (a *Jimeng) ClickSend(ctx context.Context) error {
	return a.page.Click(ctx, jimengSendSelector)
}

// WaitForCompletion polls until the generating mask clears.
func (a *Jimeng) WaitForCompletion(ctx context.Context) error {
	return awaitIndicatorClear(ctx, a.cfg, func(ctx context.Context) (bool, error) {
		return a.page.Exists(ctx, jimengBusySelector)
	})
}

// LatestResult reads the newest record card.
func (a *Jimeng) LatestResult(ctx context.Context, expected domain.ResultType) (*domain.ResultContent, error) {
	if expected == domain.ResultTypeVideo || expected == domain.ResultTypeMixed {
		src, err := a.page.Attr(ctx, jimengLatestVideoSelector, "src")
		if err != nil {
			return nil, err
		}
		if src != "" {
			content := domain.VideoContent(src)
			return &content, nil
		}
		if expected == domain.ResultTypeVideo {
			return nil, ErrNoResult
		}
	}

	urls, err := a.page.AttrAll(ctx, jimengLatestImageSelector, "src")
	if err != nil {
		return nil, err
	}
	urls = dropEmpty(urls)
	if len(urls) == 0 {
		return nil, ErrNoResult
	}
	content := domain.ImageContent(urls...)
	return &content, nil
}

// ScanAllResults sweeps the record panel for every artifact on the page,
// newest first, for bulk import.
func (a *Jimeng) ScanAllResults(ctx context.Context) ([]domain.ResultContent, error) {
	var found []domain.ResultContent

	videos, err := a.page.AttrAll(ctx, jimengAllVideosSelector, "src")
	if err != nil {
		return nil, err
	}
	for _, src := range dropEmpty(videos) {
		found = append(found, domain.VideoContent(src))
	}

	images, err := a.page.AttrAll(ctx, jimengAllImagesSelector, "src")
	if err != nil {
		return nil, err
	}
	for _, src := range dropEmpty(images) {
		found = append(found, domain.ImageContent(src))
	}

	return found, nil
}

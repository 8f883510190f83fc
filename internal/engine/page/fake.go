package page

import (
	"context"
	"sync"
)

// FakePage implements Page against an in-memory scripted document, for
// testing adapters and the execution pipeline. Zero value is unusable; use
// NewFakePage.
type FakePage struct {
	mu sync.Mutex

	// CurrentURL is what URL returns; Navigate rewrites it.
	CurrentURL string

	// Texts maps selector -> text content.
	Texts map[string]string

	// Attrs maps selector+"\x00"+name -> attribute values in document order.
	Attrs map[string][]string

	// Present marks selectors Exists answers true for.
	Present map[string]bool

	// Recorded interactions.
	Inputs    map[string]string
	Events    []string
	Clicks    []string
	Files     map[string][][]byte
	Cleared   []string
	Navigated []string

	// Err, when set, is returned by every mutating operation.
	Err error
}

var _ Page = (*FakePage)(nil)

// NewFakePage creates an empty FakePage at the given URL.
func NewFakePage(url string) *FakePage {
	return &FakePage{
		CurrentURL: url,
		Texts:      make(map[string]string),
		Attrs:      make(map[string][]string),
		Present:    make(map[string]bool),
		Inputs:     make(map[string]string),
		Files:      make(map[string][][]byte),
	}
}

// SetAttr scripts the attribute values returned for a selector.
func (p *FakePage) SetAttr(selector, name string, values ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Attrs[selector+"\x00"+name] = values
	p.Present[selector] = true
}

// SetText content for a selector (scripting helper, not the Page method).
func (p *FakePage) Script(selector, text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Texts[selector] = text
	p.Present[selector] = true
}

// Remove unscripts a selector so Exists reports false again.
func (p *FakePage) Remove(selector string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.Present, selector)
	delete(p.Texts, selector)
}

func (p *FakePage) URL(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.CurrentURL, nil
}

func (p *FakePage) Navigate(ctx context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.CurrentURL = url
	p.Navigated = append(p.Navigated, url)
	return nil
}

func (p *FakePage) Exists(ctx context.Context, selector string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Present[selector], nil
}

func (p *FakePage) Text(ctx context.Context, selector string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Texts[selector], nil
}

func (p *FakePage) Attr(ctx context.Context, selector, name string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	values := p.Attrs[selector+"\x00"+name]
	if len(values) == 0 {
		return "", nil
	}
	return values[0], nil
}

func (p *FakePage) AttrAll(ctx context.Context, selector, name string) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.Attrs[selector+"\x00"+name]...), nil
}

func (p *FakePage) SetText(ctx context.Context, selector, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.Inputs[selector] = text
	p.Events = append(p.Events, selector+":input", selector+":change")
	return nil
}

func (p *FakePage) ClearInput(ctx context.Context, selector string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.Inputs[selector] = ""
	p.Cleared = append(p.Cleared, selector)
	p.Events = append(p.Events, selector+":input", selector+":change")
	return nil
}

func (p *FakePage) DispatchEvent(ctx context.Context, selector, event string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.Events = append(p.Events, selector+":"+event)
	return nil
}

func (p *FakePage) Click(ctx context.Context, selector string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.Clicks = append(p.Clicks, selector)
	return nil
}

func (p *FakePage) AttachFiles(ctx context.Context, selector string, files [][]byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.Files[selector] = append(p.Files[selector], files...)
	return nil
}

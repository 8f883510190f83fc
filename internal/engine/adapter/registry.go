package adapter

import (
	"context"
	"net/url"

	"github.com/phrazzld/promptq/internal/engine/page"
)

// Registry holds the closed set of adapters bound to one page. Selection is
// a linear scan evaluating each adapter's Detect against the current page;
// the first match wins and no match is a valid terminal state.
type Registry struct {
	adapters []Adapter
}

// NewRegistry creates a Registry with the full built-in adapter set bound to
// the given page.
func NewRegistry(p page.Page, cfg Config) *Registry {
	return NewRegistryWith(
		NewChatGPT(p, cfg),
		NewGemini(p, cfg),
		NewJimeng(p, cfg),
	)
}

// NewRegistryWith creates a Registry over an explicit adapter set, in
// selection order.
func NewRegistryWith(adapters ...Adapter) *Registry {
	return &Registry{adapters: adapters}
}

// Select returns the first adapter whose Detect reports true, or false when
// no adapter claims the current page.
func (r *Registry) Select(ctx context.Context) (Adapter, bool, error) {
	for _, a := range r.adapters {
		ok, err := a.Detect(ctx)
		if err != nil {
			return nil, false, err
		}
		if ok {
			return a, true, nil
		}
	}
	return nil, false, nil
}

// ByName returns the adapter with the given tool name regardless of what
// page is loaded, for callers that already know the tool (bulk import).
func (r *Registry) ByName(name string) (Adapter, bool) {
	for _, a := range r.adapters {
		if a.Name() == name {
			return a, true
		}
	}
	return nil, false
}

// pageHost extracts the hostname of the page's current location. An
// unparsable URL yields an empty host, which no adapter matches.
func pageHost(ctx context.Context, p page.Page) (string, error) {
	raw, err := p.URL(ctx)
	if err != nil {
		return "", err
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", nil
	}
	return u.Hostname(), nil
}

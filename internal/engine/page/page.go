// Package page defines the driver boundary between tool adapters and the
// foreign page they manipulate. Adapters own all selector knowledge; a Page
// implementation owns how those selectors are resolved against a real
// document (remote page agent, headless browser, or a test fake).
package page

import "context"

// Page exposes the DOM operations adapters need to drive one foreign page.
// All operations are asynchronous with respect to the page's own framework:
// implementations of SetText and ClearInput must dispatch the synthetic
// input/change signals the page's framework expects, since direct property
// assignment bypasses reactive dirty-checking.
// Version: 1.0
type Page interface {
	// URL returns the page's current location.
	URL(ctx context.Context) (string, error)

	// Navigate loads the given URL in the page's context.
	Navigate(ctx context.Context, url string) error

	// Exists reports whether at least one element matches the selector.
	Exists(ctx context.Context, selector string) (bool, error)

	// Text returns the text content of the first element matching the
	// selector.
	Text(ctx context.Context, selector string) (string, error)

	// Attr returns the named attribute of the first element matching the
	// selector.
	Attr(ctx context.Context, selector, name string) (string, error)

	// AttrAll returns the named attribute of every element matching the
	// selector, in document order.
	AttrAll(ctx context.Context, selector, name string) ([]string, error)

	// SetText writes text into the input surface matching the selector and
	// dispatches synthetic input/change events.
	SetText(ctx context.Context, selector, text string) error

	// ClearInput resets the input surface matching the selector, dispatching
	// the same synthetic events as SetText.
	ClearInput(ctx context.Context, selector string) error

	// DispatchEvent fires a named DOM event on the first element matching
	// the selector.
	DispatchEvent(ctx context.Context, selector, event string) error

	// Click triggers a click on the first element matching the selector.
	Click(ctx context.Context, selector string) error

	// AttachFiles injects binary payloads into the upload mechanism matching
	// the selector.
	AttachFiles(ctx context.Context, selector string, files [][]byte) error
}

package cdp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	enginepage "github.com/phrazzld/promptq/internal/engine/page"
)

// Page adapts a devtools session to the driver interface adapters program
// against. Every DOM operation is one Runtime.evaluate round trip; the
// synthetic input/change dispatches the interface demands are part of the
// evaluated snippets.
type Page struct {
	client *Client
}

var _ enginepage.Page = (*Page)(nil)

// NewPage wraps a devtools session.
func NewPage(client *Client) *Page {
	return &Page{client: client}
}

func (p *Page) URL(ctx context.Context) (string, error) {
	var url string
	if err := p.eval(ctx, "location.href", &url); err != nil {
		return "", err
	}
	return url, nil
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	raw, err := p.client.Call(ctx, "Page.navigate", map[string]string{"url": url})
	if err != nil {
		return err
	}
	var result struct {
		ErrorText string `json:"errorText"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return fmt.Errorf("decode navigate result: %w", err)
	}
	if result.ErrorText != "" {
		return fmt.Errorf("navigate to %s: %s", url, result.ErrorText)
	}
	return nil
}

func (p *Page) Exists(ctx context.Context, selector string) (bool, error) {
	var found bool
	expr := fmt.Sprintf("document.querySelector(%s) !== null", jsString(selector))
	if err := p.eval(ctx, expr, &found); err != nil {
		return false, err
	}
	return found, nil
}

func (p *Page) Text(ctx context.Context, selector string) (string, error) {
	var text string
	expr := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) throw new Error("no element matches selector");
		return el.textContent;
	})()`, jsString(selector))
	if err := p.eval(ctx, expr, &text); err != nil {
		return "", err
	}
	return text, nil
}

func (p *Page) Attr(ctx context.Context, selector, name string) (string, error) {
	var value string
	expr := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) throw new Error("no element matches selector");
		return el.getAttribute(%s) ?? "";
	})()`, jsString(selector), jsString(name))
	if err := p.eval(ctx, expr, &value); err != nil {
		return "", err
	}
	return value, nil
}

func (p *Page) AttrAll(ctx context.Context, selector, name string) ([]string, error) {
	var values []string
	expr := fmt.Sprintf(
		`Array.from(document.querySelectorAll(%s), el => el.getAttribute(%s) ?? "")`,
		jsString(selector), jsString(name))
	if err := p.eval(ctx, expr, &values); err != nil {
		return nil, err
	}
	return values, nil
}

// SetText writes through the prototype's value setter so framework
// dirty-checking sees the change, then fires the synthetic events.
func (p *Page) SetText(ctx context.Context, selector, text string) error {
	expr := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) throw new Error("no element matches selector");
		const proto = el instanceof HTMLTextAreaElement ? HTMLTextAreaElement.prototype
			: el instanceof HTMLInputElement ? HTMLInputElement.prototype
			: null;
		if (proto) {
			Object.getOwnPropertyDescriptor(proto, "value").set.call(el, %s);
		} else {
			el.textContent = %s;
		}
		el.dispatchEvent(new Event("input", {bubbles: true}));
		el.dispatchEvent(new Event("change", {bubbles: true}));
	})()`, jsString(selector), jsString(text), jsString(text))
	return p.eval(ctx, expr, nil)
}

func (p *Page) ClearInput(ctx context.Context, selector string) error {
	return p.SetText(ctx, selector, "")
}

func (p *Page) DispatchEvent(ctx context.Context, selector, event string) error {
	expr := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) throw new Error("no element matches selector");
		el.dispatchEvent(new Event(%s, {bubbles: true}));
	})()`, jsString(selector), jsString(event))
	return p.eval(ctx, expr, nil)
}

func (p *Page) Click(ctx context.Context, selector string) error {
	expr := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) throw new Error("no element matches selector");
		el.click();
	})()`, jsString(selector))
	return p.eval(ctx, expr, nil)
}

// AttachFiles rebuilds the payloads as File objects inside the page and
// assigns them to the input's file list.
func (p *Page) AttachFiles(ctx context.Context, selector string, files [][]byte) error {
	encoded := make([]string, len(files))
	for i, data := range files {
		encoded[i] = base64.StdEncoding.EncodeToString(data)
	}
	payloads, err := json.Marshal(encoded)
	if err != nil {
		return fmt.Errorf("encode attachments: %w", err)
	}

	expr := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) throw new Error("no element matches selector");
		const dt = new DataTransfer();
		%s.forEach((b64, i) => {
			const bin = atob(b64);
			const bytes = new Uint8Array(bin.length);
			for (let j = 0; j < bin.length; j++) bytes[j] = bin.charCodeAt(j);
			dt.items.add(new File([bytes], "attachment-" + i + ".png"));
		});
		el.files = dt.files;
		el.dispatchEvent(new Event("change", {bubbles: true}));
	})()`, jsString(selector), payloads)
	return p.eval(ctx, expr, nil)
}

// eval runs an expression in the page and decodes its by-value result into
// out. A nil out discards the result.
func (p *Page) eval(ctx context.Context, expr string, out interface{}) error {
	raw, err := p.client.Call(ctx, "Runtime.evaluate", map[string]interface{}{
		"expression":    expr,
		"returnByValue": true,
		"awaitPromise":  true,
	})
	if err != nil {
		return err
	}

	var result struct {
		Result struct {
			Type  string          `json:"type"`
			Value json.RawMessage `json:"value"`
		} `json:"result"`
		ExceptionDetails *struct {
			Text      string `json:"text"`
			Exception struct {
				Description string `json:"description"`
			} `json:"exception"`
		} `json:"exceptionDetails"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return fmt.Errorf("decode evaluate result: %w", err)
	}
	if details := result.ExceptionDetails; details != nil {
		message := details.Exception.Description
		if message == "" {
			message = details.Text
		}
		return fmt.Errorf("page script failed: %s", message)
	}
	if out == nil || result.Result.Value == nil {
		return nil
	}
	if err := json.Unmarshal(result.Result.Value, out); err != nil {
		return fmt.Errorf("decode evaluate value: %w", err)
	}
	return nil
}

// jsString embeds a Go string as a JavaScript string literal.
func jsString(s string) string {
	quoted, _ := json.Marshal(s)
	return string(quoted)
}

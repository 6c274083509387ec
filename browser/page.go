package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// PageDriver implements Driver over one stealth Rod page. One page context
// is shared by everything driving the browser; concurrent navigation from
// multiple callers will corrupt each other's page state, so callers are
// expected to sequence their operations.
type PageDriver struct {
	mgr  *Manager
	mu   sync.Mutex
	page *rod.Page
}

// NewPageDriver creates a PageDriver on the given manager. The page itself
// is created lazily on first use, so the manager may be started later.
func NewPageDriver(mgr *Manager) *PageDriver {
	return &PageDriver{mgr: mgr}
}

// ensurePage creates the stealth page on first use.
func (d *PageDriver) ensurePage() (*rod.Page, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.page != nil {
		return d.page, nil
	}

	b := d.mgr.Browser()
	if b == nil {
		return nil, ErrNoBrowser
	}

	page, err := stealth.Page(b)
	if err != nil {
		return nil, fmt.Errorf("browser: create page: %w", err)
	}

	if len(d.mgr.cfg.ResourceBlocking) > 0 {
		if err := applyResourceBlocking(page, d.mgr.cfg.ResourceBlocking); err != nil {
			d.mgr.cfg.Logger.Warn("browser: resource blocking failed", "error", err)
		}
	}

	d.page = page
	return page, nil
}

// Navigate loads url and waits for the page load event.
func (d *PageDriver) Navigate(ctx context.Context, url string) error {
	page, err := d.ensurePage()
	if err != nil {
		return err
	}

	navCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := page.Context(navCtx).Navigate(url); err != nil {
		return fmt.Errorf("browser: navigate %s: %w", url, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		d.mgr.cfg.Logger.Warn("browser: wait load timeout", "url", url, "error", err)
	}
	return nil
}

// Click resolves selector in-page (bracket-index notation supported) and
// dispatches a real mouse click on the first match.
func (d *PageDriver) Click(ctx context.Context, selector string) error {
	page, err := d.ensurePage()
	if err != nil {
		return err
	}

	res, err := page.Context(ctx).Eval(resolveFirstJS(selector))
	if err != nil {
		return fmt.Errorf("browser: resolve %q: %w", selector, err)
	}
	if !res.Value.Bool() {
		return fmt.Errorf("browser: no element for selector %q", selector)
	}

	el, err := page.Context(ctx).Element(markedAttrSelector)
	if err != nil {
		return fmt.Errorf("browser: locate %q: %w", selector, err)
	}
	defer clearMark(ctx, page)

	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("browser: click %q: %w", selector, err)
	}
	return nil
}

// Type resolves selector and types text into the first match.
func (d *PageDriver) Type(ctx context.Context, selector, text string) error {
	page, err := d.ensurePage()
	if err != nil {
		return err
	}

	res, err := page.Context(ctx).Eval(resolveFirstJS(selector))
	if err != nil {
		return fmt.Errorf("browser: resolve %q: %w", selector, err)
	}
	if !res.Value.Bool() {
		return fmt.Errorf("browser: no element for selector %q", selector)
	}

	el, err := page.Context(ctx).Element(markedAttrSelector)
	if err != nil {
		return fmt.Errorf("browser: locate %q: %w", selector, err)
	}
	defer clearMark(ctx, page)

	if err := el.Input(text); err != nil {
		return fmt.Errorf("browser: type into %q: %w", selector, err)
	}
	return nil
}

// Screenshot captures the current page as PNG.
func (d *PageDriver) Screenshot(ctx context.Context, fullPage bool) ([]byte, error) {
	page, err := d.ensurePage()
	if err != nil {
		return nil, err
	}

	data, err := page.Context(ctx).Screenshot(fullPage, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, fmt.Errorf("browser: screenshot: %w", err)
	}
	return data, nil
}

// Snapshot returns an accessibility-style listing of the page's visible
// interactive and content elements.
func (d *PageDriver) Snapshot(ctx context.Context) ([]Element, error) {
	raw, err := d.Evaluate(ctx, snapshotJS)
	if err != nil {
		return nil, err
	}

	var els []Element
	if err := json.Unmarshal([]byte(raw), &els); err != nil {
		return nil, fmt.Errorf("browser: decode snapshot: %w", err)
	}
	return els, nil
}

// Evaluate runs js (an argument-less arrow function returning a JSON
// string) in the page and returns the string result.
func (d *PageDriver) Evaluate(ctx context.Context, js string) (string, error) {
	page, err := d.ensurePage()
	if err != nil {
		return "", err
	}

	res, err := page.Context(ctx).Eval(js)
	if err != nil {
		return "", fmt.Errorf("browser: eval: %w", err)
	}
	return res.Value.Str(), nil
}

// Close closes the driver's page. The manager's browser stays up.
func (d *PageDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.page != nil {
		err := d.page.Close()
		d.page = nil
		return err
	}
	return nil
}

// markedAttrSelector finds the element tagged by resolveFirstJS so Rod can
// operate on it with real input events.
const markedAttrSelector = `[data-bmcp-target="1"]`

func clearMark(ctx context.Context, page *rod.Page) {
	page.Context(ctx).Eval(`() => {
		for (const el of document.querySelectorAll('[data-bmcp-target]')) {
			el.removeAttribute('data-bmcp-target');
		}
		return "";
	}`)
}

// resolveFirstJS builds a script that resolves our selector notation
// (descendant parts, each optionally suffixed "[n]" for the n-th sibling
// match) to the first matching element and tags it for Rod. Returns
// whether a match was found.
func resolveFirstJS(selector string) string {
	return fmt.Sprintf(`() => {
		const resolve = (sel) => {
			let ctxs = [document];
			for (const part of sel.split(/\s+/).filter(Boolean)) {
				const m = part.match(/^(.*)\[(\d+)\]$/);
				const base = m ? m[1] : part;
				const idx = m ? parseInt(m[2], 10) : -1;
				const next = [];
				for (const c of ctxs) {
					const found = c.querySelectorAll(base);
					if (idx >= 0) {
						if (found[idx]) next.push(found[idx]);
					} else {
						next.push(...found);
					}
				}
				ctxs = next;
			}
			return ctxs;
		};
		const els = resolve(%q);
		if (els.length === 0) return false;
		els[0].setAttribute('data-bmcp-target', '1');
		return true;
	}`, selector)
}

// snapshotJS lists visible interactive/content elements with role, name,
// selector, bounds, and text. Selectors are built by walking up the tree,
// using tag + first class per step and a bracketed index when siblings
// share the same shape.
const snapshotJS = `() => {
	const roleOf = (el) => {
		const tag = el.tagName.toLowerCase();
		if (tag === 'a') return 'link';
		if (tag === 'button') return 'button';
		if (tag === 'input') {
			const t = (el.getAttribute('type') || 'text').toLowerCase();
			if (t === 'button' || t === 'submit' || t === 'reset') return 'button';
			return 'textbox';
		}
		if (tag === 'textarea') return 'textbox';
		if (tag === 'select') return 'combobox';
		if (/^h[1-6]$/.test(tag)) return 'heading';
		if (tag === 'img') return 'image';
		return 'text';
	};
	const stepOf = (el) => {
		let step = el.tagName.toLowerCase();
		if (el.classList.length > 0) step += '.' + el.classList[0];
		return step;
	};
	const selectorOf = (el) => {
		const parts = [];
		let node = el;
		while (node && node.nodeType === 1 && node.tagName !== 'HTML' && node.tagName !== 'BODY') {
			const step = stepOf(node);
			const parent = node.parentElement;
			let part = step;
			if (parent) {
				const siblings = Array.from(parent.children).filter(c => stepOf(c) === step);
				if (siblings.length > 1) part = step + '[' + siblings.indexOf(node) + ']';
			}
			parts.unshift(part);
			node = node.parentElement;
		}
		return parts.join(' ');
	};
	const out = [];
	const seen = new Set();
	const candidates = document.querySelectorAll(
		'a, button, input, select, textarea, h1, h2, h3, h4, h5, h6, img, [role]');
	for (const el of candidates) {
		if (seen.has(el)) continue;
		seen.add(el);
		const r = el.getBoundingClientRect();
		if (r.width === 0 && r.height === 0) continue;
		const text = (el.textContent || '').trim().replace(/\s+/g, ' ').slice(0, 200);
		const name = el.getAttribute('aria-label') || el.getAttribute('title') ||
			el.getAttribute('alt') || text.slice(0, 80);
		out.push({
			role: el.getAttribute('role') || roleOf(el),
			name: name,
			selector: selectorOf(el),
			bounds: {x: r.x, y: r.y, width: r.width, height: r.height},
			text: text,
			value: el.value || ''
		});
	}
	return JSON.stringify(out);
}`

// File: internal/browser/capture.go
package browser

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/nullgrad/wayward/api/schemas"
)

// captureScript extracts the interactive surface of the current page in
// one evaluation: interactive elements with stable selectors, landmark
// roles, headings and a text summary.
const captureScript = `(() => {
	const MAX_TEXT = 80;

	const cssEscape = (s) => (window.CSS && CSS.escape) ? CSS.escape(s) : s.replace(/([^a-zA-Z0-9_-])/g, '\\$1');

	const selectorFor = (el) => {
		if (el.id) return '#' + cssEscape(el.id);
		const parts = [];
		let node = el;
		while (node && node.nodeType === 1 && parts.length < 5) {
			let part = node.tagName.toLowerCase();
			if (node.id) { parts.unshift('#' + cssEscape(node.id)); break; }
			const parent = node.parentElement;
			if (parent) {
				const siblings = Array.from(parent.children).filter(c => c.tagName === node.tagName);
				if (siblings.length > 1) part += ':nth-of-type(' + (siblings.indexOf(node) + 1) + ')';
			}
			parts.unshift(part);
			node = parent;
		}
		return parts.join(' > ');
	};

	const visible = (el) => {
		const r = el.getBoundingClientRect();
		return r.width > 0 && r.height > 0;
	};

	const textOf = (el) => {
		let t = (el.innerText || el.value || el.getAttribute('aria-label') || el.getAttribute('placeholder') || '').trim();
		t = t.replace(/\s+/g, ' ');
		return t.length > MAX_TEXT ? t.slice(0, MAX_TEXT) : t;
	};

	const nodes = document.querySelectorAll(
		'a[href], button, input, select, textarea, form, [role="button"], [role="link"], [role="textbox"], [role="searchbox"]'
	);
	const elements = [];
	nodes.forEach((el, i) => {
		if (!visible(el)) return;
		elements.push({
			index: elements.length,
			tag: el.tagName.toLowerCase(),
			role: el.getAttribute('role') || '',
			type: el.getAttribute('type') || '',
			text: textOf(el),
			href: el.tagName === 'A' ? (el.getAttribute('href') || '') : '',
			selector: selectorFor(el),
		});
	});

	const landmarks = [];
	document.querySelectorAll('nav, main, header, footer, aside, [role="navigation"], [role="main"], [role="search"], [role="banner"], [role="contentinfo"]').forEach(el => {
		const name = el.getAttribute('role') || el.tagName.toLowerCase();
		if (!landmarks.includes(name)) landmarks.push(name);
	});

	const headings = [];
	document.querySelectorAll('h1, h2, h3').forEach(el => {
		const t = (el.innerText || '').trim().replace(/\s+/g, ' ');
		if (t) headings.push(t.length > MAX_TEXT ? t.slice(0, MAX_TEXT) : t);
	});

	const summary = (document.body ? document.body.innerText : '').trim().replace(/\s+/g, ' ').slice(0, 500);

	return {
		url: window.location.href,
		title: document.title || '',
		summary: summary,
		elements: elements,
		landmarks: landmarks,
		headings: headings.slice(0, 20),
	};
})()`

// rawCapture mirrors the shape the capture script returns.
type rawCapture struct {
	URL       string                     `json:"url"`
	Title     string                     `json:"title"`
	Summary   string                     `json:"summary"`
	Elements  []schemas.ElementDescriptor `json:"elements"`
	Landmarks []string                   `json:"landmarks"`
	Headings  []string                   `json:"headings"`
}

// CaptureState implements schemas.StateCapturer. It evaluates the
// extraction script against the tab's current document and truncates
// the element list to the configured ceiling.
func (t *Tab) CaptureState(ctx context.Context, sessionID string) (*schemas.CapturedState, error) {
	var raw rawCapture
	if err := t.runActions(ctx, chromedp.Evaluate(captureScript, &raw)); err != nil {
		return nil, fmt.Errorf("state capture failed: %w", err)
	}

	maxElements := t.cfg.MaxElements
	if maxElements > 0 && len(raw.Elements) > maxElements {
		raw.Elements = raw.Elements[:maxElements]
	}

	state := &schemas.CapturedState{
		URL:        raw.URL,
		Domain:     hostnameOf(raw.URL),
		Title:      raw.Title,
		Summary:    raw.Summary,
		Elements:   raw.Elements,
		Landmarks:  raw.Landmarks,
		Headings:   raw.Headings,
		CapturedAt: time.Now(),
	}

	t.logger.Debug("Captured state",
		zap.String("url", state.URL),
		zap.Int("elements", len(state.Elements)))
	return state, nil
}

func hostnameOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// File: internal/browser/executor.go
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/nullgrad/wayward/api/schemas"
)

// hoverScript dispatches the mouse events a CSS :hover or JS mouseover
// handler listens for, without moving the real cursor.
const hoverScript = `(sel) => {
	const el = document.querySelector(sel);
	if (!el) return false;
	el.scrollIntoView({block: 'center'});
	for (const type of ['mouseover', 'mouseenter', 'mousemove']) {
		el.dispatchEvent(new MouseEvent(type, {bubbles: true, cancelable: true, view: window}));
	}
	return true;
}`

const scrollScript = `window.scrollBy({top: window.innerHeight * 0.8, behavior: 'instant'}); true`

// Execute implements schemas.ActionExecutor. Action-level failures
// (missing element, navigation timeout) come back inside the result; a
// non-nil error means the tab or browser is gone and the session cannot
// continue.
func (t *Tab) Execute(ctx context.Context, action *schemas.ActionProposal) (*schemas.ExecutionResult, error) {
	if action == nil {
		return nil, fmt.Errorf("nil action")
	}

	// Politeness pacing: never hit the site faster than configured.
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	err := t.perform(ctx, action)
	if err == nil {
		return &schemas.ExecutionResult{Success: true}, nil
	}

	// The caller's cancellation and a dead tab are fatal; everything
	// else is an action-level failure the engine learns from.
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if t.ctx.Err() != nil {
		return nil, fmt.Errorf("browser tab closed: %w", t.ctx.Err())
	}

	t.logger.Debug("Action failed",
		zap.String("kind", string(action.Kind)),
		zap.String("selector", action.TargetSelector()),
		zap.Error(err))
	return &schemas.ExecutionResult{Success: false, ErrorMessage: err.Error()}, nil
}

func (t *Tab) perform(ctx context.Context, action *schemas.ActionProposal) error {
	timeout := t.cfg.NavigationTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	switch action.Kind {
	case schemas.ActionNavigate:
		if action.Value == "" {
			return fmt.Errorf("navigate action has no target URL")
		}
		return t.runActions(opCtx,
			chromedp.Navigate(action.Value),
			chromedp.WaitReady("body", chromedp.ByQuery),
			chromedp.Sleep(t.cfg.PostLoadWait),
		)

	case schemas.ActionClick:
		sel := action.TargetSelector()
		if sel == "" {
			return fmt.Errorf("click action has no target selector")
		}
		// New-tab intents navigate this tab to the link target instead of
		// spawning a real tab; the capturer must keep seeing the page the
		// engine acts on.
		if action.Modifier == schemas.ModifierNewTab && action.Target != nil && action.Target.Href != "" {
			return t.runActions(opCtx,
				chromedp.Navigate(action.Target.Href),
				chromedp.WaitReady("body", chromedp.ByQuery),
				chromedp.Sleep(t.cfg.PostLoadWait),
			)
		}
		return t.runActions(opCtx,
			chromedp.ScrollIntoView(sel, chromedp.ByQuery),
			chromedp.Click(sel, chromedp.ByQuery),
			chromedp.Sleep(t.cfg.PostLoadWait),
		)

	case schemas.ActionType:
		sel := action.TargetSelector()
		if sel == "" {
			return fmt.Errorf("type action has no target selector")
		}
		return t.runActions(opCtx,
			chromedp.ScrollIntoView(sel, chromedp.ByQuery),
			chromedp.Clear(sel, chromedp.ByQuery),
			chromedp.SendKeys(sel, action.Value, chromedp.ByQuery),
		)

	case schemas.ActionHover:
		sel := action.TargetSelector()
		if sel == "" {
			return fmt.Errorf("hover action has no target selector")
		}
		var found bool
		if err := t.runActions(opCtx, chromedp.Evaluate(fmt.Sprintf("(%s)(%q)", hoverScript, sel), &found)); err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("hover target not found: %s", sel)
		}
		return nil

	case schemas.ActionScroll:
		var ok bool
		return t.runActions(opCtx, chromedp.Evaluate(scrollScript, &ok))

	case schemas.ActionBack:
		return t.runActions(opCtx,
			chromedp.NavigateBack(),
			chromedp.WaitReady("body", chromedp.ByQuery),
			chromedp.Sleep(t.cfg.PostLoadWait),
		)

	default:
		return fmt.Errorf("unsupported action kind: %s", action.Kind)
	}
}

// File: internal/browser/tab.go
package browser

import (
	"context"
	"sync"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/nullgrad/wayward/api/schemas"
	"github.com/nullgrad/wayward/internal/config"
)

// Tab is one browser tab bound to one exploration session. It is the
// production implementation of the engine's two collaborators: it
// captures page state and executes proposed actions.
//
// A Tab drives exactly one page. New-tab intents are honored by
// navigating this tab; a second OS-level tab would detach the capturer
// from the page the engine is reasoning about.
type Tab struct {
	sessionID string
	ctx       context.Context
	cancel    context.CancelFunc
	cfg       config.BrowserConfig
	limiter   *rate.Limiter
	logger    *zap.Logger

	mu       sync.Mutex
	isClosed bool
}

var (
	_ schemas.StateCapturer  = (*Tab)(nil)
	_ schemas.ActionExecutor = (*Tab)(nil)
)

// runActions executes chromedp actions against the tab, honoring the
// caller's context in addition to the tab's own lifetime.
func (t *Tab) runActions(ctx context.Context, actions ...chromedp.Action) error {
	opCtx, cancel := mergeContexts(t.ctx, ctx)
	defer cancel()
	return chromedp.Run(opCtx, actions...)
}

// mergeContexts returns the tab context with cancellation propagated
// from the caller's context as well.
func mergeContexts(tabCtx, callerCtx context.Context) (context.Context, context.CancelFunc) {
	merged, cancel := context.WithCancel(tabCtx)
	stop := context.AfterFunc(callerCtx, cancel)
	return merged, func() {
		stop()
		cancel()
	}
}

// Close releases the tab. Safe to call more than once.
func (t *Tab) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.isClosed {
		return
	}
	t.isClosed = true
	t.cancel()
}

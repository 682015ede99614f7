// File: internal/browser/manager.go
package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/nullgrad/wayward/internal/config"
)

// Manager owns the browser process lifecycle. It holds the exec
// allocator and the root browser context; individual exploration
// sessions get their own tab via NewTab.
type Manager struct {
	cfg    config.BrowserConfig
	logger *zap.Logger

	allocCtx    context.Context
	allocCancel context.CancelFunc
	browserCtx  context.Context
	browserStop context.CancelFunc

	mu       sync.Mutex
	isClosed bool
}

// execOptions translates browser configuration into chromedp allocator
// options.
func execOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		// Required on hardened systems where the Chrome sandbox cannot start.
		chromedp.NoSandbox,
		// Recommended for stability in containers and headless environments.
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	opts = append(opts, chromedp.Flag("headless", cfg.Headless))
	if cfg.IgnoreTLSErrors {
		opts = append(opts, chromedp.Flag("ignore-certificate-errors", true))
	}
	return opts
}

// NewManager launches the browser process and verifies the CDP
// connection. The returned Manager must be Shutdown when done.
func NewManager(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("Browser")

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, execOptions(cfg)...)
	browserCtx, browserStop := chromedp.NewContext(allocCtx)

	// Run with no actions forces the browser process to start now, so a
	// broken Chrome installation fails fast instead of on the first step.
	if err := chromedp.Run(browserCtx); err != nil {
		browserStop()
		allocCancel()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	logger.Debug("Browser launched", zap.Bool("headless", cfg.Headless))
	return &Manager{
		cfg:         cfg,
		logger:      logger,
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		browserCtx:  browserCtx,
		browserStop: browserStop,
	}, nil
}

// NewTab opens a fresh tab bound to one exploration session. The tab
// implements both collaborator interfaces the decision engine consumes.
func (m *Manager) NewTab(sessionID string) (*Tab, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.isClosed {
		return nil, fmt.Errorf("browser manager is shut down")
	}

	tabCtx, tabCancel := chromedp.NewContext(m.browserCtx)
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		return nil, fmt.Errorf("failed to open tab: %w", err)
	}

	// Dismiss alert/confirm/prompt dialogs automatically; an unanswered
	// dialog blocks every subsequent CDP command on the tab.
	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		if _, ok := ev.(*page.EventJavascriptDialogOpening); ok {
			go func() {
				if err := chromedp.Run(tabCtx, page.HandleJavaScriptDialog(false)); err != nil {
					m.logger.Debug("Failed to dismiss dialog", zap.Error(err))
				}
			}()
		}
	})

	aps := m.cfg.ActionsPerSecond
	if aps <= 0 {
		aps = 2.0
	}

	return &Tab{
		sessionID: sessionID,
		ctx:       tabCtx,
		cancel:    tabCancel,
		cfg:       m.cfg,
		limiter:   rate.NewLimiter(rate.Limit(aps), 1),
		logger:    m.logger.With(zap.String("sessionID", sessionID)),
	}, nil
}

// Shutdown closes the browser process and all of its tabs.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.isClosed {
		return
	}
	m.isClosed = true
	m.browserStop()
	m.allocCancel()
	m.logger.Debug("Browser shut down")
}

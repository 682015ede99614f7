// File: internal/service/factory.go
package service

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nullgrad/wayward/internal/browser"
	"github.com/nullgrad/wayward/internal/config"
	"github.com/nullgrad/wayward/internal/frontier"
	"github.com/nullgrad/wayward/internal/novelty"
	"github.com/nullgrad/wayward/internal/session"
)

// Components bundles the long-lived services an exploration run shares:
// one novelty model, one frontier and one browser process. Sessions fan
// out from these via NewExplorer.
type Components struct {
	Config   config.Interface
	Logger   *zap.Logger
	Novelty  *novelty.Model
	Frontier *frontier.Manager
	Browser  *browser.Manager

	mu       sync.Mutex
	tabs     []*browser.Tab
	isClosed bool
}

// ComponentFactory creates the component set for an exploration run.
// The abstraction keeps the explore command's wiring testable.
type ComponentFactory interface {
	Create(ctx context.Context, cfg config.Interface, logger *zap.Logger) (*Components, error)
}

type concreteFactory struct{}

// NewComponentFactory returns the production factory.
func NewComponentFactory() ComponentFactory {
	return &concreteFactory{}
}

// Create performs the full dependency injection for an exploration run.
func (f *concreteFactory) Create(ctx context.Context, cfg config.Interface, logger *zap.Logger) (*Components, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	explorerCfg := cfg.Explorer()
	seed := explorerCfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	// This rng only seeds the novelty model's frozen target network;
	// per-session decision rngs are created by the orchestrator.
	rng := rand.New(rand.NewSource(seed))

	model := novelty.NewModel(explorerCfg, rng, logger)
	front := frontier.NewManager(cfg.Frontier(), logger)

	browserManager, err := browser.NewManager(ctx, cfg.Browser(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize browser manager: %w", err)
	}

	logger.Debug("Exploration components initialized",
		zap.String("strategy", explorerCfg.Strategy),
		zap.Int64("seed", seed))

	return &Components{
		Config:   cfg,
		Logger:   logger,
		Novelty:  model,
		Frontier: front,
		Browser:  browserManager,
	}, nil
}

// NewExplorer opens a dedicated browser tab and builds an orchestrator
// around it. The tab is tracked and closed by Shutdown; label is used
// for log correlation only.
func (c *Components) NewExplorer(label string) (*session.Orchestrator, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.isClosed {
		return nil, fmt.Errorf("components are shut down")
	}

	tab, err := c.Browser.NewTab(label)
	if err != nil {
		return nil, fmt.Errorf("failed to open tab for %s: %w", label, err)
	}
	c.tabs = append(c.tabs, tab)

	return session.NewOrchestrator(c.Config, c.Novelty, c.Frontier, tab, tab, c.Logger), nil
}

// Shutdown closes every open tab and the browser process. Safe to call
// more than once.
func (c *Components) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.isClosed {
		return
	}
	c.isClosed = true
	for _, tab := range c.tabs {
		tab.Close()
	}
	if c.Browser != nil {
		c.Browser.Shutdown()
	}
}

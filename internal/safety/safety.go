// File: internal/safety/safety.go
package safety

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nullgrad/wayward/api/schemas"
	"github.com/nullgrad/wayward/internal/config"
)

// destructiveKeywords are substrings of target text that block an action
// outright. The session must never delete, cancel or deactivate anything
// on the site under exploration.
var destructiveKeywords = []string{
	"delete",
	"remove",
	"cancel",
	"unsubscribe",
	"close account",
	"deactivate",
	"terminate",
}

// Validator is an independent guard run on every proposal before
// execution. Rejection is terminal for that one action only; the action
// is marked failed and never executed.
//
// A Validator is per-session (it owns that session's action-rate window)
// and is not shared across sessions.
type Validator struct {
	mu         sync.Mutex
	keywords   []string
	maxActions int
	window     time.Duration
	policy     DomainPolicy
	timestamps []time.Time
	logger     *zap.Logger

	// now is swappable for window tests.
	now func() time.Time
}

// NewValidator builds a validator from configuration and a domain
// policy. A nil policy defaults to permissive.
func NewValidator(cfg config.SafetyConfig, policy DomainPolicy, logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy == nil {
		policy = PermissivePolicy{}
	}
	maxActions := cfg.MaxActionsPerWindow
	if maxActions <= 0 {
		maxActions = 30
	}
	window := cfg.Window
	if window <= 0 {
		window = 60 * time.Second
	}
	keywords := make([]string, 0, len(destructiveKeywords)+len(cfg.ExtraKeywords))
	keywords = append(keywords, destructiveKeywords...)
	for _, k := range cfg.ExtraKeywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			keywords = append(keywords, k)
		}
	}
	return &Validator{
		keywords:   keywords,
		maxActions: maxActions,
		window:     window,
		policy:     policy,
		logger:     logger.Named("Safety"),
		now:        time.Now,
	}
}

// Validate checks a proposal. A nil return admits the action and records
// its timestamp against the rate window; a non-nil error names the
// rejection reason.
func (v *Validator) Validate(action *schemas.ActionProposal) error {
	if action == nil {
		return fmt.Errorf("nil action")
	}

	if action.Target != nil {
		text := strings.ToLower(action.Target.Text)
		for _, kw := range v.keywords {
			if strings.Contains(text, kw) {
				v.logger.Warn("Blocked destructive action",
					zap.String("keyword", kw),
					zap.String("text", action.Target.Text))
				return fmt.Errorf("target text contains destructive keyword %q", kw)
			}
		}
	}

	if action.Kind == schemas.ActionNavigate && action.Value != "" {
		if !v.policy.Allow(action.Value) {
			return fmt.Errorf("navigation to %s violates domain policy", action.Value)
		}
	}
	if action.Target != nil && action.Target.Href != "" {
		if !v.policy.Allow(action.Target.Href) {
			return fmt.Errorf("link to %s violates domain policy", action.Target.Href)
		}
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	now := v.now()
	cutoff := now.Add(-v.window)
	kept := v.timestamps[:0]
	for _, t := range v.timestamps {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	v.timestamps = kept

	if len(v.timestamps) >= v.maxActions {
		return fmt.Errorf("rate limit: %d actions in the last %s", len(v.timestamps), v.window)
	}
	v.timestamps = append(v.timestamps, now)
	return nil
}

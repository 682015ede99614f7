// File: internal/options/option.go
package options

import (
	"github.com/nullgrad/wayward/api/schemas"
)

// Context is the per-step view an option gets of the session, beyond the
// captured state itself.
type Context struct {
	// RecentURLs holds the last few normalized URLs, most recent last.
	RecentURLs []string
	// Visited is the session's normalized visited-URL set.
	Visited map[string]bool
	// Interacted maps element selectors to interaction counts on the
	// current normalized page.
	Interacted map[string]int
	// FailedKinds records kind+"|"+selector combos that failed on the
	// current page.
	FailedKinds map[string]bool
	// ConsecutiveFailures counts failed actions since the last success.
	ConsecutiveFailures int
}

// InteractionCount reports how often an element has been touched on the
// current page.
func (c *Context) InteractionCount(selector string) int {
	if c == nil || c.Interacted == nil {
		return 0
	}
	return c.Interacted[selector]
}

// IsVisited checks a normalized URL against the session's visited set.
func (c *Context) IsVisited(normalizedURL string) bool {
	return c != nil && c.Visited != nil && c.Visited[normalizedURL]
}

// Option is a named, self-contained action-proposal policy. The set of
// options is closed: a fixed registry, filtered by applicability, never
// open-ended subclassing.
type Option interface {
	// Name identifies the option in proposals and logs.
	Name() string
	// IsApplicable reports whether this option can act on the state at all.
	IsApplicable(state *schemas.CapturedState) bool
	// Score estimates expected utility in [0,1] for the current context.
	Score(state *schemas.CapturedState, ctx *Context) float64
	// Propose builds the concrete action, or nil when nothing viable
	// remains despite applicability.
	Propose(state *schemas.CapturedState, ctx *Context) *schemas.ActionProposal
}

// DefaultOptions returns the built-in registry in its fixed order. The
// order is load-bearing: the scheduler breaks score ties by position.
func DefaultOptions() []Option {
	return []Option{
		&NavigationOption{},
		&SearchOption{},
		&FormFillOption{},
		&PaginationOption{},
		&ScrollOption{},
		&LoginOption{},
		&OpenInNewTabOption{},
		&FilterSortOption{},
	}
}

// File: internal/strategy/strategy.go
package strategy

import (
	"math/rand"

	"go.uber.org/zap"

	"github.com/nullgrad/wayward/api/schemas"
	"github.com/nullgrad/wayward/internal/frontier"
	"github.com/nullgrad/wayward/internal/options"
)

// StepContext is the per-step input a strategy decides on, beyond the
// captured state itself.
type StepContext struct {
	// Options is the option-layer view (recent URLs, visited set,
	// per-page interaction index).
	Options *options.Context
	// NoveltyScore is the blended novelty of the current state.
	NoveltyScore float64
}

// Strategy is a top-level per-step policy. Strategies are alternative
// policies selected by name, not sub-steps of one another.
type Strategy interface {
	Name() string
	Decide(state *schemas.CapturedState, sctx *StepContext) *schemas.ActionProposal
}

// Deps bundles the injectable services every strategy composes.
type Deps struct {
	Scheduler           *options.Scheduler
	Frontier            *frontier.Manager
	NoveltyLowThreshold float64
	Rng                 *rand.Rand
	Logger              *zap.Logger
}

func (d *Deps) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

// New returns the named strategy, defaulting to curiosity for unknown
// names. The set is closed; there is no plugin mechanism.
func New(name string, deps Deps) Strategy {
	switch name {
	case "random":
		return &RandomStrategy{deps: deps, logger: deps.logger().Named("RandomStrategy")}
	case "task":
		return &TaskOrientedStrategy{deps: deps, logger: deps.logger().Named("TaskStrategy")}
	case "coverage":
		return &CoverageStrategy{deps: deps, logger: deps.logger().Named("CoverageStrategy")}
	default:
		return &CuriosityStrategy{deps: deps, logger: deps.logger().Named("CuriosityStrategy")}
	}
}

// backtrackProposal asks the frontier for a target different from the
// current URL and not yet visited, and wraps it as a forced navigation.
func backtrackProposal(deps *Deps, state *schemas.CapturedState, sctx *StepContext) *schemas.ActionProposal {
	if deps.Frontier == nil {
		return nil
	}
	target, ok := deps.Frontier.NextCandidate(state.URL, sctx.Options.Visited)
	if !ok || frontier.NormalizeURL(target) == frontier.NormalizeURL(state.URL) {
		return nil
	}
	return &schemas.ActionProposal{
		Kind:   schemas.ActionNavigate,
		Value:  target,
		Option: "backtrack",
	}
}

// stuckProposal is the terminal fallback: go back when several actions
// in a row failed, otherwise scroll.
func stuckProposal(sctx *StepContext) *schemas.ActionProposal {
	if sctx.Options.ConsecutiveFailures > 2 {
		return &schemas.ActionProposal{Kind: schemas.ActionBack, Option: "stuck"}
	}
	return &schemas.ActionProposal{Kind: schemas.ActionScroll, Option: "stuck"}
}

// detectLoop reports whether the recent normalized URL history has
// collapsed into a tiny cycle (ping-pong between at most two pages).
func detectLoop(recent []string) bool {
	const window = 8
	const minSamples = 6
	if len(recent) > window {
		recent = recent[len(recent)-window:]
	}
	if len(recent) < minSamples {
		return false
	}
	distinct := make(map[string]struct{}, len(recent))
	for _, u := range recent {
		distinct[u] = struct{}{}
	}
	return len(distinct) <= 2
}

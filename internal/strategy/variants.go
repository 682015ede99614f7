// File: internal/strategy/variants.go
package strategy

import (
	"strings"

	"go.uber.org/zap"

	"github.com/nullgrad/wayward/api/schemas"
	"github.com/nullgrad/wayward/internal/options"
)

// -- Random --

// RandomStrategy picks uniformly among applicable option proposals. It
// keeps the option-or-fallback shape but with no scoring at all; useful
// as a baseline when comparing exploration quality.
type RandomStrategy struct {
	deps   Deps
	logger *zap.Logger
}

func (s *RandomStrategy) Name() string { return "random" }

var randomWeights = categoryWeights{
	Link: 30, Button: 30, Input: 30, Select: 30, Form: 30, Other: 30,
	FailureLinkBoost: 0,
}

func (s *RandomStrategy) Decide(state *schemas.CapturedState, sctx *StepContext) *schemas.ActionProposal {
	var proposals []*schemas.ActionProposal
	for _, opt := range options.DefaultOptions() {
		if !opt.IsApplicable(state) {
			continue
		}
		if p := opt.Propose(state, sctx.Options); p != nil {
			proposals = append(proposals, p)
		}
	}
	if len(proposals) > 0 {
		return proposals[s.deps.Rng.Intn(len(proposals))]
	}
	if p := heuristicFallback(state, sctx.Options, randomWeights, s.deps.Rng); p != nil {
		return p
	}
	return stuckProposal(sctx)
}

// -- Task-oriented --

// TaskOrientedStrategy scores elements by inferred page type and goal
// relevance: forms dominate on auth/checkout-looking pages, links on
// listings, and so on.
type TaskOrientedStrategy struct {
	deps   Deps
	logger *zap.Logger
}

func (s *TaskOrientedStrategy) Name() string { return "task" }

// pageType is a rough guess at what the page is for, from URL and title.
func pageType(state *schemas.CapturedState) string {
	haystack := strings.ToLower(state.URL + " " + state.Title)
	switch {
	case strings.Contains(haystack, "login") || strings.Contains(haystack, "signin") || strings.Contains(haystack, "register"):
		return "auth"
	case strings.Contains(haystack, "search") || strings.Contains(haystack, "results"):
		return "search"
	case strings.Contains(haystack, "cart") || strings.Contains(haystack, "checkout"):
		return "checkout"
	case strings.Contains(haystack, "product") || strings.Contains(haystack, "catalog") || strings.Contains(haystack, "list"):
		return "listing"
	default:
		return "content"
	}
}

func taskWeights(pt string) categoryWeights {
	switch pt {
	case "auth", "checkout":
		return categoryWeights{Link: 20, Button: 45, Input: 55, Select: 40, Form: 50, Other: 10, FailureLinkBoost: 10}
	case "search":
		return categoryWeights{Link: 40, Button: 35, Input: 50, Select: 30, Form: 35, Other: 10, FailureLinkBoost: 10}
	case "listing":
		return categoryWeights{Link: 60, Button: 30, Input: 20, Select: 30, Form: 15, Other: 10, FailureLinkBoost: 10}
	default:
		return curiosityWeights
	}
}

func (s *TaskOrientedStrategy) Decide(state *schemas.CapturedState, sctx *StepContext) *schemas.ActionProposal {
	if p := s.deps.Scheduler.Choose(state, sctx.Options, sctx.NoveltyScore); p != nil {
		return p
	}
	if p := heuristicFallback(state, sctx.Options, taskWeights(pageType(state)), s.deps.Rng); p != nil {
		return p
	}
	return stuckProposal(sctx)
}

// -- Coverage-maximizing --

// CoverageStrategy scores elements by their likelihood of reaching
// unexplored URLs: links far outweigh everything else, and loop escape
// backtracks aggressively.
type CoverageStrategy struct {
	deps   Deps
	logger *zap.Logger
}

func (s *CoverageStrategy) Name() string { return "coverage" }

var coverageWeights = categoryWeights{
	Link: 70, Button: 25, Input: 10, Select: 10, Form: 10, Other: 5,
	FailureLinkBoost: 15,
}

func (s *CoverageStrategy) Decide(state *schemas.CapturedState, sctx *StepContext) *schemas.ActionProposal {
	if detectLoop(sctx.Options.RecentURLs) {
		if p := backtrackProposal(&s.deps, state, sctx); p != nil {
			s.logger.Debug("Coverage backtrack", zap.String("target", p.Value))
			return p
		}
	}
	if p := s.deps.Scheduler.Choose(state, sctx.Options, sctx.NoveltyScore); p != nil {
		return p
	}
	if p := heuristicFallback(state, sctx.Options, coverageWeights, s.deps.Rng); p != nil {
		return p
	}
	return stuckProposal(sctx)
}

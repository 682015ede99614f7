// File: internal/strategy/curiosity.go
package strategy

import (
	"go.uber.org/zap"

	"github.com/nullgrad/wayward/api/schemas"
)

// CuriosityStrategy is the default policy: escape loops and stale pages
// by backtracking through the frontier, otherwise let the option
// scheduler act, with per-element heuristic scoring as the last resort.
type CuriosityStrategy struct {
	deps   Deps
	logger *zap.Logger
}

func (s *CuriosityStrategy) Name() string { return "curiosity" }

func (s *CuriosityStrategy) Decide(state *schemas.CapturedState, sctx *StepContext) *schemas.ActionProposal {
	// 1. Loop/ping-pong detection and low-novelty escape. A hit forces a
	// navigate to a frontier candidate, bypassing the scheduler.
	looping := detectLoop(sctx.Options.RecentURLs)
	stale := sctx.NoveltyScore < s.deps.NoveltyLowThreshold
	if looping || stale {
		if p := backtrackProposal(&s.deps, state, sctx); p != nil {
			s.logger.Debug("Forcing frontier backtrack",
				zap.Bool("looping", looping),
				zap.Bool("stale", stale),
				zap.Float64("novelty", sctx.NoveltyScore),
				zap.String("target", p.Value))
			return p
		}
	}

	// 2. Normal path: the option scheduler.
	if p := s.deps.Scheduler.Choose(state, sctx.Options, sctx.NoveltyScore); p != nil {
		return p
	}

	// 3. Per-element heuristic scoring.
	if p := heuristicFallback(state, sctx.Options, curiosityWeights, s.deps.Rng); p != nil {
		return p
	}

	// 4. Nothing viable on the page.
	return stuckProposal(sctx)
}

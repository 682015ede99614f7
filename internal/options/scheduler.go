// File: internal/options/scheduler.go
package options

import (
	"math/rand"

	"go.uber.org/zap"

	"github.com/nullgrad/wayward/api/schemas"
)

// Blend weights: heuristic option score vs. the state's novelty reward.
const (
	blendScore   = 0.7
	blendNovelty = 0.3
)

// Scheduler picks one option per step, epsilon-greedy over the fixed
// registry: with probability epsilon a uniformly random applicable
// option, otherwise the applicable option maximizing
// 0.7*clamp01(score) + 0.3*novelty. Ties break toward the earliest
// option in registry order.
type Scheduler struct {
	options []Option
	epsilon float64
	rng     *rand.Rand
	logger  *zap.Logger
}

// NewScheduler builds a scheduler over the given registry. The rng must
// be non-nil; inject a fixed seed for reproducible choices in tests.
func NewScheduler(opts []Option, epsilon float64, rng *rand.Rand, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(opts) == 0 {
		opts = DefaultOptions()
	}
	if epsilon < 0 {
		epsilon = 0
	}
	if epsilon > 1 {
		epsilon = 1
	}
	return &Scheduler{
		options: opts,
		epsilon: epsilon,
		rng:     rng,
		logger:  logger.Named("Scheduler"),
	}
}

// Choose returns the winning option's proposal, or nil when no applicable
// option yields one. noveltyScore is the blended novelty of the current
// state, computed once per step by the caller.
func (s *Scheduler) Choose(state *schemas.CapturedState, ctx *Context, noveltyScore float64) *schemas.ActionProposal {
	applicable := make([]Option, 0, len(s.options))
	for _, opt := range s.options {
		if opt.IsApplicable(state) {
			applicable = append(applicable, opt)
		}
	}
	if len(applicable) == 0 {
		return nil
	}

	// Exploration branch: uniform pick among applicable options. If the
	// pick proposes nothing, fall through to the greedy branch rather
	// than wasting the step.
	if s.epsilon > 0 && s.rng.Float64() < s.epsilon {
		opt := applicable[s.rng.Intn(len(applicable))]
		if p := opt.Propose(state, ctx); p != nil {
			s.logger.Debug("Epsilon exploration pick", zap.String("option", opt.Name()))
			return p
		}
	}

	blended := make([]float64, len(applicable))
	for i, opt := range applicable {
		blended[i] = blendScore*clamp01(opt.Score(state, ctx)) + blendNovelty*noveltyScore
	}

	// Walk candidates in descending blended order until one proposes.
	tried := make([]bool, len(applicable))
	for range applicable {
		best := -1
		for i := range applicable {
			if tried[i] {
				continue
			}
			// Strict greater keeps the first-encountered winner on ties.
			if best == -1 || blended[i] > blended[best] {
				best = i
			}
		}
		tried[best] = true
		if p := applicable[best].Propose(state, ctx); p != nil {
			s.logger.Debug("Greedy option pick",
				zap.String("option", applicable[best].Name()),
				zap.Float64("blended", blended[best]),
				zap.Float64("novelty", noveltyScore))
			return p
		}
	}
	return nil
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// File: internal/reward/reward.go
package reward

import (
	"math"

	"github.com/nullgrad/wayward/api/schemas"
	"github.com/nullgrad/wayward/internal/frontier"
)

// Fixed component weights. Novelty, diversity and efficiency weights are
// progress-scheduled (see weightsAt); these stay constant.
const (
	weightCoverage = 0.2
	weightInfoGain = 0.1

	noveltyFirstURL      = 1.0
	noveltyPerNewElement = 0.1
	noveltyElementCap    = 0.5
	coverageScale        = 0.1
	diversityPerKind     = 0.05
	diversityKindCap     = 0.3
	diversityFreshBonus  = 0.2
	diversityLoopPenalty = -0.15
	diversityEarlyBonus  = 0.1
	diversityFloor       = -0.2
	infoGainPerElement   = 0.01
	infoGainCap          = 0.5
	efficiencyScale      = 0.1
	efficiencyCap        = 0.2
	errorPenaltyValue    = -1.0
	inefficiencyPerHit   = 0.1
	inefficiencyCap      = 0.5
)

// History is the session-derived context for one reward computation. The
// orchestrator builds it from pre-step session state plus the new state.
type History struct {
	// ActionsTaken includes the current action.
	ActionsTaken int
	// UniquePages counts distinct normalized URLs including the new state.
	UniquePages int
	// KnownURLs holds normalized URLs seen before this step.
	KnownURLs map[string]bool
	// KnownElements holds element keys seen before this step.
	KnownElements map[string]bool
	// RecentActions holds up to the last 5 prior actions, most recent last.
	RecentActions []*schemas.ActionProposal
	// DistinctKinds counts distinct action kinds including the current one.
	DistinctKinds int
	// ProgressHorizon is the action count at which progress saturates.
	ProgressHorizon int
}

// ElementKey identifies an element across captures for novelty counting.
func ElementKey(e schemas.ElementDescriptor) string {
	if e.Selector != "" {
		return e.Selector
	}
	return e.Tag + "|" + e.Text
}

// Calculator turns a (state, action, next state, history) tuple into a
// shaped scalar reward with named components.
type Calculator struct {
	horizon int
}

// NewCalculator builds a calculator. The horizon controls how fast the
// weighting schedule shifts from novelty-seeking to efficiency-seeking.
func NewCalculator(progressHorizon int) *Calculator {
	if progressHorizon <= 0 {
		progressHorizon = 30
	}
	return &Calculator{horizon: progressHorizon}
}

// weightsAt returns the progress-scheduled weights. Early in a session
// novelty and diversity dominate; late, efficiency takes over.
func (c *Calculator) weightsAt(actionsTaken int) (novelty, diversity, efficiency float64) {
	progress := math.Min(float64(actionsTaken)/float64(c.horizon), 1.0)
	novelty = 0.4*(1-progress) + 0.2*progress
	diversity = 0.3*(1-progress) + 0.1*progress
	efficiency = 0.05*(1-progress) + 0.2*progress
	return novelty, diversity, efficiency
}

// Compute produces the per-step reward components and their weighted
// total. Task-progress/goal-completion terms are reserved at 0 pending a
// future extension.
func (c *Calculator) Compute(prev *schemas.CapturedState, action *schemas.ActionProposal, next *schemas.CapturedState, h *History) schemas.RewardComponents {
	var r schemas.RewardComponents

	// Novelty: a first-ever URL is maximally novel; otherwise count
	// newly-seen elements on a known page.
	if !h.KnownURLs[normalizedURLKey(next)] {
		r.Novelty = noveltyFirstURL
	} else {
		newElements := 0
		for _, e := range next.Elements {
			if !h.KnownElements[ElementKey(e)] {
				newElements++
			}
		}
		r.Novelty = math.Min(noveltyPerNewElement*float64(newElements), noveltyElementCap)
	}

	r.Coverage = math.Log(1+float64(h.UniquePages)) * coverageScale

	r.Diversity = c.diversity(action, h)

	if prev != nil {
		growth := len(next.Elements) - len(prev.Elements)
		if growth > 0 {
			r.InformationGain = math.Min(infoGainPerElement*float64(growth), infoGainCap)
		}
	}

	if h.ActionsTaken > 0 {
		r.Efficiency = math.Min(float64(h.UniquePages)/float64(h.ActionsTaken)*efficiencyScale, efficiencyCap)
	}

	if !action.Success {
		r.ErrorPenalty = errorPenaltyValue
	}

	r.InefficiencyPenalty = -math.Min(inefficiencyPerHit*float64(repeatCount(action, h.RecentActions)), inefficiencyCap)

	wNovelty, wDiversity, wEfficiency := c.weightsAt(h.ActionsTaken)
	r.Total = wNovelty*r.Novelty +
		weightCoverage*r.Coverage +
		wDiversity*r.Diversity +
		weightInfoGain*r.InformationGain +
		wEfficiency*r.Efficiency +
		r.ErrorPenalty +
		r.InefficiencyPenalty

	return r
}

// diversity rewards varied action kinds and penalizes tight repetition.
func (c *Calculator) diversity(action *schemas.ActionProposal, h *History) float64 {
	d := math.Min(diversityPerKind*float64(h.DistinctKinds), diversityKindCap)

	fresh := true
	for _, prev := range h.RecentActions {
		if prev.Kind == action.Kind {
			fresh = false
			break
		}
	}
	if fresh {
		d += diversityFreshBonus
	}

	// Repetition penalty: the last 3 actions identical, or the last 4
	// alternating with period 2 (A B A B ping-pong).
	seq := recentKinds(action, h.RecentActions)
	if lastNIdentical(seq, 3) || periodTwoAlternation(seq) {
		d += diversityLoopPenalty
	}

	progress := math.Min(float64(h.ActionsTaken)/float64(c.horizon), 1.0)
	d += (1 - progress) * diversityEarlyBonus

	return math.Max(d, diversityFloor)
}

// recentKinds is the kind sequence ending with the current action.
func recentKinds(action *schemas.ActionProposal, recent []*schemas.ActionProposal) []schemas.ActionKind {
	seq := make([]schemas.ActionKind, 0, len(recent)+1)
	for _, a := range recent {
		seq = append(seq, a.Kind)
	}
	return append(seq, action.Kind)
}

func lastNIdentical(seq []schemas.ActionKind, n int) bool {
	if len(seq) < n {
		return false
	}
	tail := seq[len(seq)-n:]
	for _, k := range tail {
		if k != tail[0] {
			return false
		}
	}
	return true
}

func periodTwoAlternation(seq []schemas.ActionKind) bool {
	if len(seq) < 4 {
		return false
	}
	t := seq[len(seq)-4:]
	return t[0] == t[2] && t[1] == t[3] && t[0] != t[1]
}

// repeatCount counts prior actions with the same kind and target as the
// current one within the recent window.
func repeatCount(action *schemas.ActionProposal, recent []*schemas.ActionProposal) int {
	target := action.TargetSelector()
	count := 0
	for _, prev := range recent {
		if prev.Kind == action.Kind && prev.TargetSelector() == target {
			count++
		}
	}
	return count
}

// normalizedURLKey matches the session's visited-set key form.
func normalizedURLKey(s *schemas.CapturedState) string {
	if s == nil {
		return ""
	}
	return frontier.NormalizeURL(s.URL)
}

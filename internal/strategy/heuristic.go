// File: internal/strategy/heuristic.go
package strategy

import (
	"math/rand"
	"sort"

	"github.com/nullgrad/wayward/api/schemas"
	"github.com/nullgrad/wayward/internal/options"
)

// categoryWeights are per-element base priorities. Each strategy variant
// carries its own table; curiosity's is the baseline.
type categoryWeights struct {
	Link   float64
	Button float64
	Input  float64
	Select float64
	Form   float64
	Other  float64
	// FailureLinkBoost is added to link/navigation elements once
	// consecutive failures are elevated, nudging the session off a
	// broken widget and onto plain navigation.
	FailureLinkBoost float64
}

var curiosityWeights = categoryWeights{
	Link: 50, Button: 40, Input: 30, Select: 25, Form: 20, Other: 10,
	FailureLinkBoost: 10,
}

const (
	penaltyAlreadyClicked = -100
	penaltyFailedKind     = -20
	penaltyRepeatPerHit   = -15
	jitterRange           = 5 // uniform in [-5, +5)
	scoreFloor            = -10
	maxRepeats            = 2
	pickTopProbability    = 0.7
	pickPoolSize          = 5
)

type scoredElement struct {
	element schemas.ElementDescriptor
	score   float64
}

// defaultKind maps an element category to the action the fallback would
// perform on it.
func defaultKind(cat schemas.ElementCategory) schemas.ActionKind {
	switch cat {
	case schemas.CategoryInput:
		return schemas.ActionType
	default:
		return schemas.ActionClick
	}
}

func baseWeight(w categoryWeights, cat schemas.ElementCategory) float64 {
	switch cat {
	case schemas.CategoryLink:
		return w.Link
	case schemas.CategoryButton:
		return w.Button
	case schemas.CategoryInput:
		return w.Input
	case schemas.CategorySelect:
		return w.Select
	case schemas.CategoryForm:
		return w.Form
	default:
		return w.Other
	}
}

// heuristicFallback scores every element on the page and picks one: the
// top scorer 70% of the time, otherwise a random one of the top five.
// Returns nil when no viable element remains.
func heuristicFallback(state *schemas.CapturedState, octx *options.Context, w categoryWeights, rng *rand.Rand) *schemas.ActionProposal {
	var candidates []scoredElement
	for _, e := range state.Elements {
		repeats := octx.InteractionCount(e.Selector)
		if repeats >= maxRepeats {
			continue
		}

		cat := e.Category()
		kind := defaultKind(cat)
		score := baseWeight(w, cat)
		if repeats > 0 {
			score += penaltyAlreadyClicked
			score += penaltyRepeatPerHit * float64(repeats)
		}
		if octx.FailedKinds != nil && octx.FailedKinds[string(kind)+"|"+e.Selector] {
			score += penaltyFailedKind
		}
		if cat == schemas.CategoryLink && octx.ConsecutiveFailures >= 2 {
			score += w.FailureLinkBoost
		}
		score += rng.Float64()*2*jitterRange - jitterRange

		if score <= scoreFloor {
			continue
		}
		candidates = append(candidates, scoredElement{element: e, score: score})
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	pick := 0
	if rng.Float64() >= pickTopProbability {
		pool := pickPoolSize
		if pool > len(candidates) {
			pool = len(candidates)
		}
		pick = rng.Intn(pool)
	}

	chosen := candidates[pick].element
	kind := defaultKind(chosen.Category())
	proposal := &schemas.ActionProposal{Kind: kind, Target: &chosen, Option: "heuristic"}
	if kind == schemas.ActionType {
		proposal.Value = "wayward"
	}
	return proposal
}

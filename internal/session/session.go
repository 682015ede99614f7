// File: internal/session/session.go
package session

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/nullgrad/wayward/api/schemas"
	"github.com/nullgrad/wayward/internal/config"
	"github.com/nullgrad/wayward/internal/options"
	"github.com/nullgrad/wayward/internal/safety"
	"github.com/nullgrad/wayward/internal/strategy"
)

// Session is one exploration run against one start URL. It owns all of
// its ambient mutable state (visited set, per-page interaction index,
// pending backtrack); only the novelty model and frontier are shared.
//
// A session's step is not reentrant. The mutex below protects the
// read-only views (stats, metrics) against a concurrently running step;
// concurrent step calls for the same session must be serialized by the
// caller.
type Session struct {
	mu sync.Mutex

	ID        string
	StartURL  string
	Namespace string
	Status    schemas.SessionStatus
	StartedAt time.Time

	// Lock-step per-step records: one action, one resulting state, one
	// reward per step.
	States  []*schemas.CapturedState
	Actions []*schemas.ActionProposal
	Rewards []schemas.RewardComponents

	CumulativeReward    float64
	Successes           int
	Failures            int
	ConsecutiveFailures int

	ceilings  config.SessionConfig
	strategy  strategy.Strategy
	validator *safety.Validator
	rng       *rand.Rand

	current          *schemas.CapturedState
	visited          map[string]bool            // normalized URLs
	knownElements    map[string]bool            // element keys seen anywhere
	kindCounts       map[schemas.ActionKind]int // for entropy
	interacted       map[string]map[string]int  // page URL -> selector -> count
	failedKinds      map[string]map[string]bool // page URL -> kind|selector
	recentURLs       []string
	pendingBacktrack string
	noveltySum       float64
	noveltySamples   int
}

const recentURLWindow = 12

// recordVisit marks a normalized URL visited and feeds the recent-URL
// window used by loop detection.
func (s *Session) recordVisit(normalizedURL string) {
	s.visited[normalizedURL] = true
	s.recentURLs = append(s.recentURLs, normalizedURL)
	if len(s.recentURLs) > recentURLWindow {
		s.recentURLs = s.recentURLs[len(s.recentURLs)-recentURLWindow:]
	}
}

// optionContext assembles the option-layer view for the current page.
func (s *Session) optionContext() *options.Context {
	pageKey := ""
	if s.current != nil {
		pageKey = normalizeURL(s.current.URL)
	}
	return &options.Context{
		RecentURLs:          append([]string(nil), s.recentURLs...),
		Visited:             s.visited,
		Interacted:          s.interacted[pageKey],
		FailedKinds:         s.failedKinds[pageKey],
		ConsecutiveFailures: s.ConsecutiveFailures,
	}
}

// recordInteraction updates the per-page interaction and failure indexes
// for the page the action was performed on.
func (s *Session) recordInteraction(pageURL string, action *schemas.ActionProposal) {
	selector := action.TargetSelector()
	if selector == "" {
		return
	}
	pageKey := normalizeURL(pageURL)
	if s.interacted[pageKey] == nil {
		s.interacted[pageKey] = make(map[string]int)
	}
	s.interacted[pageKey][selector]++

	if !action.Success {
		if s.failedKinds[pageKey] == nil {
			s.failedKinds[pageKey] = make(map[string]bool)
		}
		s.failedKinds[pageKey][string(action.Kind)+"|"+selector] = true
	}
}

// ceilingReached evaluates the termination ceilings at a step boundary.
func (s *Session) ceilingReached(now time.Time) bool {
	if s.ceilings.MaxDuration > 0 && now.Sub(s.StartedAt) > s.ceilings.MaxDuration {
		return true
	}
	if s.ceilings.MaxActions > 0 && len(s.Actions) >= s.ceilings.MaxActions {
		return true
	}
	if s.ceilings.MaxPages > 0 && len(s.visited) >= s.ceilings.MaxPages {
		return true
	}
	if s.ceilings.MaxFailures > 0 && s.Failures >= s.ceilings.MaxFailures {
		return true
	}
	return false
}

// stats builds the read-only aggregate view. Caller holds s.mu.
func (s *Session) stats(now time.Time) *schemas.SessionStats {
	return &schemas.SessionStats{
		SessionID:        s.ID,
		Status:           s.Status,
		StartURL:         s.StartURL,
		ActionsTaken:     len(s.Actions),
		PagesExplored:    len(s.visited),
		Successes:        s.Successes,
		Failures:         s.Failures,
		CumulativeReward: s.CumulativeReward,
		Elapsed:          now.Sub(s.StartedAt),
	}
}

// metrics builds the derived quality view. Caller holds s.mu.
func (s *Session) metrics() *schemas.SessionMetrics {
	m := &schemas.SessionMetrics{
		SessionID: s.ID,
		Coverage:  len(s.visited),
	}
	if n := len(s.Actions); n > 0 {
		m.Efficiency = float64(len(s.visited)) / float64(n)
		m.AverageReward = s.CumulativeReward / float64(n)
	}
	if s.noveltySamples > 0 {
		m.AverageNovelty = s.noveltySum / float64(s.noveltySamples)
	}
	m.ActionTypeEntropy = entropy(s.kindCounts)
	return m
}

// entropy is the Shannon entropy (bits) of the action-kind distribution.
func entropy(counts map[schemas.ActionKind]int) float64 {
	total := 0
	for _, c := range counts {
		total += c
	}
	if total == 0 {
		return 0
	}
	var h float64
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / float64(total)
		h -= p * math.Log2(p)
	}
	return h
}

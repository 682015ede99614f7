// File: api/schemas/explore.go
package schemas

import (
	"net/url"
	"strings"
	"time"
)

// -- Page State Schemas --

// ElementCategory is a coarse classification of an interactive element,
// used by heuristic scoring.
type ElementCategory string

const (
	CategoryLink   ElementCategory = "link"
	CategoryButton ElementCategory = "button"
	CategoryInput  ElementCategory = "input"
	CategorySelect ElementCategory = "select"
	CategoryForm   ElementCategory = "form"
	CategoryOther  ElementCategory = "other"
)

// ElementDescriptor is a compact summary of one interactive element on a
// captured page. Selector must be stable enough to target the element on
// the live page for the duration of the step.
type ElementDescriptor struct {
	Index    int    `json:"index"`
	Tag      string `json:"tag"`
	Role     string `json:"role,omitempty"`
	Type     string `json:"type,omitempty"`
	Text     string `json:"text,omitempty"`
	Href     string `json:"href,omitempty"`
	Selector string `json:"selector"`
}

// Category buckets the element for heuristic scoring.
func (e ElementDescriptor) Category() ElementCategory {
	switch strings.ToLower(e.Tag) {
	case "a":
		return CategoryLink
	case "button":
		return CategoryButton
	case "input", "textarea":
		return CategoryInput
	case "select":
		return CategorySelect
	case "form":
		return CategoryForm
	}
	switch strings.ToLower(e.Role) {
	case "link":
		return CategoryLink
	case "button":
		return CategoryButton
	case "textbox", "searchbox", "combobox":
		return CategoryInput
	}
	return CategoryOther
}

// CapturedState is an immutable snapshot of a page produced by the
// state-capture collaborator, once per step.
type CapturedState struct {
	URL        string              `json:"url"`
	Domain     string              `json:"domain"`
	Title      string              `json:"title,omitempty"`
	Summary    string              `json:"summary,omitempty"`
	Elements   []ElementDescriptor `json:"elements"`
	Landmarks  []string            `json:"landmarks,omitempty"`
	Headings   []string            `json:"headings,omitempty"`
	CapturedAt time.Time           `json:"capturedAt"`
}

// ResolveHref resolves a (possibly relative) href against the state's URL.
// Returns the raw href unchanged when either side fails to parse.
func (s *CapturedState) ResolveHref(href string) string {
	base, err := url.Parse(s.URL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// -- Action Schemas --

// ActionKind enumerates the interactions the engine can propose.
type ActionKind string

const (
	ActionClick    ActionKind = "click"
	ActionType     ActionKind = "type"
	ActionHover    ActionKind = "hover"
	ActionScroll   ActionKind = "scroll"
	ActionNavigate ActionKind = "navigate"
	ActionBack     ActionKind = "back"
)

// ModifierNewTab asks the executor to open the target in a new tab.
const ModifierNewTab = "new-tab"

// ActionProposal is a single interaction the engine wants performed.
// Success and Error are filled in after (attempted) execution.
type ActionProposal struct {
	Kind     ActionKind         `json:"kind"`
	Target   *ElementDescriptor `json:"target,omitempty"`
	X        float64            `json:"x,omitempty"`
	Y        float64            `json:"y,omitempty"`
	Value    string             `json:"value,omitempty"`
	Modifier string             `json:"modifier,omitempty"`
	Option   string             `json:"option,omitempty"`
	Success  bool               `json:"success"`
	Error    string             `json:"error,omitempty"`
}

// TargetSelector returns the target's selector, or "" for untargeted
// actions such as scroll and back.
func (a *ActionProposal) TargetSelector() string {
	if a == nil || a.Target == nil {
		return ""
	}
	return a.Target.Selector
}

// -- Reward Schemas --

// RewardComponents is the per-step shaped reward, broken out by signal.
// Total is derived from the components and the progress-dependent weights;
// it is stored rather than recomputed so a session log replays exactly.
type RewardComponents struct {
	Novelty             float64 `json:"novelty"`
	Coverage            float64 `json:"coverage"`
	Diversity           float64 `json:"diversity"`
	InformationGain     float64 `json:"informationGain"`
	Efficiency          float64 `json:"efficiency"`
	ErrorPenalty        float64 `json:"errorPenalty"`
	InefficiencyPenalty float64 `json:"inefficiencyPenalty"`
	Total               float64 `json:"total"`
}

// -- Frontier Schemas --

// FrontierEntry is a discovered-but-unexhausted state available for
// backtracking. The first-seen entry for a (domain, fingerprint) pair is
// authoritative; only Visits changes afterwards.
type FrontierEntry struct {
	URL          string    `json:"url"`
	Domain       string    `json:"domain"`
	Fingerprint  string    `json:"fingerprint"`
	Novelty      float64   `json:"novelty"`
	Depth        int       `json:"depth"`
	DiscoveredAt time.Time `json:"discoveredAt"`
	Visits       int       `json:"visits"`
}

// -- Session Views --

// SessionStatus is the orchestrator state machine position.
type SessionStatus string

const (
	StatusInitialized SessionStatus = "initialized"
	StatusStepping    SessionStatus = "stepping"
	StatusEnded       SessionStatus = "ended"
)

// StepResult is the outcome of one orchestrator step.
type StepResult struct {
	Action   *ActionProposal  `json:"action"`
	NewState *CapturedState   `json:"newState"`
	Reward   RewardComponents `json:"reward"`
	Done     bool             `json:"done"`
}

// SessionStats is a read-only aggregate view of a session.
type SessionStats struct {
	SessionID        string        `json:"sessionId"`
	Status           SessionStatus `json:"status"`
	StartURL         string        `json:"startUrl"`
	ActionsTaken     int           `json:"actionsTaken"`
	PagesExplored    int           `json:"pagesExplored"`
	Successes        int           `json:"successes"`
	Failures         int           `json:"failures"`
	CumulativeReward float64       `json:"cumulativeReward"`
	Elapsed          time.Duration `json:"elapsed"`
}

// SessionMetrics is the derived quality view: coverage, efficiency,
// novelty averages and action-type entropy.
type SessionMetrics struct {
	SessionID         string  `json:"sessionId"`
	Coverage          int     `json:"coverage"`
	Efficiency        float64 `json:"efficiency"`
	AverageNovelty    float64 `json:"averageNovelty"`
	AverageReward     float64 `json:"averageReward"`
	ActionTypeEntropy float64 `json:"actionTypeEntropy"`
}

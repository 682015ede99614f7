// File: internal/session/orchestrator.go
package session

import (
	"context"
	"fmt"
	"math/rand"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"

	"github.com/nullgrad/wayward/api/schemas"
	"github.com/nullgrad/wayward/internal/config"
	"github.com/nullgrad/wayward/internal/frontier"
	"github.com/nullgrad/wayward/internal/novelty"
	"github.com/nullgrad/wayward/internal/options"
	"github.com/nullgrad/wayward/internal/reward"
	"github.com/nullgrad/wayward/internal/safety"
	"github.com/nullgrad/wayward/internal/strategy"
)

const rewardWindow = 5

// Orchestrator is the per-step state machine tying the decision engine
// together: Initialized -> Stepping -> Ended. It owns the session table
// and composes the process-wide novelty model and frontier with the
// external capture/execution collaborators.
type Orchestrator struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	cfg      config.Interface
	novelty  *novelty.Model
	frontier *frontier.Manager
	capturer schemas.StateCapturer
	executor schemas.ActionExecutor
	calc     *reward.Calculator
	logger   *zap.Logger

	// now is swappable so ceiling checks are testable.
	now func() time.Time
}

// NewOrchestrator wires an orchestrator. The novelty model and frontier
// are intentionally injected: they are process-wide singletons that
// outlive any one session.
func NewOrchestrator(
	cfg config.Interface,
	model *novelty.Model,
	front *frontier.Manager,
	capturer schemas.StateCapturer,
	executor schemas.ActionExecutor,
	logger *zap.Logger,
) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		sessions: make(map[string]*Session),
		cfg:      cfg,
		novelty:  model,
		frontier: front,
		capturer: capturer,
		executor: executor,
		calc:     reward.NewCalculator(cfg.Explorer().ProgressHorizon),
		logger:   logger.Named("Orchestrator"),
		now:      time.Now,
	}
}

// StartSession creates a session bound to startURL, navigates there,
// captures the initial state, seeds the novelty model and frontier with
// it, and transitions the session to Stepping.
func (o *Orchestrator) StartSession(ctx context.Context, startURL string) (string, error) {
	id := uuid.NewString()
	log := o.logger.With(zap.String("sessionID", id), zap.String("startURL", startURL))

	ns, err := namespaceFor(startURL)
	if err != nil {
		return "", fmt.Errorf("invalid start URL: %w", err)
	}

	s := &Session{
		ID:            id,
		StartURL:      startURL,
		Namespace:     ns,
		Status:        schemas.StatusInitialized,
		StartedAt:     o.now(),
		ceilings:      o.cfg.Session(),
		visited:       make(map[string]bool),
		knownElements: make(map[string]bool),
		kindCounts:    make(map[schemas.ActionKind]int),
		interacted:    make(map[string]map[string]int),
		failedKinds:   make(map[string]map[string]bool),
	}

	explorerCfg := o.cfg.Explorer()
	seed := explorerCfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	s.rng = rand.New(rand.NewSource(seed))

	var policy safety.DomainPolicy = safety.PermissivePolicy{}
	safetyCfg := o.cfg.Safety()
	if safetyCfg.RestrictToDomain {
		scope, err := safety.NewScopePolicy(startURL, safetyCfg.IncludeSubdomains)
		if err != nil {
			return "", fmt.Errorf("cannot derive domain scope: %w", err)
		}
		policy = scope
	}
	s.validator = safety.NewValidator(safetyCfg, policy, o.logger)

	scheduler := options.NewScheduler(options.DefaultOptions(), explorerCfg.Epsilon, s.rng, o.logger)
	s.strategy = strategy.New(explorerCfg.Strategy, strategy.Deps{
		Scheduler:           scheduler,
		Frontier:            o.frontier,
		NoveltyLowThreshold: explorerCfg.NoveltyLowThreshold,
		Rng:                 s.rng,
		Logger:              o.logger,
	})

	// Initial navigation + capture, outside the per-step action record.
	if _, err := o.executor.Execute(ctx, &schemas.ActionProposal{
		Kind:  schemas.ActionNavigate,
		Value: startURL,
	}); err != nil {
		return "", fmt.Errorf("initial navigation failed: %w", err)
	}
	initial, err := o.capturer.CaptureState(ctx, id)
	if err != nil {
		return "", fmt.Errorf("initial state capture failed: %w", err)
	}

	s.current = initial
	s.recordVisit(normalizeURL(initial.URL))
	for _, e := range initial.Elements {
		s.knownElements[reward.ElementKey(e)] = true
	}

	fp := o.novelty.Fingerprint(initial)
	score := o.novelty.Score(s.Namespace, initial)
	o.novelty.Observe(s.Namespace, initial)
	o.frontier.Consider(initial, fp, score, 0)
	o.frontier.MarkVisited(initial, fp)
	s.noveltySum += score
	s.noveltySamples++

	s.Status = schemas.StatusStepping

	o.mu.Lock()
	o.sessions[id] = s
	o.mu.Unlock()

	log.Info("Session started",
		zap.String("namespace", ns),
		zap.String("strategy", s.strategy.Name()),
		zap.Float64("initialNovelty", score))
	return id, nil
}

// Step runs one decision cycle: choose an action (pending backtrack
// first, otherwise the strategy), validate it, execute it, capture the
// resulting state, update novelty/frontier, compute the reward, and
// evaluate the termination ceilings.
//
// Fatal collaborator errors propagate; the core never retries.
func (o *Orchestrator) Step(ctx context.Context, sessionID string) (*schemas.StepResult, error) {
	s, err := o.session(sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Status != schemas.StatusStepping {
		return nil, fmt.Errorf("session %s is not stepping (status %s)", sessionID, s.Status)
	}

	prev := s.current
	noveltyScore := o.novelty.Score(s.Namespace, prev)

	// 1. Decide.
	var action *schemas.ActionProposal
	if s.pendingBacktrack != "" && normalizeURL(s.pendingBacktrack) != normalizeURL(prev.URL) {
		action = &schemas.ActionProposal{
			Kind:   schemas.ActionNavigate,
			Value:  s.pendingBacktrack,
			Option: "backtrack",
		}
	} else {
		sctx := &strategy.StepContext{
			Options:      s.optionContext(),
			NoveltyScore: noveltyScore,
		}
		action = s.strategy.Decide(prev, sctx)
	}
	s.pendingBacktrack = ""
	if action == nil {
		// Strategies always bottom out in scroll/back; a nil action here
		// is a programming error, not a site condition.
		return nil, fmt.Errorf("strategy %s produced no action", s.strategy.Name())
	}

	// 2. Validate, then execute. A safety rejection marks the action
	// failed and skips execution; the page state is unchanged.
	newState := prev
	if verr := s.validator.Validate(action); verr != nil {
		action.Success = false
		action.Error = verr.Error()
	} else {
		result, err := o.executor.Execute(ctx, action)
		if err != nil {
			return nil, fmt.Errorf("action execution: %w", err)
		}
		action.Success = result.Success
		action.Error = result.ErrorMessage

		newState, err = o.capturer.CaptureState(ctx, s.ID)
		if err != nil {
			return nil, fmt.Errorf("state capture: %w", err)
		}
	}

	// 3. Reward, against pre-update session history.
	comps := o.calc.Compute(prev, action, newState, o.historyFor(s, action, newState))

	// 4. Fold the step into the session.
	o.applyStep(s, prev, action, newState, comps)

	// 5. Novelty/frontier updates for the new state.
	fp := o.novelty.Fingerprint(newState)
	discoveryScore := o.novelty.Score(s.Namespace, newState)
	o.novelty.Observe(s.Namespace, newState)
	o.frontier.Consider(newState, fp, discoveryScore, len(s.Actions))
	o.frontier.MarkVisited(newState, fp)
	s.noveltySum += discoveryScore
	s.noveltySamples++

	// 6. Ceilings.
	done := s.ceilingReached(o.now())
	if done {
		s.Status = schemas.StatusEnded
		o.logger.Info("Session ended",
			zap.String("sessionID", s.ID),
			zap.Int("actions", len(s.Actions)),
			zap.Int("pages", len(s.visited)),
			zap.Float64("cumulativeReward", s.CumulativeReward))
	}

	return &schemas.StepResult{
		Action:   action,
		NewState: newState,
		Reward:   comps,
		Done:     done,
	}, nil
}

// historyFor snapshots the reward inputs before the step mutates the
// session. Caller holds s.mu.
func (o *Orchestrator) historyFor(s *Session, action *schemas.ActionProposal, newState *schemas.CapturedState) *reward.History {
	uniquePages := len(s.visited)
	if !s.visited[normalizeURL(newState.URL)] {
		uniquePages++
	}

	recent := s.Actions
	if len(recent) > rewardWindow {
		recent = recent[len(recent)-rewardWindow:]
	}

	distinct := len(s.kindCounts)
	if s.kindCounts[action.Kind] == 0 {
		distinct++
	}

	return &reward.History{
		ActionsTaken:    len(s.Actions) + 1,
		UniquePages:     uniquePages,
		KnownURLs:       s.visited,
		KnownElements:   s.knownElements,
		RecentActions:   recent,
		DistinctKinds:   distinct,
		ProgressHorizon: o.cfg.Explorer().ProgressHorizon,
	}
}

// applyStep appends the lock-step records and refreshes the session's
// ambient state. Caller holds s.mu.
func (o *Orchestrator) applyStep(s *Session, prev *schemas.CapturedState, action *schemas.ActionProposal, newState *schemas.CapturedState, comps schemas.RewardComponents) {
	s.Actions = append(s.Actions, action)
	s.States = append(s.States, newState)
	s.Rewards = append(s.Rewards, comps)
	s.CumulativeReward += comps.Total
	s.kindCounts[action.Kind]++

	if action.Success {
		s.Successes++
		s.ConsecutiveFailures = 0
	} else {
		s.Failures++
		s.ConsecutiveFailures++
	}

	s.recordInteraction(prev.URL, action)

	s.current = newState
	s.recordVisit(normalizeURL(newState.URL))
	for _, e := range newState.Elements {
		s.knownElements[reward.ElementKey(e)] = true
	}
}

// RequestBacktrack records a pending backtrack target for the next step.
// With no URL given, it asks the frontier for a candidate outside the
// session's visited set. Returns the chosen URL, or "" and false when no
// eligible candidate exists.
func (o *Orchestrator) RequestBacktrack(sessionID, backURL string) (string, bool, error) {
	s, err := o.session(sessionID)
	if err != nil {
		return "", false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if backURL == "" {
		candidate, ok := o.frontier.NextCandidate(s.current.URL, s.visited)
		if !ok {
			return "", false, nil
		}
		backURL = candidate
	}
	s.pendingBacktrack = backURL
	return backURL, true, nil
}

// EndSession explicitly terminates a session.
func (o *Orchestrator) EndSession(sessionID string) error {
	s, err := o.session(sessionID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.Status = schemas.StatusEnded
	s.mu.Unlock()
	return nil
}

// SessionStats returns the aggregate read-only view.
func (o *Orchestrator) SessionStats(sessionID string) (*schemas.SessionStats, error) {
	s, err := o.session(sessionID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats(o.now()), nil
}

// SessionMetrics returns the derived quality view.
func (o *Orchestrator) SessionMetrics(sessionID string) (*schemas.SessionMetrics, error) {
	s, err := o.session(sessionID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metrics(), nil
}

// FrontierSnapshot exposes the shared frontier for inspection.
func (o *Orchestrator) FrontierSnapshot() []schemas.FrontierEntry {
	return o.frontier.Snapshot()
}

func (o *Orchestrator) session(id string) (*Session, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	s, ok := o.sessions[id]
	if !ok {
		return nil, fmt.Errorf("unknown session: %s", id)
	}
	return s, nil
}

// namespaceFor buckets novelty/frontier state per organizational domain,
// falling back to the bare hostname for IPs and local names.
func namespaceFor(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	host := u.Hostname()
	if host == "" {
		return "", fmt.Errorf("URL has no hostname: %s", rawURL)
	}
	if domain, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return domain, nil
	}
	return host, nil
}

func normalizeURL(rawURL string) string {
	return frontier.NormalizeURL(rawURL)
}

// File: internal/frontier/frontier.go
package frontier

import (
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/nullgrad/wayward/api/schemas"
	"github.com/nullgrad/wayward/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Candidate scoring weights. Novelty at discovery dominates; recency and
// visit count break ties toward fresh, unexhausted states (Go-Explore:
// return to a promising state, then explore from it).
const (
	weightNovelty = 0.6
	weightRecency = 0.2
	weightVisits  = 0.2
)

// Manager is the discovered-but-unexhausted state archive. It is a
// process-wide singleton shared across sessions; all operations are
// safe under concurrent access.
type Manager struct {
	mu         sync.Mutex
	entries    map[string]*schemas.FrontierEntry // (domain|fingerprint) -> entry
	maxEntries int
	halfLife   time.Duration
	logger     *zap.Logger

	// now is swappable so recency scoring is testable.
	now func() time.Time
}

// NewManager builds a frontier manager from configuration.
func NewManager(cfg config.FrontierConfig, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	maxEntries := cfg.MaxEntries
	if maxEntries <= 0 {
		maxEntries = 10000
	}
	halfLife := cfg.RecencyHalfLife
	if halfLife <= 0 {
		halfLife = 60 * time.Second
	}
	return &Manager{
		entries:    make(map[string]*schemas.FrontierEntry),
		maxEntries: maxEntries,
		halfLife:   halfLife,
		logger:     logger.Named("Frontier"),
		now:        time.Now,
	}
}

func entryKey(domain, fp string) string { return domain + "|" + fp }

// Consider inserts a new frontier entry for the state if its
// (domain, fingerprint) pair has never been seen. The first-seen score
// and depth are authoritative; repeat calls are no-ops.
func (m *Manager) Consider(state *schemas.CapturedState, fp string, noveltyScore float64, depth int) {
	domain := stateDomain(state)
	key := entryKey(domain, fp)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[key]; exists {
		return
	}
	if len(m.entries) >= m.maxEntries {
		m.evictLocked()
	}

	m.entries[key] = &schemas.FrontierEntry{
		URL:          state.URL,
		Domain:       domain,
		Fingerprint:  fp,
		Novelty:      noveltyScore,
		Depth:        depth,
		DiscoveredAt: m.now(),
	}
	m.logger.Debug("New frontier entry",
		zap.String("url", state.URL),
		zap.String("fingerprint", fp),
		zap.Float64("novelty", noveltyScore),
		zap.Int("depth", depth))
}

// evictLocked drops the least promising entry (lowest discovery novelty,
// most-visited as tie-break) to make room. Caller holds the lock.
func (m *Manager) evictLocked() {
	var victim string
	for key, e := range m.entries {
		if victim == "" {
			victim = key
			continue
		}
		v := m.entries[victim]
		if e.Novelty < v.Novelty || (e.Novelty == v.Novelty && e.Visits > v.Visits) {
			victim = key
		}
	}
	if victim != "" {
		delete(m.entries, victim)
	}
}

// MarkVisited increments the visit counter for the state's entry.
func (m *Manager) MarkVisited(state *schemas.CapturedState, fp string) {
	key := entryKey(stateDomain(state), fp)

	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[key]; ok {
		e.Visits++
	}
}

// MarkVisitedURL increments the visit counter by bare URL, for callers
// that don't hold a full captured state. Falls back to a linear scan.
func (m *Manager) MarkVisitedURL(rawURL string) {
	target := NormalizeURL(rawURL)

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if NormalizeURL(e.URL) == target {
			e.Visits++
			return
		}
	}
}

// NextCandidate returns the best backtrack URL: the entry maximizing
// 0.6*novelty + 0.2*recency + 0.2/(1+visits), excluding the current URL
// and anything in the visited set (both compared in normalized form).
// The boolean is false when no eligible candidate exists.
func (m *Manager) NextCandidate(currentURL string, visited map[string]bool) (string, bool) {
	current := NormalizeURL(currentURL)
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	var bestURL string
	bestScore := -1.0
	for _, e := range m.entries {
		normalized := NormalizeURL(e.URL)
		if normalized == current || visited[normalized] {
			continue
		}
		age := now.Sub(e.DiscoveredAt)
		recency := 1.0 / (1.0 + age.Seconds()/m.halfLife.Seconds())
		score := weightNovelty*e.Novelty + weightRecency*recency + weightVisits/(1.0+float64(e.Visits))
		if score > bestScore {
			bestScore = score
			bestURL = e.URL
		}
	}
	if bestURL == "" {
		return "", false
	}
	return bestURL, true
}

// Snapshot returns a copy of all entries for inspection/visualization,
// ordered by discovery time.
func (m *Manager) Snapshot() []schemas.FrontierEntry {
	m.mu.Lock()
	out := make([]schemas.FrontierEntry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, *e)
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].DiscoveredAt.Equal(out[j].DiscoveredAt) {
			return out[i].URL < out[j].URL
		}
		return out[i].DiscoveredAt.Before(out[j].DiscoveredAt)
	})
	return out
}

// SnapshotJSON encodes the snapshot for external consumers.
func (m *Manager) SnapshotJSON() ([]byte, error) {
	return json.Marshal(m.Snapshot())
}

// Len reports the current entry count.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func stateDomain(state *schemas.CapturedState) string {
	if state.Domain != "" {
		return state.Domain
	}
	if u, err := url.Parse(state.URL); err == nil {
		return u.Hostname()
	}
	return ""
}

// NormalizeURL canonicalizes a URL for equality checks: fragments are
// dropped, default ports and trailing empty paths collapse, query
// parameters re-encode in sorted order. Unparseable input is returned
// unchanged.
func NormalizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.Fragment = ""
	u.Host = strings.ToLower(u.Host)
	if (u.Scheme == "http" && strings.HasSuffix(u.Host, ":80")) ||
		(u.Scheme == "https" && strings.HasSuffix(u.Host, ":443")) {
		u.Host = u.Hostname()
	}
	if u.Path == "" {
		u.Path = "/"
	}
	if u.RawQuery != "" {
		u.RawQuery = u.Query().Encode()
	}
	return u.String()
}

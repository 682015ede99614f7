// File: internal/frontier/frontier_test.go
package frontier

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nullgrad/wayward/api/schemas"
	"github.com/nullgrad/wayward/internal/config"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(config.FrontierConfig{MaxEntries: 100, RecencyHalfLife: 60 * time.Second}, nil)
}

func stateFor(url string) *schemas.CapturedState {
	return &schemas.CapturedState{URL: url, Domain: "example.com"}
}

func TestConsiderFirstSeenIsAuthoritative(t *testing.T) {
	m := newTestManager(t)
	s := stateFor("https://example.com/a")

	m.Consider(s, "fp-a", 0.9, 1)
	// A second Consider for the same (domain, fingerprint) is a no-op,
	// even with a different score and depth.
	m.Consider(s, "fp-a", 0.1, 7)

	snap := m.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, 0.9, snap[0].Novelty)
	assert.Equal(t, 1, snap[0].Depth)
}

func TestMarkVisitedIncrementsCounter(t *testing.T) {
	m := newTestManager(t)
	s := stateFor("https://example.com/a")
	m.Consider(s, "fp-a", 0.5, 0)

	m.MarkVisited(s, "fp-a")
	m.MarkVisited(s, "fp-a")

	snap := m.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, 2, snap[0].Visits)
}

func TestMarkVisitedURLFallback(t *testing.T) {
	m := newTestManager(t)
	m.Consider(stateFor("https://example.com/a?b=2&a=1"), "fp-a", 0.5, 0)

	// Lookup by URL alone, with different query ordering and a fragment.
	m.MarkVisitedURL("https://example.com/a?a=1&b=2#section")

	snap := m.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, 1, snap[0].Visits)
}

func TestNextCandidateExclusions(t *testing.T) {
	m := newTestManager(t)
	m.Consider(stateFor("https://example.com/current"), "fp-cur", 0.9, 0)
	m.Consider(stateFor("https://example.com/visited"), "fp-vis", 0.95, 1)
	m.Consider(stateFor("https://example.com/fresh"), "fp-new", 0.5, 2)

	visited := map[string]bool{
		NormalizeURL("https://example.com/visited"): true,
	}

	// The current page and anything already visited are ineligible, so
	// the lower-scoring fresh entry wins.
	url, ok := m.NextCandidate("https://example.com/current", visited)
	require.True(t, ok)
	assert.Equal(t, "https://example.com/fresh", url)
}

func TestNextCandidateNoneEligible(t *testing.T) {
	m := newTestManager(t)
	m.Consider(stateFor("https://example.com/only"), "fp", 0.9, 0)

	_, ok := m.NextCandidate("https://example.com/only", nil)
	assert.False(t, ok)

	_, ok = m.NextCandidate("https://example.com/elsewhere", map[string]bool{
		NormalizeURL("https://example.com/only"): true,
	})
	assert.False(t, ok)
}

func TestNextCandidatePrefersNovelty(t *testing.T) {
	m := newTestManager(t)
	now := time.Now()
	m.now = func() time.Time { return now }

	m.Consider(stateFor("https://example.com/dull"), "fp-dull", 0.1, 0)
	m.Consider(stateFor("https://example.com/shiny"), "fp-shiny", 0.9, 0)

	url, ok := m.NextCandidate("https://example.com/start", nil)
	require.True(t, ok)
	assert.Equal(t, "https://example.com/shiny", url)
}

func TestNextCandidateRecencyBreaksTies(t *testing.T) {
	m := newTestManager(t)
	base := time.Now()

	// Same novelty, but the second entry is discovered 10 minutes later.
	m.now = func() time.Time { return base.Add(-10 * time.Minute) }
	m.Consider(stateFor("https://example.com/old"), "fp-old", 0.5, 0)
	m.now = func() time.Time { return base }
	m.Consider(stateFor("https://example.com/new"), "fp-new", 0.5, 0)

	url, ok := m.NextCandidate("https://example.com/start", nil)
	require.True(t, ok)
	assert.Equal(t, "https://example.com/new", url, "fresher discoveries outrank stale ones at equal novelty")
}

func TestEvictionDropsLeastPromising(t *testing.T) {
	m := NewManager(config.FrontierConfig{MaxEntries: 3, RecencyHalfLife: time.Minute}, nil)

	m.Consider(stateFor("https://example.com/a"), "fp-a", 0.2, 0)
	m.Consider(stateFor("https://example.com/b"), "fp-b", 0.8, 0)
	m.Consider(stateFor("https://example.com/c"), "fp-c", 0.5, 0)
	require.Equal(t, 3, m.Len())

	// Capacity reached: the lowest-novelty entry goes.
	m.Consider(stateFor("https://example.com/d"), "fp-d", 0.9, 0)
	assert.Equal(t, 3, m.Len())

	urls := make(map[string]bool)
	for _, e := range m.Snapshot() {
		urls[e.URL] = true
	}
	assert.False(t, urls["https://example.com/a"], "lowest-novelty entry should have been evicted")
	assert.True(t, urls["https://example.com/d"])
}

func TestSnapshotOrderedByDiscovery(t *testing.T) {
	m := newTestManager(t)
	base := time.Now()
	for i := 0; i < 5; i++ {
		tick := base.Add(time.Duration(i) * time.Second)
		m.now = func() time.Time { return tick }
		m.Consider(stateFor(fmt.Sprintf("https://example.com/p%d", i)), fmt.Sprintf("fp-%d", i), 0.5, i)
	}

	snap := m.Snapshot()
	require.Len(t, snap, 5)
	for i := 1; i < len(snap); i++ {
		assert.False(t, snap[i].DiscoveredAt.Before(snap[i-1].DiscoveredAt))
	}
}

func TestSnapshotJSON(t *testing.T) {
	m := newTestManager(t)
	m.Consider(stateFor("https://example.com/a"), "fp-a", 0.5, 0)

	data, err := m.SnapshotJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"https://example.com/a"`)
	assert.Contains(t, string(data), `"fingerprint":"fp-a"`)
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"fragment stripped", "https://example.com/a#top", "https://example.com/a"},
		{"default https port collapses", "https://example.com:443/a", "https://example.com/a"},
		{"default http port collapses", "http://example.com:80/a", "http://example.com/a"},
		{"non-default port kept", "https://example.com:8443/a", "https://example.com:8443/a"},
		{"empty path becomes slash", "https://example.com", "https://example.com/"},
		{"query params sorted", "https://example.com/?b=2&a=1", "https://example.com/?a=1&b=2"},
		{"host lowercased", "https://EXAMPLE.com/A", "https://example.com/A"},
		{"unparseable returned as-is", "http://%zz", "http://%zz"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeURL(tc.in))
		})
	}
}

// File: internal/novelty/novelty_test.go
package novelty

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nullgrad/wayward/api/schemas"
	"github.com/nullgrad/wayward/internal/config"
)

func testExplorerConfig(rndEnabled bool) config.ExplorerConfig {
	return config.ExplorerConfig{
		NoveltyBlend:    0.3,
		FingerprintBits: 64,
		VectorDims:      32,
		RND: config.RNDConfig{
			Enabled:      rndEnabled,
			InDim:        32,
			OutDim:       8,
			LearningRate: 0.01,
			Saturation:   0.25,
		},
	}
}

func pageState(url string) *schemas.CapturedState {
	return &schemas.CapturedState{
		URL:     url,
		Title:   "Page at " + url,
		Summary: "Body text for " + url,
		Elements: []schemas.ElementDescriptor{
			{Tag: "a", Text: "Home", Href: "/", Selector: "#home"},
		},
	}
}

func TestCountTrackerRewardDecay(t *testing.T) {
	c := newCountTracker()

	// Unseen fingerprints score the maximum.
	assert.Equal(t, 1.0, c.reward("example.com", "abc"))

	// Each observation strictly decreases the reward: 1/sqrt(1+n).
	prev := 1.0
	for n := 1; n <= 10; n++ {
		c.observe("example.com", "abc")
		got := c.reward("example.com", "abc")
		assert.InDelta(t, 1.0/math.Sqrt(1.0+float64(n)), got, 1e-12)
		assert.Less(t, got, prev)
		prev = got
	}
}

func TestCountTrackerNamespaceIsolation(t *testing.T) {
	c := newCountTracker()
	c.observe("a.com", "fp")
	c.observe("a.com", "fp")

	assert.Equal(t, 2, c.count("a.com", "fp"))
	// The same fingerprint under a different namespace is untouched.
	assert.Equal(t, 0, c.count("b.com", "fp"))
	assert.Equal(t, 1.0, c.reward("b.com", "fp"))
}

func TestRNDScoreRangeAndDecay(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	m := newRNDModel(config.RNDConfig{
		Enabled: true, InDim: 8, OutDim: 16, LearningRate: 0.05, Saturation: 0.25,
	}, rng)

	x := []float64{0.5, 0.1, 0.0, 0.3, 0.7, 0.0, 0.2, 0.4}

	first := m.score(x)
	assert.GreaterOrEqual(t, first, 0.0)
	assert.Less(t, first, 1.0)

	// Repeated scoring trains the predictor toward the target, so the
	// error for this exact input has to shrink over time.
	last := first
	for i := 0; i < 200; i++ {
		last = m.score(x)
		assert.GreaterOrEqual(t, last, 0.0)
		assert.Less(t, last, 1.0)
	}
	assert.Less(t, last, first, "prediction error should decay with training")
}

func TestRNDDisabled(t *testing.T) {
	m := newRNDModel(config.RNDConfig{Enabled: false}, rand.New(rand.NewSource(1)))
	assert.Zero(t, m.score([]float64{1, 2, 3}))
}

func TestRNDDimensionMismatch(t *testing.T) {
	m := newRNDModel(config.RNDConfig{
		Enabled: true, InDim: 8, OutDim: 4, LearningRate: 0.01, Saturation: 0.25,
	}, rand.New(rand.NewSource(1)))

	// Wrong input width must not panic; it just scores zero.
	assert.Zero(t, m.score([]float64{1, 2}))
}

func TestModelBlendWithRNDDisabled(t *testing.T) {
	// With the learned signal off, the blended score is exactly
	// (1-blend) * countReward.
	m := NewModel(testExplorerConfig(false), rand.New(rand.NewSource(7)), nil)
	state := pageState("https://example.com/products")

	assert.InDelta(t, 0.7*1.0, m.Score("example.com", state), 1e-12)

	m.Observe("example.com", state)
	assert.InDelta(t, 0.7/math.Sqrt(2), m.Score("example.com", state), 1e-12)
}

func TestModelScoreDecreasesWithVisits(t *testing.T) {
	m := NewModel(testExplorerConfig(true), rand.New(rand.NewSource(7)), nil)
	state := pageState("https://example.com/products")

	first := m.Score("example.com", state)
	require.Greater(t, first, 0.0)

	var last float64
	for i := 0; i < 20; i++ {
		m.Observe("example.com", state)
		last = m.Score("example.com", state)
	}
	assert.Less(t, last, first, "a heavily revisited state must lose novelty")
}

func TestModelVisitCount(t *testing.T) {
	m := NewModel(testExplorerConfig(false), rand.New(rand.NewSource(7)), nil)
	state := pageState("https://example.com/")
	fp := m.Fingerprint(state)

	assert.Zero(t, m.VisitCount("example.com", fp))
	m.Observe("example.com", state)
	m.Observe("example.com", state)
	assert.Equal(t, 2, m.VisitCount("example.com", fp))
}

func TestModelFingerprintStableAcrossCalls(t *testing.T) {
	m := NewModel(testExplorerConfig(true), rand.New(rand.NewSource(7)), nil)
	state := pageState("https://example.com/a/b")

	assert.Equal(t, m.Fingerprint(state), m.Fingerprint(state))
}

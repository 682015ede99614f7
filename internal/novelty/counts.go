// File: internal/novelty/counts.go
package novelty

import (
	"math"
	"sync"
)

// countTracker is the count-based novelty signal: a namespaced map from
// fingerprint to visit count. Rewards decay as 1/sqrt(1+count), so a
// never-seen fingerprint scores 1.0 and repeat visits asymptote to 0.
type countTracker struct {
	mu     sync.Mutex
	visits map[string]map[string]int // namespace -> fingerprint -> count
}

func newCountTracker() *countTracker {
	return &countTracker{visits: make(map[string]map[string]int)}
}

// observe increments the visit count for a fingerprint within a namespace.
func (c *countTracker) observe(namespace, fp string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ns, ok := c.visits[namespace]
	if !ok {
		ns = make(map[string]int)
		c.visits[namespace] = ns
	}
	ns[fp]++
}

// reward returns 1/sqrt(1+count) for the fingerprint's current count.
func (c *countTracker) reward(namespace, fp string) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := 0
	if ns, ok := c.visits[namespace]; ok {
		count = ns[fp]
	}
	return 1.0 / math.Sqrt(1.0+float64(count))
}

// count reports the raw visit count, mostly for tests and metrics.
func (c *countTracker) count(namespace, fp string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ns, ok := c.visits[namespace]; ok {
		return ns[fp]
	}
	return 0
}

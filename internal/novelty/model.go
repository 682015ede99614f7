// File: internal/novelty/model.go
package novelty

import (
	"math/rand"

	"go.uber.org/zap"

	"github.com/nullgrad/wayward/api/schemas"
	"github.com/nullgrad/wayward/internal/config"
	"github.com/nullgrad/wayward/internal/fingerprint"
)

// Model blends the count-based and learned novelty signals:
//
//	score = (1-blend)*countReward + blend*learnedReward
//
// It is a process-wide singleton shared by all sessions; namespaces
// separate logical pools (typically one per domain). All mutating paths
// are lock-protected and safe under concurrent sessions.
type Model struct {
	blend  float64
	counts *countTracker
	rnd    *rndModel
	fp     *fingerprint.Fingerprinter
	vec    *fingerprint.Vectorizer
	logger *zap.Logger
}

// NewModel builds a novelty model from explorer configuration. The rng
// seeds the frozen target network; inject a fixed-seed source in tests
// for reproducible scores.
func NewModel(cfg config.ExplorerConfig, rng *rand.Rand, logger *zap.Logger) *Model {
	if logger == nil {
		logger = zap.NewNop()
	}
	blend := cfg.NoveltyBlend
	if blend < 0 || blend > 1 {
		blend = 0.3
	}
	return &Model{
		blend:  blend,
		counts: newCountTracker(),
		rnd:    newRNDModel(cfg.RND, rng),
		fp:     fingerprint.NewFingerprinter(cfg.FingerprintBits),
		vec:    fingerprint.NewVectorizer(cfg.VectorDims),
		logger: logger.Named("NoveltyModel"),
	}
}

// Fingerprint exposes the model's fingerprinter so the frontier and the
// sessions key on exactly the same digest.
func (m *Model) Fingerprint(s *schemas.CapturedState) string {
	return m.fp.Fingerprint(s)
}

// Observe records a visit to the state's fingerprint within a namespace.
func (m *Model) Observe(namespace string, s *schemas.CapturedState) {
	fp := m.fp.Fingerprint(s)
	m.counts.observe(namespace, fp)
	m.logger.Debug("Observed state",
		zap.String("namespace", namespace),
		zap.String("fingerprint", fp),
		zap.Int("visits", m.counts.count(namespace, fp)))
}

// Score returns the blended novelty in [0,1]. Scoring trains the RND
// predictor one SGD step as a side effect, so repeated scoring of the
// same state decays both signals.
func (m *Model) Score(namespace string, s *schemas.CapturedState) float64 {
	countReward := m.counts.reward(namespace, m.fp.Fingerprint(s))
	learned := m.rnd.score(m.vec.Vectorize(s))
	return (1-m.blend)*countReward + m.blend*learned
}

// VisitCount reports how many times a fingerprint has been observed.
func (m *Model) VisitCount(namespace, fp string) int {
	return m.counts.count(namespace, fp)
}

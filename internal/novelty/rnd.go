// File: internal/novelty/rnd.go
package novelty

import (
	"math/rand"
	"sync"

	"github.com/nullgrad/wayward/internal/config"
)

// Weight init ranges. The target net is drawn wide and frozen; the
// predictor starts near zero and has to earn its way toward the target.
const (
	targetInitRange    = 0.1
	predictorInitRange = 0.01
)

// rndModel is a random-network-distillation novelty estimator: a frozen
// random target projection and an online-trained predictor of the same
// shape. Prediction error is high for inputs unlike anything trained on,
// and shrinks as a region of state space gets revisited.
type rndModel struct {
	mu      sync.Mutex
	enabled bool
	inDim   int
	outDim  int
	lr      float64
	sat     float64

	target    [][]float64 // frozen
	predictor [][]float64 // trained online
}

func newRNDModel(cfg config.RNDConfig, rng *rand.Rand) *rndModel {
	m := &rndModel{
		enabled: cfg.Enabled,
		inDim:   cfg.InDim,
		outDim:  cfg.OutDim,
		lr:      cfg.LearningRate,
		sat:     cfg.Saturation,
	}
	if m.inDim <= 0 {
		m.inDim = 256
	}
	if m.outDim <= 0 {
		m.outDim = 64
	}
	if m.lr <= 0 {
		m.lr = 0.001
	}
	if m.sat <= 0 {
		m.sat = 0.25
	}
	m.target = randomMatrix(rng, m.outDim, m.inDim, targetInitRange)
	m.predictor = randomMatrix(rng, m.outDim, m.inDim, predictorInitRange)
	return m
}

func randomMatrix(rng *rand.Rand, rows, cols int, scale float64) [][]float64 {
	w := make([][]float64, rows)
	for r := range w {
		w[r] = make([]float64, cols)
		for c := range w[r] {
			w[r][c] = (rng.Float64()*2 - 1) * scale
		}
	}
	return w
}

// score runs both projections, takes one SGD step on the predictor, and
// maps the raw MSE into [0,1] via the saturating curve mse/(sat+mse).
// Disabled models score 0 and skip training.
func (m *rndModel) score(x []float64) float64 {
	if !m.enabled {
		return 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(x) != m.inDim {
		// Dimension mismatch means a misconfigured vectorizer; treat the
		// input as unusable rather than panicking mid-session.
		return 0
	}

	t := forwardReLU(m.target, x)
	p := forwardReLU(m.predictor, x)

	var mse float64
	for j := range p {
		d := p[j] - t[j]
		mse += d * d
	}
	mse /= float64(m.outDim)

	// One SGD step: d(mse)/d(p_j) = (2/outDim)(p_j - t_j), gated by
	// ReLU'(p_j). Gradient wrt W[j][i] is delta_j * x_i.
	for j := range p {
		if p[j] <= 0 {
			continue
		}
		delta := (2.0 / float64(m.outDim)) * (p[j] - t[j])
		if delta == 0 {
			continue
		}
		row := m.predictor[j]
		for i, xi := range x {
			if xi != 0 {
				row[i] -= m.lr * delta * xi
			}
		}
	}

	return mse / (m.sat + mse)
}

func forwardReLU(w [][]float64, x []float64) []float64 {
	out := make([]float64, len(w))
	for j, row := range w {
		var sum float64
		for i, xi := range x {
			if xi != 0 {
				sum += row[i] * xi
			}
		}
		if sum > 0 {
			out[j] = sum
		}
	}
	return out
}

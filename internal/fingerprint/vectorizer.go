// File: internal/fingerprint/vectorizer.go
package fingerprint

import (
	"math"

	"github.com/nullgrad/wayward/api/schemas"
)

// DefaultDims is the default feature vector length.
const DefaultDims = 256

// Vectorizer turns a captured page state into a fixed-length numeric
// vector via the hashing trick. The vector feeds the learned novelty
// model; it is never compared for exact equality.
type Vectorizer struct {
	dims int
}

// NewVectorizer creates a vectorizer with the given dimensionality.
func NewVectorizer(dims int) *Vectorizer {
	if dims <= 0 {
		dims = DefaultDims
	}
	return &Vectorizer{dims: dims}
}

// Dims reports the configured vector length.
func (v *Vectorizer) Dims() int { return v.dims }

// Vectorize accumulates per-category token weights at hashed indices and
// L2-normalizes the result. A zero vector (empty state) is returned as-is.
func (v *Vectorizer) Vectorize(s *schemas.CapturedState) []float64 {
	vec := make([]float64, v.dims)
	for _, tok := range Tokenize(s) {
		idx := int(djb2(tok.Value) % uint32(v.dims))
		vec[idx] += tok.Weight
	}

	var sumSq float64
	for _, x := range vec {
		sumSq += x * x
	}
	if sumSq == 0 {
		return vec
	}
	norm := math.Sqrt(sumSq)
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}

// djb2 is the classic multiply-by-33 string hash.
func djb2(s string) uint32 {
	var h uint32 = 5381
	for i := 0; i < len(s); i++ {
		h = h*33 + uint32(s[i])
	}
	return h
}

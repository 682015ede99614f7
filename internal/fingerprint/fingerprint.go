// File: internal/fingerprint/fingerprint.go
package fingerprint

import (
	"encoding/hex"
	"hash/fnv"

	"github.com/nullgrad/wayward/api/schemas"
)

// DefaultBits is the default fingerprint width.
const DefaultBits = 64

// Fingerprinter turns a captured page state into a fixed-width SimHash
// style similarity digest. Near-identical token streams map to the same
// digest with high probability; this is a dedup/loop-detection key, not
// a cryptographic hash.
type Fingerprinter struct {
	bits int
}

// NewFingerprinter creates a fingerprinter with the given bit width.
// Widths are rounded up to a multiple of 8 so the digest hex-encodes
// cleanly; non-positive widths fall back to DefaultBits.
func NewFingerprinter(bits int) *Fingerprinter {
	if bits <= 0 {
		bits = DefaultBits
	}
	if rem := bits % 8; rem != 0 {
		bits += 8 - rem
	}
	return &Fingerprinter{bits: bits}
}

// Bits reports the configured digest width.
func (f *Fingerprinter) Bits() int { return f.bits }

// Fingerprint computes the hex digest for a captured state.
func (f *Fingerprinter) Fingerprint(s *schemas.CapturedState) string {
	votes := make([]int, f.bits)

	for _, tok := range Tokenize(s) {
		// A 32-bit hash only carries 32 vote bits, so wider digests
		// re-hash the token with a per-chunk salt.
		for chunk := 0; chunk*32 < f.bits; chunk++ {
			h := hashToken(tok.Value, chunk)
			for b := 0; b < 32; b++ {
				i := chunk*32 + b
				if i >= f.bits {
					break
				}
				if h>>uint(b)&1 == 1 {
					votes[i]++
				} else {
					votes[i]--
				}
			}
		}
	}

	digest := make([]byte, f.bits/8)
	for i, v := range votes {
		if v >= 0 {
			digest[i/8] |= 1 << uint(7-i%8)
		}
	}
	return hex.EncodeToString(digest)
}

// hashToken is FNV-1a over the token bytes plus a one-byte chunk salt.
func hashToken(token string, chunk int) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(token))
	_, _ = h.Write([]byte{byte(chunk)})
	return h.Sum32()
}

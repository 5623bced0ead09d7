package voiceprint

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// Hasher projects embeddings onto random hyperplanes and encodes the signs
// as an uppercase hex label such as "voice:A3F8". Similar embeddings fall on
// the same side of most hyperplanes and therefore share label prefixes.
type Hasher struct {
	dim    int
	planes [][]float32
}

// NewHasher creates a Hasher for dim-dimensional embeddings producing bits
// bits. bits must be a multiple of 4 in 4..64. The seed fixes the
// hyperplanes so that labels are stable across runs.
func NewHasher(dim, bits int, seed uint64) (*Hasher, error) {
	if bits < 4 || bits > 64 || bits%4 != 0 {
		return nil, fmt.Errorf("voiceprint: hash bits %d must be a multiple of 4 in [4, 64]", bits)
	}
	if dim <= 0 {
		return nil, fmt.Errorf("voiceprint: invalid dimension %d", dim)
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	planes := make([][]float32, bits)
	for i := range planes {
		p := make([]float32, dim)
		for j := range p {
			p[j] = float32(rng.NormFloat64())
		}
		L2Normalize(p)
		planes[i] = p
	}
	return &Hasher{dim: dim, planes: planes}, nil
}

// Hash returns the hex hash of embedding, len(bits)/4 characters long.
func (h *Hasher) Hash(embedding []float32) (string, error) {
	if len(embedding) != h.dim {
		return "", fmt.Errorf("voiceprint: embedding has %d dims, hasher expects %d", len(embedding), h.dim)
	}
	var code uint64
	for _, p := range h.planes {
		code <<= 1
		var dot float64
		for j, x := range embedding {
			dot += float64(p[j]) * float64(x)
		}
		if dot > 0 && !math.IsNaN(dot) {
			code |= 1
		}
	}
	return fmt.Sprintf("%0*X", len(h.planes)/4, code), nil
}

// Label returns "voice:" followed by the hash of embedding.
func (h *Hasher) Label(embedding []float32) (string, error) {
	s, err := h.Hash(embedding)
	if err != nil {
		return "", err
	}
	return "voice:" + s, nil
}

// Bits returns the hash length in bits.
func (h *Hasher) Bits() int { return len(h.planes) }

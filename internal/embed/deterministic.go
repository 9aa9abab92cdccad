package embed

import (
	"context"
	"hash/fnv"
	"math"
)

// DeterministicProvider hashes byte 3-grams into a fixed-size vector and
// optionally L2-normalizes the result. It stands in for a real embedding
// client in tests and as the no-provider-configured fallback; two calls on
// the same text always agree, without any PRNG seeding.
type DeterministicProvider struct {
	dim       int
	normalize bool
	seed      uint64
}

func NewDeterministicProvider(dim int, normalize bool, seed uint64) *DeterministicProvider {
	if dim <= 0 {
		dim = 1024
	}
	return &DeterministicProvider{dim: dim, normalize: normalize, seed: seed}
}

func (p *DeterministicProvider) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = p.embedOne(t)
	}
	return out, nil
}

func (p *DeterministicProvider) embedOne(s string) []float32 {
	v := make([]float32, p.dim)
	if len(s) == 0 {
		return v
	}
	b := []byte(s)
	if len(b) < 3 {
		addGram(p.seed, b, v)
	} else {
		for i := 0; i <= len(b)-3; i++ {
			addGram(p.seed, b[i:i+3], v)
		}
	}
	if p.normalize {
		l2Normalize(v)
	}
	return v
}

func l2Normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
}

func addGram(seed uint64, gram []byte, v []float32) {
	h := fnv.New64a()
	if seed != 0 {
		var tmp [8]byte
		for i := 0; i < 8; i++ {
			tmp[i] = byte(seed >> (8 * i))
		}
		_, _ = h.Write(tmp[:])
	}
	_, _ = h.Write(gram)
	hv := h.Sum64()
	idx := int(hv % uint64(len(v)))
	w := float32(int32(hv>>32)) / float32(1<<31)
	v[idx] += w
}

package embedding

import (
	"context"
	"hash/fnv"
	"math"
)

// MockEmbedder generates deterministic unit vectors from a text hash. It
// exists for tests and for running the service without a real embedding
// provider; identical text always yields identical vectors, different text
// yields (with overwhelming probability) different ones.
type MockEmbedder struct {
	dims int
}

// NewMock creates a mock embedder of the given dimensionality. Zero or
// negative dims default to 384.
func NewMock(dims int) *MockEmbedder {
	if dims <= 0 {
		dims = 384
	}
	return &MockEmbedder{dims: dims}
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) (Vector, error) {
	h := fnv.New64a()
	h.Write([]byte(text))

	// LCG seeded by the text hash, mapped into [-1, 1].
	seed := h.Sum64()
	vec := make([]float32, m.dims)
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		vec[i] = float32(int64(seed)) / float32(math.MaxInt64)
	}
	return normalize(vec), nil
}

func (m *MockEmbedder) Dims() int { return m.dims }

func normalize(vec []float32) []float32 {
	var norm float32
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec
	}
	norm = float32(math.Sqrt(float64(norm)))
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}

// Package embedding provides pluggable text embedders and the adapter that
// turns one into the memory engine's encoder.
package embedding

import (
	"context"

	"github.com/viterin/vek/vek32"
)

// Vector is a float32 embedding vector.
type Vector = []float32

// Embedder generates embedding vectors from text.
type Embedder interface {
	Embed(ctx context.Context, text string) (Vector, error)
	Dims() int
}

// CosineSimilarity computes cosine similarity between two vectors, or 0
// when lengths differ or either norm is zero.
func CosineSimilarity(a, b Vector) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	na := vek32.Norm(a)
	nb := vek32.Norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	return vek32.Dot(a, b) / (na * nb)
}

package embedder

import (
	"context"
	"fmt"
	"math"
)

// Embedder produces fixed-length vectors for text. Implementations must be
// deterministic for identical input so results can be memoized by exact text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	ModelInfo() string
}

// SimpleEmbedder is a deterministic hash-based embedder used for offline
// runs and tests where no API access is available.
type SimpleEmbedder struct {
	dim int
}

// NewSimpleEmbedder creates a basic embedder with the given dimension.
func NewSimpleEmbedder(dimension int) *SimpleEmbedder {
	return &SimpleEmbedder{dim: dimension}
}

// Embed generates a simple embedding vector from text.
func (e *SimpleEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dim)

	for i, char := range text {
		idx := i % e.dim
		vec[idx] += float32(char) / 1000.0
	}

	// L2 normalize
	var sumSquares float64
	for _, v := range vec {
		sumSquares += float64(v) * float64(v)
	}
	if sumSquares > 0 {
		inv := float32(1 / math.Sqrt(sumSquares))
		for i := range vec {
			vec[i] *= inv
		}
	}

	return vec, nil
}

// EmbedBatch generates embeddings for multiple texts.
func (e *SimpleEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding text %d: %w", i, err)
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}

// Dimension returns the embedding dimension.
func (e *SimpleEmbedder) Dimension() int {
	return e.dim
}

// ModelInfo returns model information.
func (e *SimpleEmbedder) ModelInfo() string {
	return "simple-embedder-v1"
}

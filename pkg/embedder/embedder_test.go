package embedder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimpleEmbedder_UnitNorm(t *testing.T) {
	e := NewSimpleEmbedder(8)

	for _, text := range []string{"a", "hello world", "a longer piece of text than the dimension"} {
		vec, err := e.Embed(context.Background(), text)
		require.NoError(t, err)
		require.Len(t, vec, 8)

		var sumSquares float64
		for _, v := range vec {
			sumSquares += float64(v) * float64(v)
		}
		assert.InDelta(t, 1.0, sumSquares, 1e-5, "vector for %q is not unit length", text)
	}
}

func TestSimpleEmbedder_Deterministic(t *testing.T) {
	e := NewSimpleEmbedder(16)

	first, err := e.Embed(context.Background(), "same input")
	require.NoError(t, err)
	second, err := e.Embed(context.Background(), "same input")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSimpleEmbedder_EmptyTextZeroVector(t *testing.T) {
	e := NewSimpleEmbedder(4)

	vec, err := e.Embed(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0, 0, 0}, vec)
}

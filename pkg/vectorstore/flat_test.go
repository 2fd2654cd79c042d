package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlatIndex_SearchOrdersByDistance(t *testing.T) {
	idx := NewFlatIndex(2)
	require.NoError(t, idx.Add([][]float32{
		{10, 0}, // far
		{1, 0},  // closest to the query
		{3, 0},  // middle
	}))

	positions, err := idx.Search([]float32{1, 0}, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 0}, positions)
}

func TestFlatIndex_KLargerThanIndex(t *testing.T) {
	idx := NewFlatIndex(2)
	require.NoError(t, idx.Add([][]float32{{0, 0}, {1, 1}}))

	positions, err := idx.Search([]float32{0, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, positions, 2)
}

func TestFlatIndex_DimensionMismatch(t *testing.T) {
	idx := NewFlatIndex(3)

	err := idx.Add([][]float32{{1, 2}})
	assert.Error(t, err)

	require.NoError(t, idx.Add([][]float32{{1, 2, 3}}))
	_, err = idx.Search([]float32{1, 2}, 1)
	assert.Error(t, err)
}

func TestFlatIndex_SearchEmptyOrZeroK(t *testing.T) {
	idx := NewFlatIndex(2)

	positions, err := idx.Search([]float32{0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, positions)

	require.NoError(t, idx.Add([][]float32{{1, 1}}))
	positions, err = idx.Search([]float32{0, 0}, 0)
	require.NoError(t, err)
	assert.Empty(t, positions)
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical direction", []float32{1, 0}, []float32{2, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
		{"length mismatch", []float32{1}, []float32{1, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

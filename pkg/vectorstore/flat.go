package vectorstore

import (
	"fmt"
	"math"
	"sort"
)

// FlatIndex is an exact nearest-neighbor index over fixed-dimension vectors
// using squared Euclidean distance. Position i corresponds to entry i of the
// matching MetadataStore. The index is immutable once built and safe for
// concurrent searches.
type FlatIndex struct {
	Dimension int
	Vectors   [][]float32
}

// NewFlatIndex creates an empty index with the given dimensionality.
func NewFlatIndex(dimension int) *FlatIndex {
	return &FlatIndex{Dimension: dimension}
}

// Add appends vectors to the index. All vectors must match the index
// dimension.
func (idx *FlatIndex) Add(vectors [][]float32) error {
	for i, vec := range vectors {
		if len(vec) != idx.Dimension {
			return fmt.Errorf("vector %d has dimension %d, index expects %d", i, len(vec), idx.Dimension)
		}
	}
	idx.Vectors = append(idx.Vectors, vectors...)
	return nil
}

// Len returns the number of indexed vectors.
func (idx *FlatIndex) Len() int {
	return len(idx.Vectors)
}

// Search returns the positions of the k nearest vectors to query by squared
// Euclidean distance, closest first. If k exceeds the index size every
// position is returned.
func (idx *FlatIndex) Search(query []float32, k int) ([]int, error) {
	if len(query) != idx.Dimension {
		return nil, fmt.Errorf("query has dimension %d, index expects %d", len(query), idx.Dimension)
	}
	if k <= 0 || len(idx.Vectors) == 0 {
		return nil, nil
	}

	type hit struct {
		pos  int
		dist float64
	}

	hits := make([]hit, len(idx.Vectors))
	for i, vec := range idx.Vectors {
		hits[i] = hit{pos: i, dist: squaredL2(query, vec)}
	}

	sort.SliceStable(hits, func(a, b int) bool { return hits[a].dist < hits[b].dist })

	if k > len(hits) {
		k = len(hits)
	}
	positions := make([]int, k)
	for i := 0; i < k; i++ {
		positions[i] = hits[i].pos
	}
	return positions, nil
}

func squaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

// CosineSimilarity computes the cosine similarity between two vectors.
// Returns a value between -1 and 1, where 1 means identical direction.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

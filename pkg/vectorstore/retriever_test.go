package vectorstore

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedEmbedder returns preassigned vectors by exact text.
type fixedEmbedder struct {
	vectors map[string][]float32
	dim     int
}

func (e *fixedEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec, ok := e.vectors[text]
	if !ok {
		return nil, fmt.Errorf("no fixture vector for %q", text)
	}
	return vec, nil
}

func (e *fixedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e *fixedEmbedder) Dimension() int    { return e.dim }
func (e *fixedEmbedder) ModelInfo() string { return "fixed" }

// threeChunkRetriever persists a 3-chunk index where chunk B is closest to
// the query by Euclidean distance and loads a Retriever over it.
func threeChunkRetriever(t *testing.T, topK int) (*Retriever, *fixedEmbedder) {
	t.Helper()

	emb := &fixedEmbedder{
		dim: 2,
		vectors: map[string][]float32{
			"chunk A": {4, 0},
			"chunk B": {1, 0},
			"chunk C": {8, 0},
			"which chunk?":  {1, 0.1},
			"another angle": {2, 0.1},
		},
	}

	dir := t.TempDir()
	indexPath := filepath.Join(dir, "index.gob")
	metaPath := filepath.Join(dir, "metadata.gob")

	idx := NewFlatIndex(2)
	require.NoError(t, idx.Add([][]float32{
		emb.vectors["chunk A"],
		emb.vectors["chunk B"],
		emb.vectors["chunk C"],
	}))
	meta := &MetadataStore{
		Documents: []string{"chunk A", "chunk B", "chunk C"},
		Metadatas: []ChunkMeta{
			{Source: "a.txt", Filename: "a.txt", ChunkIndex: 0, TotalChunks: 1},
			{Source: "b.txt", Filename: "b.txt", ChunkIndex: 0, TotalChunks: 1},
			{Source: "c.txt", Filename: "c.txt", ChunkIndex: 0, TotalChunks: 1},
		},
	}
	require.NoError(t, SaveIndex(idx, indexPath))
	require.NoError(t, SaveMetadata(meta, metaPath))

	r, err := NewRetriever(emb, []string{indexPath}, []string{metaPath}, topK, nil)
	require.NoError(t, err)
	return r, emb
}

func TestNewRetriever_MissingArtifacts(t *testing.T) {
	dir := t.TempDir()
	emb := &fixedEmbedder{dim: 2}

	_, err := NewRetriever(emb,
		[]string{filepath.Join(dir, "index.gob")},
		[]string{filepath.Join(dir, "metadata.gob")}, 3, nil)
	assert.ErrorIs(t, err, ErrIndexNotFound)
}

func TestNewRetriever_VectorMetadataMismatch(t *testing.T) {
	dir := t.TempDir()
	indexPath := filepath.Join(dir, "index.gob")
	metaPath := filepath.Join(dir, "metadata.gob")

	idx := NewFlatIndex(2)
	require.NoError(t, idx.Add([][]float32{{1, 0}, {2, 0}}))
	require.NoError(t, SaveIndex(idx, indexPath))
	require.NoError(t, SaveMetadata(&MetadataStore{
		Documents: []string{"only one"},
		Metadatas: []ChunkMeta{{Source: "a.txt"}},
	}, metaPath))

	_, err := NewRetriever(&fixedEmbedder{dim: 2}, []string{indexPath}, []string{metaPath}, 3, nil)
	assert.ErrorIs(t, err, ErrIndexCorrupt)
}

func TestHybridSearch_KEqualsCorpusReturnsAll(t *testing.T) {
	r, _ := threeChunkRetriever(t, 3)

	candidates, err := r.HybridSearch(context.Background(), []string{"which chunk?"})
	require.NoError(t, err)

	assert.Len(t, candidates, 3)
	seen := map[int]bool{}
	for _, c := range candidates {
		assert.Equal(t, "which chunk?", c.Query)
		seen[c.Position] = true
	}
	assert.Equal(t, map[int]bool{0: true, 1: true, 2: true}, seen)
}

func TestHybridSearch_SameChunkTwoVariantsKeptTwice(t *testing.T) {
	r, _ := threeChunkRetriever(t, 1)

	candidates, err := r.HybridSearch(context.Background(), []string{"which chunk?", "another angle"})
	require.NoError(t, err)

	// Both variants hit chunk B (position 1); the pair differs by variant,
	// so both survive candidate-level dedup.
	require.Len(t, candidates, 2)
	assert.Equal(t, 1, candidates[0].Position)
	assert.Equal(t, 1, candidates[1].Position)
	assert.NotEqual(t, candidates[0].Query, candidates[1].Query)
}

func TestHybridSearch_DedupByPair(t *testing.T) {
	r, _ := threeChunkRetriever(t, 2)

	// Duplicate variant strings collapse to identical pairs.
	candidates, err := r.HybridSearch(context.Background(), []string{"which chunk?", "which chunk?"})
	require.NoError(t, err)
	assert.Len(t, candidates, 2)
}

func TestRerank_OrdersByCosineToReference(t *testing.T) {
	r, _ := threeChunkRetriever(t, 3)
	ctx := context.Background()

	candidates, err := r.HybridSearch(ctx, []string{"which chunk?"})
	require.NoError(t, err)

	scored, err := r.Rerank(ctx, "which chunk?", candidates)
	require.NoError(t, err)
	require.Len(t, scored, 3)

	for i := 1; i < len(scored); i++ {
		assert.GreaterOrEqual(t, scored[i-1].Score, scored[i].Score)
	}
	// All fixture vectors share direction modulo the query's small y
	// component, so the best match is still chunk B's file.
	assert.Equal(t, "b.txt", scored[0].Meta.Filename)
}

func TestRerank_PositionOutOfRange(t *testing.T) {
	r, _ := threeChunkRetriever(t, 3)

	_, err := r.Rerank(context.Background(), "which chunk?", []Candidate{{Query: "q", Position: 99}})
	assert.Error(t, err)
}

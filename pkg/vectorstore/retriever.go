package vectorstore

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"corpusqa/pkg/embedder"
)

// Retriever answers nearest-neighbor queries against a loaded index pair.
// The index is immutable for the retriever's lifetime, so concurrent
// searches need no locking.
type Retriever struct {
	index     *FlatIndex
	documents []string
	metadatas []ChunkMeta
	embedder  embedder.Embedder
	topK      int
	logger    *slog.Logger
}

// NewRetriever loads the index and metadata pair from the first existing
// candidate paths. The two artifacts must align; a length mismatch is a
// corruption condition, never silently truncated.
func NewRetriever(emb embedder.Embedder, indexPaths, metadataPaths []string, topK int, logger *slog.Logger) (*Retriever, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if topK <= 0 {
		topK = 3
	}

	index, err := LoadIndex(indexPaths)
	if err != nil {
		return nil, fmt.Errorf("loading vector index: %w", err)
	}
	meta, err := LoadMetadata(metadataPaths)
	if err != nil {
		return nil, fmt.Errorf("loading metadata: %w", err)
	}
	if index.Len() != len(meta.Documents) {
		return nil, fmt.Errorf("%w: %d vectors vs %d documents",
			ErrIndexCorrupt, index.Len(), len(meta.Documents))
	}

	logger.Info("index loaded", "vectors", index.Len(), "dimension", index.Dimension)

	return &Retriever{
		index:     index,
		documents: meta.Documents,
		metadatas: meta.Metadatas,
		embedder:  emb,
		topK:      topK,
		logger:    logger,
	}, nil
}

// Len returns the number of indexed chunks.
func (r *Retriever) Len() int {
	return r.index.Len()
}

// Document returns the chunk text at position.
func (r *Retriever) Document(position int) string {
	return r.documents[position]
}

// HybridSearch runs a k-nearest-neighbor search for every query variant and
// aggregates the results into a deduplicated set of (variant, position)
// pairs. The same chunk retrieved by two variants stays in twice, once per
// variant: candidate generation stays broad, narrowing happens in rerank.
// Order of the returned slice is unspecified.
func (r *Retriever) HybridSearch(ctx context.Context, queries []string) ([]Candidate, error) {
	seen := make(map[Candidate]struct{})
	var results []Candidate

	for _, query := range queries {
		vec, err := r.embedder.Embed(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("embedding query %q: %w", query, err)
		}
		positions, err := r.index.Search(vec, r.topK)
		if err != nil {
			return nil, fmt.Errorf("searching for %q: %w", query, err)
		}
		for _, pos := range positions {
			c := Candidate{Query: query, Position: pos}
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			results = append(results, c)
		}
	}

	return results, nil
}

// Rerank scores each candidate chunk by cosine similarity to the reference
// query and returns the candidates sorted by descending score. The sort is
// stable, so ties keep candidate encounter order.
func (r *Retriever) Rerank(ctx context.Context, reference string, candidates []Candidate) ([]ScoredChunk, error) {
	queryVec, err := r.embedder.Embed(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("embedding reference query: %w", err)
	}

	scored := make([]ScoredChunk, 0, len(candidates))
	for _, cand := range candidates {
		if cand.Position < 0 || cand.Position >= len(r.documents) {
			return nil, fmt.Errorf("candidate position %d out of range [0,%d)", cand.Position, len(r.documents))
		}
		doc := r.documents[cand.Position]
		docVec, err := r.embedder.Embed(ctx, doc)
		if err != nil {
			return nil, fmt.Errorf("embedding chunk %d: %w", cand.Position, err)
		}
		scored = append(scored, ScoredChunk{
			Score: CosineSimilarity(queryVec, docVec),
			Text:  doc,
			Meta:  r.metadatas[cand.Position],
		})
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	return scored, nil
}

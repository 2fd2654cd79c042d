package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"corpusqa/pkg/embedder"
	"corpusqa/pkg/llm"
	"corpusqa/pkg/vectorstore"
)

// Searcher is the retrieval surface the pipeline depends on.
type Searcher interface {
	HybridSearch(ctx context.Context, queries []string) ([]vectorstore.Candidate, error)
	Rerank(ctx context.Context, reference string, candidates []vectorstore.Candidate) ([]vectorstore.ScoredChunk, error)
}

// Options tunes the pipeline. Zero values fall back to the defaults below,
// except Expansions: zero is a meaningful setting that disables query
// expansion, so it passes through untouched.
type Options struct {
	Expansions       int // paraphrases requested per query; 0 disables expansion
	ContextTopK      int // unique chunks assembled into the context
	SimilarityWindow int // reranked scores averaged for the confidence term
	ClassifyWorkers  int // bound on parallel variant classification
}

const (
	defaultContextTopK      = 3
	defaultSimilarityWindow = 5
	defaultClassifyWorkers  = 4
)

func (o Options) withDefaults() Options {
	if o.Expansions < 0 {
		o.Expansions = 0
	}
	if o.ContextTopK <= 0 {
		o.ContextTopK = defaultContextTopK
	}
	if o.SimilarityWindow <= 0 {
		o.SimilarityWindow = defaultSimilarityWindow
	}
	if o.ClassifyWorkers <= 0 {
		o.ClassifyWorkers = defaultClassifyWorkers
	}
	return o
}

// Pipeline sequences expansion, classification, retrieval, reranking,
// deduplication, context assembly, generation and confidence scoring.
// Each Run is independent; the only shared state is the read-only index
// behind the Searcher and the embedding cache.
type Pipeline struct {
	searcher    Searcher
	embedder    embedder.Embedder
	paraphraser llm.Paraphraser
	classifier  llm.Classifier
	summarizer  llm.Summarizer
	generator   llm.Generator
	logger      *slog.Logger
	opts        Options
}

// NewPipeline wires the pipeline's collaborators. A nil logger falls back
// to slog.Default.
func NewPipeline(
	searcher Searcher,
	emb embedder.Embedder,
	paraphraser llm.Paraphraser,
	classifier llm.Classifier,
	summarizer llm.Summarizer,
	generator llm.Generator,
	logger *slog.Logger,
	opts Options,
) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		searcher:    searcher,
		embedder:    emb,
		paraphraser: paraphraser,
		classifier:  classifier,
		summarizer:  summarizer,
		generator:   generator,
		logger:      logger,
		opts:        opts.withDefaults(),
	}
}

// RunOptions are per-invocation switches.
type RunOptions struct {
	SummarizeDocs bool
}

// Run executes the full pipeline for one user query. A failed collaborator
// call fails the whole query; there is no internal retry and no partial
// answer.
func (p *Pipeline) Run(ctx context.Context, userQuery string, runOpts RunOptions) (*Answer, error) {
	p.logger.Info("starting answer pipeline", "query", userQuery)

	// Expansion. The original query always occupies index 0; with zero
	// expansions configured the paraphraser is never called.
	variants := []string{userQuery}
	if p.opts.Expansions > 0 {
		expansions, err := p.paraphraser.Paraphrase(ctx, userQuery, p.opts.Expansions)
		if err != nil {
			return nil, fmt.Errorf("expanding query: %w", err)
		}
		variants = append(variants, expansions...)
	}

	// Classification of every variant, fanned out over a bounded pool and
	// re-sorted by variant index before aggregation.
	classifications, err := p.classifyVariants(ctx, variants)
	if err != nil {
		return nil, fmt.Errorf("classifying variants: %w", err)
	}

	majority, avgClassificationConf := majorityLabel(classifications)
	p.logger.Debug("classified variants", "category", majority, "avg_confidence", avgClassificationConf)

	// Filter to majority-label variants; the original query always stays.
	filtered := make([]string, 0, len(variants))
	for i, v := range variants {
		if i == 0 || classifications[i].Label == majority {
			filtered = append(filtered, v)
		}
	}

	// Retrieval and reranking.
	candidates, err := p.searcher.HybridSearch(ctx, filtered)
	if err != nil {
		return nil, fmt.Errorf("retrieving candidates: %w", err)
	}
	p.logger.Debug("retrieved candidates", "count", len(candidates))

	reranked, err := p.searcher.Rerank(ctx, userQuery, candidates)
	if err != nil {
		return nil, fmt.Errorf("reranking candidates: %w", err)
	}

	// Similarity averaging happens on the reranked ordering before the
	// final chunk-text dedup.
	window := p.opts.SimilarityWindow
	if window > len(reranked) {
		window = len(reranked)
	}
	topScores := make([]float64, 0, window)
	for _, sc := range reranked[:window] {
		topScores = append(topScores, sc.Score)
	}
	avgSimilarity := mean(topScores)

	unique := dedupByText(reranked)
	p.logger.Debug("deduplicated results", "unique", len(unique))

	topK := p.opts.ContextTopK
	if topK > len(unique) {
		topK = len(unique)
	}
	top := unique[:topK]

	// Context assembly, with optional conditional summarization.
	contextText, err := p.assembleContext(ctx, top, runOpts.SummarizeDocs)
	if err != nil {
		return nil, fmt.Errorf("assembling context: %w", err)
	}

	// Generation.
	answerText, err := p.generator.Generate(ctx, llm.GenerationRequest{
		Query:    userQuery,
		Context:  contextText,
		Category: majority,
	})
	if err != nil {
		return nil, fmt.Errorf("generating answer: %w", err)
	}

	// Confidence fusion.
	confidence, err := p.scoreConfidence(ctx, userQuery, answerText, top, avgClassificationConf, avgSimilarity)
	if err != nil {
		return nil, fmt.Errorf("scoring confidence: %w", err)
	}

	sources := make([]vectorstore.ChunkMeta, 0, len(top))
	for _, sc := range top {
		sources = append(sources, sc.Meta)
	}

	p.logger.Info("pipeline done", "category", majority, "confidence", confidence, "chunks", len(unique))

	return &Answer{
		ID:              uuid.New(),
		Query:           userQuery,
		Answer:          answerText,
		Context:         contextText,
		Category:        majority,
		Sources:         sources,
		RetrievedChunks: unique,
		Confidence:      confidence,
		CreatedAt:       time.Now(),
	}, nil
}

// classifyVariants classifies each variant on a bounded worker pool.
// Variants are independent, so results may complete in any order; they are
// written back by index to restore variant order.
func (p *Pipeline) classifyVariants(ctx context.Context, variants []string) ([]llm.Classification, error) {
	results := make([]llm.Classification, len(variants))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.ClassifyWorkers)
	for i, variant := range variants {
		i, variant := i, variant
		g.Go(func() error {
			c, err := p.classifier.Classify(gctx, variant)
			if err != nil {
				return fmt.Errorf("classifying %q: %w", variant, err)
			}
			results[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// majorityLabel returns the most frequent label and the mean confidence of
// the variants carrying it. Ties break toward the label that reached the
// max count first in variant order.
func majorityLabel(classifications []llm.Classification) (string, float64) {
	counts := make(map[string]int)
	var majority string
	best := 0
	for _, c := range classifications {
		counts[c.Label]++
		if counts[c.Label] > best {
			best = counts[c.Label]
			majority = c.Label
		}
	}

	var confidences []float64
	for _, c := range classifications {
		if c.Label == majority {
			confidences = append(confidences, c.Confidence)
		}
	}
	return majority, mean(confidences)
}

// dedupByText removes chunks whose text already appeared, keeping the first
// (best-scoring) occurrence. Idempotent.
func dedupByText(chunks []vectorstore.ScoredChunk) []vectorstore.ScoredChunk {
	seen := make(map[string]struct{}, len(chunks))
	unique := make([]vectorstore.ScoredChunk, 0, len(chunks))
	for _, c := range chunks {
		if _, ok := seen[c.Text]; ok {
			continue
		}
		seen[c.Text] = struct{}{}
		unique = append(unique, c)
	}
	return unique
}

func (p *Pipeline) assembleContext(ctx context.Context, top []vectorstore.ScoredChunk, summarize bool) (string, error) {
	parts := make([]string, 0, len(top))
	for _, sc := range top {
		text := sc.Text
		if summarize {
			var err error
			text, err = p.summarizer.SummarizeIfNeeded(ctx, sc.Text)
			if err != nil {
				return "", err
			}
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n\n"), nil
}

// scoreConfidence computes the composite confidence: classification
// agreement, retrieval similarity, answer-to-context alignment and
// query-to-answer similarity.
func (p *Pipeline) scoreConfidence(ctx context.Context, userQuery, answer string, top []vectorstore.ScoredChunk, avgClassificationConf, avgSimilarity float64) (float64, error) {
	answerVec, err := p.embedder.Embed(ctx, answer)
	if err != nil {
		return 0, fmt.Errorf("embedding answer: %w", err)
	}

	alignments := make([]float64, 0, len(top))
	for _, sc := range top {
		chunkVec, err := p.embedder.Embed(ctx, sc.Text)
		if err != nil {
			return 0, fmt.Errorf("embedding context chunk: %w", err)
		}
		alignments = append(alignments, vectorstore.CosineSimilarity(answerVec, chunkVec))
	}

	queryVec, err := p.embedder.Embed(ctx, userQuery)
	if err != nil {
		return 0, fmt.Errorf("embedding query: %w", err)
	}
	queryAnswerSim := vectorstore.CosineSimilarity(queryVec, answerVec)

	return confidenceScore(avgClassificationConf, avgSimilarity, mean(alignments), queryAnswerSim), nil
}

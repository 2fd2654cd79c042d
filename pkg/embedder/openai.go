package embedder

import (
	"context"
	"errors"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIEmbedder uses the OpenAI API for embeddings.
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
	dim    int
}

// NewOpenAIEmbedder creates an OpenAI embedder. The API key is read from
// the OPENAI_API_KEY environment variable.
func NewOpenAIEmbedder(model string) (*OpenAIEmbedder, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable not set")
	}

	client := openai.NewClient(key)

	// Set dimension based on model
	dim := 1536 // default for text-embedding-3-small
	if model == "text-embedding-3-large" {
		dim = 3072
	}

	return &OpenAIEmbedder{
		client: client,
		model:  model,
		dim:    dim,
	}, nil
}

// Embed generates an embedding for a single text. Vectors are returned as
// produced by the API, not normalized: index construction uses squared
// Euclidean distance while reranking uses cosine similarity, and both need
// the raw vector.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if len(text) == 0 {
		return nil, errors.New("cannot embed empty text")
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("embeddings request: %w", err)
	}

	if len(resp.Data) == 0 {
		return nil, errors.New("no embedding data returned from API")
	}

	v64 := resp.Data[0].Embedding
	v := make([]float32, len(v64))
	for i := range v64 {
		v[i] = float32(v64[i])
	}

	return v, nil
}

// EmbedBatch generates embeddings for multiple texts with parallel processing.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return e.EmbedBatchWithProgress(ctx, texts, nil)
}

// EmbedBatchWithProgress generates embeddings with an optional progress
// callback, called with (completed, total) after each embedding.
func (e *OpenAIEmbedder) EmbedBatchWithProgress(ctx context.Context, texts []string, progressFn func(int, int)) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	errChan := make(chan error, len(texts))
	sem := make(chan struct{}, 10) // Limit concurrent API calls to 10
	completed := make(chan int, len(texts))

	for i := range texts {
		sem <- struct{}{} // Acquire semaphore
		go func(idx int) {
			defer func() { <-sem }() // Release semaphore

			emb, err := e.Embed(ctx, texts[idx])
			if err != nil {
				errChan <- err
				completed <- 0
				return
			}
			embeddings[idx] = emb
			errChan <- nil
			completed <- 1
		}(i)
	}

	// Wait for all goroutines to complete and track progress
	count := 0
	for i := 0; i < len(texts); i++ {
		if err := <-errChan; err != nil {
			return nil, err
		}
		count += <-completed
		if progressFn != nil {
			progressFn(count, len(texts))
		}
	}

	return embeddings, nil
}

// Dimension returns the embedding dimension.
func (e *OpenAIEmbedder) Dimension() int {
	return e.dim
}

// ModelInfo returns model information.
func (e *OpenAIEmbedder) ModelInfo() string {
	return "openai-" + e.model
}

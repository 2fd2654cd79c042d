// Package llm defines the model capabilities the answer pipeline consumes
// and their OpenAI chat implementations. The pipeline depends only on the
// interfaces; what a model computes is outside the contract.
package llm

import "context"

// Classification is a category label with the model's confidence in [0,1].
type Classification struct {
	Label      string
	Confidence float64
}

// Paraphraser produces up to n reworded variants of a query. Output may be
// non-deterministic across calls.
type Paraphraser interface {
	Paraphrase(ctx context.Context, query string, n int) ([]string, error)
}

// Classifier assigns one label from a fixed category set to a text.
type Classifier interface {
	Classify(ctx context.Context, text string) (Classification, error)
}

// Summarizer shortens text that exceeds a word threshold and passes short
// text through unchanged.
type Summarizer interface {
	SummarizeIfNeeded(ctx context.Context, text string) (string, error)
}

// GenerationRequest carries everything the answer generator needs.
type GenerationRequest struct {
	Query    string
	Context  string
	Category string
}

// Generator produces the final answer text in a single synchronous call.
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}

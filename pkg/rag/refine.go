package rag

import (
	"context"
	"fmt"
	"strings"

	"corpusqa/pkg/llm"
)

// Refine regenerates an answer guided by a free-text suggestion. An empty
// or whitespace-only suggestion returns the prior answer unchanged.
// Retrieval, classification and confidence scoring are not re-run: the
// confidence score stays the one computed for the original answer.
func (p *Pipeline) Refine(ctx context.Context, prior *Answer, suggestion string) (*Answer, error) {
	if strings.TrimSpace(suggestion) == "" {
		return prior, nil
	}

	augmented := fmt.Sprintf("%s\n\nPrevious Answer: %s\n\nSuggestion: %s",
		prior.Context, prior.Answer, suggestion)

	newAnswer, err := p.generator.Generate(ctx, llm.GenerationRequest{
		Query:    prior.Query,
		Context:  augmented,
		Category: prior.Category,
	})
	if err != nil {
		return nil, fmt.Errorf("regenerating answer: %w", err)
	}

	refined := *prior
	refined.Answer = newAnswer
	return &refined, nil
}

package llm

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCategories = []string{"general", "legal", "finance", "product", "feature", "news", "collaboration"}

func TestParseClassification(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		want    Classification
		wantErr bool
	}{
		{
			name:  "plain json",
			reply: `{"category": "legal", "confidence": 0.82}`,
			want:  Classification{Label: "legal", Confidence: 0.82},
		},
		{
			name:  "fenced json",
			reply: "```json\n{\"category\": \"finance\", \"confidence\": 0.5}\n```",
			want:  Classification{Label: "finance", Confidence: 0.5},
		},
		{
			name:  "uppercase label normalized",
			reply: `{"category": "Product", "confidence": 1}`,
			want:  Classification{Label: "product", Confidence: 1},
		},
		{
			name:  "confidence clamped",
			reply: `{"category": "news", "confidence": 1.7}`,
			want:  Classification{Label: "news", Confidence: 1},
		},
		{
			name:    "unknown category",
			reply:   `{"category": "sports", "confidence": 0.9}`,
			wantErr: true,
		},
		{
			name:    "not json",
			reply:   "definitely legal",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseClassification(tt.reply, testCategories)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseClassification_CaseInsensitiveCategories(t *testing.T) {
	categories := []string{"Legal", "Finance"}

	got, err := parseClassification(`{"category": "LEGAL", "confidence": 0.9}`, categories)
	require.NoError(t, err)
	assert.Equal(t, Classification{Label: "Legal", Confidence: 0.9}, got)

	got, err = parseClassification(`{"category": "finance", "confidence": 0.4}`, categories)
	require.NoError(t, err)
	assert.Equal(t, "Finance", got.Label, "label must carry the configured spelling")
}

func TestParseLines(t *testing.T) {
	reply := "1. What is the refund policy?\n2) How are refunds handled?\n\n- Refund process details?\nextra variant\nsixth variant"

	got := parseLines(reply, 4)
	assert.Equal(t, []string{
		"What is the refund policy?",
		"How are refunds handled?",
		"Refund process details?",
		"extra variant",
	}, got)
}

func TestChatSummarizer_ShortTextPassthrough(t *testing.T) {
	// Below the threshold the API is never reached, so a nil client is safe.
	s := NewChatSummarizer(NewChatModel(nil, ChatModelConfig{Model: "test"}), 10)

	text := "only a few words here"
	got, err := s.SummarizeIfNeeded(context.Background(), text)
	require.NoError(t, err)
	assert.Equal(t, text, got)
}

func TestChatSummarizer_DefaultThreshold(t *testing.T) {
	s := NewChatSummarizer(NewChatModel(nil, ChatModelConfig{Model: "test"}), 0)

	text := strings.Repeat("word ", DefaultSummaryThreshold) // exactly at threshold
	got, err := s.SummarizeIfNeeded(context.Background(), text)
	require.NoError(t, err)
	assert.Equal(t, text, got)
}

func TestGenerationPrompt(t *testing.T) {
	prompt := GenerationPrompt(GenerationRequest{
		Query:    "What is the SLA?",
		Context:  "uptime is 99.9%",
		Category: "legal",
	})

	assert.Contains(t, prompt, "Category: legal")
	assert.Contains(t, prompt, "Context:\nuptime is 99.9%")
	assert.Contains(t, prompt, "Question:\nWhat is the SLA?")
	assert.True(t, strings.HasSuffix(prompt, "Answer:"))
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	gen := NewChatGenerator(NewChatModel(nil, ChatModelConfig{Model: "gpt-4o-mini"}))
	reg.Register("default", gen)

	got, err := reg.Get("default")
	require.NoError(t, err)
	assert.Same(t, gen, got)

	_, err = reg.Get("missing")
	assert.ErrorIs(t, err, ErrUnknownBackend)

	assert.Equal(t, []string{"default"}, reg.Names())
}

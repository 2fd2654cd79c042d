package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// ChatModel is one chat-completion backend: a client plus sampling settings.
// Capability types share a ChatModel so a backend is constructed once and
// reused across calls.
type ChatModel struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

// ChatModelConfig holds the per-backend settings.
type ChatModelConfig struct {
	Model       string
	Temperature float32
	MaxTokens   int
}

// NewChatModel creates a backend over an existing client.
func NewChatModel(client *openai.Client, cfg ChatModelConfig) *ChatModel {
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.6
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 512
	}
	return &ChatModel{
		client:      client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

// Model returns the backend's model identifier.
func (m *ChatModel) Model() string { return m.model }

func (m *ChatModel) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       m.model,
		Temperature: m.temperature,
		MaxTokens:   m.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no completion choices returned")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// ChatParaphraser expands a query into reworded variants.
type ChatParaphraser struct {
	*ChatModel
}

// NewChatParaphraser creates a paraphrase capability over a backend.
func NewChatParaphraser(m *ChatModel) *ChatParaphraser {
	return &ChatParaphraser{ChatModel: m}
}

// Paraphrase asks the model for n rewordings, one per line.
func (p *ChatParaphraser) Paraphrase(ctx context.Context, query string, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	system := "You rephrase user questions. Reply with the paraphrases only, one per line, no numbering."
	user := fmt.Sprintf("Paraphrase the question in %d different ways: %s", n, query)

	reply, err := p.complete(ctx, system, user)
	if err != nil {
		return nil, fmt.Errorf("paraphrasing query: %w", err)
	}
	return parseLines(reply, n), nil
}

// parseLines splits a reply into at most n cleaned, non-empty lines,
// stripping any leading list markers the model added anyway.
func parseLines(reply string, n int) []string {
	var out []string
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "0123456789.-) ")
		if line == "" {
			continue
		}
		out = append(out, line)
		if len(out) == n {
			break
		}
	}
	return out
}

// ChatClassifier assigns one label from a fixed category set.
type ChatClassifier struct {
	*ChatModel
	categories []string
}

// NewChatClassifier creates a classification capability constrained to the
// given category set.
func NewChatClassifier(m *ChatModel, categories []string) *ChatClassifier {
	return &ChatClassifier{ChatModel: m, categories: categories}
}

// fewShotExamples guide the model toward the category conventions.
var fewShotExamples = []string{
	`Q: How does the vendor differentiate itself from competitors?` + "\nA: general",
	`Q: Does your licensing agreement include data privacy clauses?` + "\nA: legal",
	`Q: Outline the projected total cost of ownership over 3 years.` + "\nA: finance",
	`Q: Explain the hardware architecture behind the flagship product line.` + "\nA: product",
	`Q: What built-in telemetry and real-time analytics are provided?` + "\nA: feature",
	`Q: When is the next major release scheduled and what changes are included?` + "\nA: news",
	`Q: Which partners did the vendor co-engineer with in the past year?` + "\nA: collaboration",
}

type classificationReply struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// Classify asks the model for a category plus confidence and validates the
// reply against the configured set.
func (c *ChatClassifier) Classify(ctx context.Context, text string) (Classification, error) {
	system := fmt.Sprintf(
		"You classify questions into exactly one of these categories: %s.\n"+
			"Reply with JSON only: {\"category\": \"<label>\", \"confidence\": <0..1>}.",
		strings.Join(c.categories, ", "))
	user := strings.Join(fewShotExamples, "\n\n") +
		"\n\nBased on the above examples, classify this query.\n\nQ: " + text

	reply, err := c.complete(ctx, system, user)
	if err != nil {
		return Classification{}, fmt.Errorf("classifying query: %w", err)
	}
	return parseClassification(reply, c.categories)
}

// parseClassification decodes the model reply, tolerating markdown fences,
// and validates the label against the category set.
func parseClassification(reply string, categories []string) (Classification, error) {
	cleaned := strings.TrimSpace(reply)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var parsed classificationReply
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return Classification{}, fmt.Errorf("parsing classification reply %q: %w", reply, err)
	}

	conf := parsed.Confidence
	if conf < 0 {
		conf = 0
	}
	if conf > 1 {
		conf = 1
	}

	// Match case-insensitively but report the configured spelling, so labels
	// stay comparable across variants regardless of how the model cased its
	// reply or how the config cased the category set.
	label := strings.ToLower(strings.TrimSpace(parsed.Category))
	for _, cat := range categories {
		if label == strings.ToLower(cat) {
			return Classification{Label: cat, Confidence: conf}, nil
		}
	}
	return Classification{}, fmt.Errorf("model returned unknown category %q", parsed.Category)
}

// ChatSummarizer shortens long chunks before context assembly.
type ChatSummarizer struct {
	*ChatModel
	maxWords int
}

// DefaultSummaryThreshold is the word count above which text is summarized.
const DefaultSummaryThreshold = 512

// NewChatSummarizer creates a conditional summarizer. maxWords <= 0 falls
// back to DefaultSummaryThreshold.
func NewChatSummarizer(m *ChatModel, maxWords int) *ChatSummarizer {
	if maxWords <= 0 {
		maxWords = DefaultSummaryThreshold
	}
	return &ChatSummarizer{ChatModel: m, maxWords: maxWords}
}

// SummarizeIfNeeded returns text unchanged below the word threshold,
// otherwise a 64-512 word summary.
func (s *ChatSummarizer) SummarizeIfNeeded(ctx context.Context, text string) (string, error) {
	if len(strings.Fields(text)) <= s.maxWords {
		return text, nil
	}

	system := "You condense documents. Keep all facts, figures and names. Reply with the summary only, between 64 and 512 words."
	reply, err := s.complete(ctx, system, "Summarize this document:\n\n"+text)
	if err != nil {
		return "", fmt.Errorf("summarizing chunk: %w", err)
	}
	return reply, nil
}

// ChatGenerator produces the final answer from query, context and category.
type ChatGenerator struct {
	*ChatModel
}

// NewChatGenerator creates the answer generation capability.
func NewChatGenerator(m *ChatModel) *ChatGenerator {
	return &ChatGenerator{ChatModel: m}
}

const generatorSystemPrompt = "You are a domain expert and helpful assistant. " +
	"Answer the following question concisely and clearly, based only on the provided context."

// GenerationPrompt renders the user message for a request. Exported so the
// prompt shape stays testable without a live client.
func GenerationPrompt(req GenerationRequest) string {
	return fmt.Sprintf("Category: %s\n\nContext:\n%s\n\nQuestion:\n%s\n\nAnswer:",
		req.Category, req.Context, req.Query)
}

// Generate invokes the backend once and returns the answer text.
func (g *ChatGenerator) Generate(ctx context.Context, req GenerationRequest) (string, error) {
	reply, err := g.complete(ctx, generatorSystemPrompt, GenerationPrompt(req))
	if err != nil {
		return "", fmt.Errorf("generating answer: %w", err)
	}
	return reply, nil
}

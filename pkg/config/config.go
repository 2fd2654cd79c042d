// Package config holds the YAML configuration surface for corpusqa.
// Validation happens at load time: a bad value fails startup, never
// mid-pipeline.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Index      IndexConfig      `yaml:"index"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Generation GenerationConfig `yaml:"generation"`
}

// IndexConfig describes where the corpus lives and how it is chunked.
type IndexConfig struct {
	SourceDir    string `yaml:"sourceDir"`
	IndexPath    string `yaml:"indexPath"`
	MetadataPath string `yaml:"metadataPath"`
	BackupDir    string `yaml:"backupDir"` // secondary copy; failures are non-fatal
	ChunkSize    int    `yaml:"chunkSize"`
	ChunkOverlap int    `yaml:"chunkOverlap"`
}

// IndexPaths returns the candidate index locations, primary first.
func (c IndexConfig) IndexPaths() []string {
	return c.candidatePaths(c.IndexPath)
}

// MetadataPaths returns the candidate metadata locations, primary first.
func (c IndexConfig) MetadataPaths() []string {
	return c.candidatePaths(c.MetadataPath)
}

func (c IndexConfig) candidatePaths(primary string) []string {
	paths := []string{primary}
	if c.BackupDir != "" {
		paths = append(paths, filepath.Join(c.BackupDir, filepath.Base(primary)))
	}
	return paths
}

// RetrievalConfig tunes search fan-out and context assembly.
type RetrievalConfig struct {
	TopK             int `yaml:"topK"`             // k-NN fan-out per variant
	ContextTopK      int `yaml:"contextTopK"`      // unique chunks in the context
	Expansions       int `yaml:"expansions"`       // paraphrases per query
	SimilarityWindow int `yaml:"similarityWindow"` // rerank scores averaged for confidence
}

// EmbeddingConfig selects the embedding model and memo bound.
type EmbeddingConfig struct {
	Model     string `yaml:"model"`
	CacheSize int    `yaml:"cacheSize"`
}

// ClassifierConfig fixes the category set and which generation backend
// classification runs on. An empty backend means generation.default.
type ClassifierConfig struct {
	Backend    string   `yaml:"backend"`
	Categories []string `yaml:"categories"`
}

// SummarizerConfig sets the conditional summarization threshold and which
// generation backend summarization runs on. An empty backend means
// generation.default.
type SummarizerConfig struct {
	Backend  string `yaml:"backend"`
	MaxWords int    `yaml:"maxWords"`
}

// GenerationConfig names the available chat backends and the default one.
type GenerationConfig struct {
	Default  string                   `yaml:"default"`
	Backends map[string]BackendConfig `yaml:"backends"`
}

// BackendConfig is one named chat-completion backend.
type BackendConfig struct {
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"maxTokens"`
}

// Defaults returns a working configuration.
func Defaults() Config {
	return Config{
		Index: IndexConfig{
			SourceDir:    "data/corpus",
			IndexPath:    "index/vectors.gob",
			MetadataPath: "index/metadata.gob",
			BackupDir:    "index-backup",
			ChunkSize:    512,
			ChunkOverlap: 64,
		},
		Retrieval: RetrievalConfig{
			TopK:             3,
			ContextTopK:      3,
			Expansions:       5,
			SimilarityWindow: 5,
		},
		Embedding: EmbeddingConfig{
			Model:     "text-embedding-3-small",
			CacheSize: 1000,
		},
		Classifier: ClassifierConfig{
			Backend: "default",
			Categories: []string{
				"general", "legal", "finance", "product", "feature", "news", "collaboration",
			},
		},
		Summarizer: SummarizerConfig{
			Backend:  "default",
			MaxWords: 512,
		},
		Generation: GenerationConfig{
			Default: "default",
			Backends: map[string]BackendConfig{
				"default": {Model: "gpt-4o-mini", Temperature: 0.6, MaxTokens: 512},
			},
		},
	}
}

// Load reads a YAML config file over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration at startup.
func (c Config) Validate() error {
	if c.Index.SourceDir == "" {
		return fmt.Errorf("index.sourceDir must be set")
	}
	if c.Index.IndexPath == "" || c.Index.MetadataPath == "" {
		return fmt.Errorf("index.indexPath and index.metadataPath must be set")
	}
	if c.Index.ChunkSize <= 0 {
		return fmt.Errorf("index.chunkSize must be positive, got %d", c.Index.ChunkSize)
	}
	if c.Index.ChunkOverlap < 0 || c.Index.ChunkOverlap >= c.Index.ChunkSize {
		return fmt.Errorf("index.chunkOverlap must be in [0, chunkSize), got %d", c.Index.ChunkOverlap)
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval.topK must be positive, got %d", c.Retrieval.TopK)
	}
	if c.Retrieval.ContextTopK <= 0 {
		return fmt.Errorf("retrieval.contextTopK must be positive, got %d", c.Retrieval.ContextTopK)
	}
	if c.Retrieval.Expansions < 0 {
		return fmt.Errorf("retrieval.expansions must not be negative, got %d", c.Retrieval.Expansions)
	}
	if c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model must be set")
	}
	if c.Embedding.CacheSize <= 0 {
		return fmt.Errorf("embedding.cacheSize must be positive, got %d", c.Embedding.CacheSize)
	}
	if len(c.Classifier.Categories) == 0 {
		return fmt.Errorf("classifier.categories must not be empty")
	}
	if c.Summarizer.MaxWords <= 0 {
		return fmt.Errorf("summarizer.maxWords must be positive, got %d", c.Summarizer.MaxWords)
	}
	if len(c.Generation.Backends) == 0 {
		return fmt.Errorf("generation.backends must not be empty")
	}
	if _, ok := c.Generation.Backends[c.Generation.Default]; !ok {
		return fmt.Errorf("generation.default %q is not a configured backend", c.Generation.Default)
	}
	for name, b := range c.Generation.Backends {
		if b.Model == "" {
			return fmt.Errorf("generation backend %q has no model", name)
		}
	}
	if b := c.Classifier.Backend; b != "" {
		if _, ok := c.Generation.Backends[b]; !ok {
			return fmt.Errorf("classifier.backend %q is not a configured backend", b)
		}
	}
	if b := c.Summarizer.Backend; b != "" {
		if _, ok := c.Generation.Backends[b]; !ok {
			return fmt.Errorf("summarizer.backend %q is not a configured backend", b)
		}
	}
	return nil
}

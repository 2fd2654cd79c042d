package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	openai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	"corpusqa/pkg/config"
	"corpusqa/pkg/embedder"
	"corpusqa/pkg/llm"
	"corpusqa/pkg/rag"
	"corpusqa/pkg/vectorstore"
)

var (
	version    = "0.1.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
)

func main() {
	// .env is the usual place for OPENAI_API_KEY during development.
	_ = godotenv.Load()

	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:   "corpusqa",
		Short: "corpusqa: question answering over a private document corpus",
		Long:  "corpusqa indexes a folder of text documents and answers questions over it with multi-query retrieval, reranking and a composite confidence score.",
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.yaml (default: built-in defaults)")

	root.AddCommand(buildCmd())
	root.AddCommand(askCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	if configPath == "" {
		return config.Defaults(), nil
	}
	return config.Load(configPath)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("corpusqa %s\n", version)
		},
	}
}

func buildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Build the document index from the configured source folder",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			emb, err := newCachedEmbedder(cfg)
			if err != nil {
				return err
			}

			builder := vectorstore.NewBuilder(emb, logger, vectorstore.BuildOptions{
				ChunkSize:    cfg.Index.ChunkSize,
				ChunkOverlap: cfg.Index.ChunkOverlap,
				IndexPath:    cfg.Index.IndexPath,
				MetadataPath: cfg.Index.MetadataPath,
				BackupDir:    cfg.Index.BackupDir,
			})

			index, _, err := builder.Build(cmd.Context(), os.DirFS(cfg.Index.SourceDir))
			if err != nil {
				return fmt.Errorf("building index: %w", err)
			}
			logger.Info("build complete", "vectors", index.Len())
			return nil
		},
	}
}

func askCmd() *cobra.Command {
	var (
		summarize   bool
		interactive bool
		backend     string
		showChunks  bool
	)

	cmd := &cobra.Command{
		Use:   "ask [query...]",
		Short: "Answer a question over the indexed corpus",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			pipeline, err := newPipeline(cfg, backend)
			if err != nil {
				return err
			}

			query := strings.Join(args, " ")
			answer, err := pipeline.Run(cmd.Context(), query, rag.RunOptions{SummarizeDocs: summarize})
			if err != nil {
				if errors.Is(err, vectorstore.ErrIndexNotFound) {
					return fmt.Errorf("no index found, run `corpusqa build` first: %w", err)
				}
				return err
			}

			printAnswer(answer)
			if showChunks {
				fmt.Println()
				fmt.Println(rag.RenderChunks(answer.RetrievedChunks[:min(len(answer.RetrievedChunks), 3)]))
			}

			if interactive {
				return refineLoop(cmd.Context(), pipeline, answer)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&summarize, "summarize", false, "summarize long chunks before answering")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "prompt for improvement suggestions after the answer")
	cmd.Flags().StringVar(&backend, "backend", "", "generation backend name (default: generation.default from config)")
	cmd.Flags().BoolVar(&showChunks, "chunks", false, "print the top retrieved chunks")
	return cmd
}

// refineLoop reads suggestions from stdin and regenerates until the user
// accepts the answer with an empty line.
func refineLoop(ctx context.Context, pipeline *rag.Pipeline, answer *rag.Answer) error {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\nSuggestion (empty line to accept): ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		suggestion := scanner.Text()
		if strings.TrimSpace(suggestion) == "" {
			fmt.Println("\nFinal answer stored.")
			return nil
		}

		refined, err := pipeline.Refine(ctx, answer, suggestion)
		if err != nil {
			return err
		}
		answer = refined
		fmt.Printf("\nRefined answer:\n%s\n", answer.Answer)
	}
}

func printAnswer(answer *rag.Answer) {
	fmt.Printf("Category:   %s\n", answer.Category)
	fmt.Printf("Confidence: %.2f%%\n\n", answer.Confidence)
	fmt.Println(answer.Answer)

	if len(answer.Sources) > 0 {
		fmt.Println("\nTop sources:")
		for _, meta := range answer.Sources {
			fmt.Printf("  - %s (chunk %d/%d)\n", meta.Source, meta.ChunkIndex, meta.TotalChunks)
		}
	}
}

func newCachedEmbedder(cfg config.Config) (embedder.Embedder, error) {
	base, err := embedder.NewOpenAIEmbedder(cfg.Embedding.Model)
	if err != nil {
		return nil, err
	}
	return embedder.NewCachedEmbedder(base, cfg.Embedding.CacheSize)
}

// newPipeline wires the full answer pipeline: cached embedder, retriever
// over the persisted index pair, and the chat capabilities.
func newPipeline(cfg config.Config, backendName string) (*rag.Pipeline, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable not set")
	}
	client := openai.NewClient(key)

	emb, err := newCachedEmbedder(cfg)
	if err != nil {
		return nil, err
	}

	retriever, err := vectorstore.NewRetriever(emb,
		cfg.Index.IndexPaths(), cfg.Index.MetadataPaths(),
		cfg.Retrieval.TopK, logger)
	if err != nil {
		return nil, err
	}

	// Generation backends are constructed once; the default is validated
	// at config load, an explicit --backend may still miss.
	registry := llm.NewRegistry()
	models := make(map[string]*llm.ChatModel, len(cfg.Generation.Backends))
	for name, b := range cfg.Generation.Backends {
		model := llm.NewChatModel(client, llm.ChatModelConfig{
			Model:       b.Model,
			Temperature: b.Temperature,
			MaxTokens:   b.MaxTokens,
		})
		models[name] = model
		registry.Register(name, llm.NewChatGenerator(model))
	}

	if backendName == "" {
		backendName = cfg.Generation.Default
	}
	generator, err := registry.Get(backendName)
	if err != nil {
		return nil, err
	}

	// Classification and summarization run on their configured backends,
	// falling back to the default; Validate already pinned the names to
	// configured backends. Paraphrasing rides on the default.
	backendModel := func(name string) *llm.ChatModel {
		if name == "" {
			name = cfg.Generation.Default
		}
		return models[name]
	}
	defaultModel := models[cfg.Generation.Default]

	return rag.NewPipeline(
		retriever,
		emb,
		llm.NewChatParaphraser(defaultModel),
		llm.NewChatClassifier(backendModel(cfg.Classifier.Backend), cfg.Classifier.Categories),
		llm.NewChatSummarizer(backendModel(cfg.Summarizer.Backend), cfg.Summarizer.MaxWords),
		generator,
		logger,
		rag.Options{
			Expansions:       cfg.Retrieval.Expansions,
			ContextTopK:      cfg.Retrieval.ContextTopK,
			SimilarityWindow: cfg.Retrieval.SimilarityWindow,
		},
	), nil
}

package vectorstore

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"corpusqa/pkg/corpus"
	"corpusqa/pkg/embedder"
)

// BuildOptions configures an index build.
type BuildOptions struct {
	ChunkSize    int
	ChunkOverlap int
	IndexPath    string
	MetadataPath string
	BackupDir    string // optional; copy failures are logged and swallowed
}

// Builder turns a source folder into a persisted index/metadata pair.
type Builder struct {
	embedder embedder.Embedder
	logger   *slog.Logger
	opts     BuildOptions
}

// NewBuilder creates a Builder. A nil logger falls back to slog.Default.
func NewBuilder(emb embedder.Embedder, logger *slog.Logger, opts BuildOptions) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = corpus.DefaultChunkSize
	}
	if opts.ChunkOverlap < 0 {
		opts.ChunkOverlap = corpus.DefaultChunkOverlap
	}
	return &Builder{embedder: emb, logger: logger, opts: opts}
}

// Build walks fsys for text documents, chunks and embeds them, and persists
// the index and metadata as a matched pair. Rebuilds always reprocess every
// document; there is no change detection.
func (b *Builder) Build(ctx context.Context, fsys fs.FS) (*FlatIndex, *MetadataStore, error) {
	docs, err := corpus.LoadDocuments(fsys)
	if err != nil {
		return nil, nil, fmt.Errorf("loading documents: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil, fmt.Errorf("no .txt documents found in source folder")
	}

	meta := &MetadataStore{}
	for _, doc := range docs {
		chunks := corpus.SplitText(doc.Content, b.opts.ChunkSize, b.opts.ChunkOverlap)
		for i, chunk := range chunks {
			start := strings.Index(doc.Content, chunk)
			meta.Documents = append(meta.Documents, chunk)
			meta.Metadatas = append(meta.Metadatas, ChunkMeta{
				Source:         doc.Path,
				Filename:       doc.Filename,
				ModifiedTime:   doc.Modified,
				ChunkIndex:     i,
				TotalChunks:    len(chunks),
				CharStart:      start,
				CharEnd:        start + len(chunk),
				FileType:       ".txt",
				ContentPreview: preview(chunk),
			})
		}
	}

	b.logger.Info("encoding document chunks", "documents", len(docs), "chunks", len(meta.Documents))

	embeddings, err := b.embedder.EmbedBatch(ctx, meta.Documents)
	if err != nil {
		return nil, nil, fmt.Errorf("embedding chunks: %w", err)
	}

	index := NewFlatIndex(b.embedder.Dimension())
	if err := index.Add(embeddings); err != nil {
		return nil, nil, fmt.Errorf("building index: %w", err)
	}

	if err := SaveIndex(index, b.opts.IndexPath); err != nil {
		return nil, nil, fmt.Errorf("saving index: %w", err)
	}
	if err := SaveMetadata(meta, b.opts.MetadataPath); err != nil {
		return nil, nil, fmt.Errorf("saving metadata: %w", err)
	}

	b.backup()

	b.logger.Info("index and metadata saved",
		"index", b.opts.IndexPath, "metadata", b.opts.MetadataPath, "vectors", index.Len())
	return index, meta, nil
}

// backup copies the artifact pair to the backup directory. Failure must not
// fail the build.
func (b *Builder) backup() {
	if b.opts.BackupDir == "" {
		return
	}
	for _, src := range []string{b.opts.IndexPath, b.opts.MetadataPath} {
		if err := CopyFile(src, b.opts.BackupDir); err != nil {
			b.logger.Warn("backup copy failed", "src", src, "dir", b.opts.BackupDir, "err", err)
		}
	}
}

func preview(chunk string) string {
	if len(chunk) > 50 {
		return chunk[:50] + "..."
	}
	return chunk
}

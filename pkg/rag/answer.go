package rag

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"corpusqa/pkg/vectorstore"
)

// Answer is the record produced for one query. It is query-scoped and not
// persisted by the pipeline.
type Answer struct {
	ID              uuid.UUID
	Query           string
	Answer          string
	Context         string
	Category        string
	Sources         []vectorstore.ChunkMeta
	RetrievedChunks []vectorstore.ScoredChunk
	Confidence      float64 // 0-100, two decimals
	CreatedAt       time.Time
}

// RenderChunks renders scored chunks for display, one block per chunk with
// its index, source filename and raw text.
func RenderChunks(chunks []vectorstore.ScoredChunk) string {
	blocks := make([]string, 0, len(chunks))
	for _, c := range chunks {
		blocks = append(blocks, fmt.Sprintf("Chunk %d from %s:\n%s",
			c.Meta.ChunkIndex, c.Meta.Filename, c.Text))
	}
	return strings.Join(blocks, "\n\n"+strings.Repeat("-", 40)+"\n\n")
}

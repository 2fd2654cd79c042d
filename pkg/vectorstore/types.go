package vectorstore

import "time"

// ChunkMeta describes one indexed chunk. Offsets are advisory: CharStart is
// the first occurrence of the chunk text within the source document, so a
// chunk whose text recurs verbatim earlier in the file records the earlier
// occurrence.
type ChunkMeta struct {
	Source         string    // path relative to the source folder
	Filename       string
	ModifiedTime   time.Time // source file modification time
	ChunkIndex     int       // position within the source document
	TotalChunks    int       // chunk count for the source document
	CharStart      int
	CharEnd        int
	FileType       string
	ContentPreview string
}

// MetadataStore is the persisted chunk metadata, position-aligned 1:1 with
// the vector index: Documents[i] and Metadatas[i] describe the chunk whose
// embedding sits at vector position i.
type MetadataStore struct {
	Documents []string
	Metadatas []ChunkMeta
}

// Candidate is a (query variant, chunk position) pair produced by
// nearest-neighbor search. The same chunk reached through two different
// variants yields two distinct candidates.
type Candidate struct {
	Query    string
	Position int
}

// ScoredChunk is a reranked retrieval result: cosine similarity against the
// reference query, the chunk text, and its metadata.
type ScoredChunk struct {
	Score float64
	Text  string
	Meta  ChunkMeta
}

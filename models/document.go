package models

// Chunk is a bounded contiguous slice of a source document's text, tagged
// with position metadata. Chunk order within a source is significant:
// ChunkIndex is monotonic per source, starting at 0.
type Chunk struct {
	Text       string `json:"text"`
	Source     string `json:"source"`
	Page       int    `json:"page"`
	ChunkIndex int    `json:"chunk_index"`
}

// EmbeddedChunk is a chunk together with its embedding vector. The vector
// dimension is constant across the whole index; records embedded with a
// different model cannot safely be inserted.
type EmbeddedChunk struct {
	Chunk
	Vector []float32 `json:"-"`
}

// SearchHit is a retrieved chunk with its similarity score. Higher scores
// rank first (cosine similarity). Hits are produced per query and never
// persisted.
type SearchHit struct {
	Chunk
	Score float64 `json:"score"`
}

// UploadedFile describes a file stored in the uploads directory. The
// directory listing is the source of truth for which files are uploaded.
type UploadedFile struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	Size      int64  `json:"size"`
	Extension string `json:"extension"`
}

// IndexStats reports the authoritative record count of the vector index.
// A lookup failure is attached as Error instead of being raised, so the
// analytics surface never crashes on a degraded index.
type IndexStats struct {
	RowCount int    `json:"row_count"`
	Error    string `json:"error,omitempty"`
}

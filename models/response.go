package models

// SourceRef identifies one retrieved chunk backing an answer. Text carries a
// short preview, not the full chunk.
type SourceRef struct {
	Source string  `json:"source"`
	Page   int     `json:"page"`
	Score  float64 `json:"score"`
	Text   string  `json:"text"`
}

// QueryResponse is the result of a query. Success is false when no relevant
// content was found; the answer then carries a fixed notice and Sources is
// empty.
type QueryResponse struct {
	Answer  string      `json:"answer"`
	Sources []SourceRef `json:"sources"`
	Success bool        `json:"success"`
}

// RephraseResponse carries the expanded query alongside the original.
type RephraseResponse struct {
	Original  string `json:"original"`
	Rephrased string `json:"rephrased"`
}

// IngestFileResult reports the outcome for one file of an upload batch.
type IngestFileResult struct {
	Name        string `json:"name"`
	ChunksAdded int    `json:"chunks_added"`
	Skipped     bool   `json:"skipped,omitempty"`
	Error       string `json:"error,omitempty"`
}

// UploadResponse summarizes a batch upload. Per-file failures are reported
// individually; the batch itself always completes.
type UploadResponse struct {
	Files            []IngestFileResult `json:"files"`
	TotalChunksAdded int                `json:"total_chunks_added"`
}

// FileListResponse lists the uploaded files.
type FileListResponse struct {
	Count int            `json:"count"`
	Files []UploadedFile `json:"files"`
}

// DeleteResponse reports how many index records a removal purged.
type DeleteResponse struct {
	Name          string `json:"name"`
	ChunksDeleted int    `json:"chunks_deleted"`
}

// SummaryResponse carries the generated analysis of one uploaded document.
type SummaryResponse struct {
	Source  string `json:"source"`
	Summary string `json:"summary"`
}

// AnalyticsResponse is the analytics dashboard payload: session counters,
// the document count from the uploads directory, and the index's own stats.
type AnalyticsResponse struct {
	AnalyticsSnapshot
	DocumentCount int        `json:"document_count"`
	Index         IndexStats `json:"index"`
}

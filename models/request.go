package models

// QueryRequest asks a question against the indexed documents. TopK is
// optional; the configured default applies when it is zero.
type QueryRequest struct {
	Query string `json:"query" binding:"required"`
	TopK  int    `json:"top_k,omitempty"`
}

// RephraseRequest expands a terse query into a fuller instruction before
// retrieval. Purely textual; does not touch the index.
type RephraseRequest struct {
	Query string `json:"query"`
}

package models

// AnalyticsSnapshot is a point-in-time copy of the session counters.
// TotalChunks is index-derived: after any delete or clear it is
// resynchronized from the vector index's row count rather than decremented
// speculatively.
type AnalyticsSnapshot struct {
	TotalChunks     int     `json:"total_chunks"`
	TotalTokensUsed int     `json:"total_tokens_used"`
	TotalQueries    int     `json:"total_queries"`
	EstimatedCost   float64 `json:"estimated_cost"`
}

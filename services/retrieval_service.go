package services

import (
	"context"
	"fmt"

	"github.com/ichakraborty/docquery/models"
)

// defaultTopK is how many chunks a query retrieves when the caller does not
// say otherwise.
const defaultTopK = 5

// Retriever embeds a query and searches the index for its nearest chunks.
type Retriever struct {
	embedder Embedder
	index    VectorIndex
	topK     int
}

// NewRetriever creates a retriever. topK <= 0 falls back to the default.
func NewRetriever(embedder Embedder, index VectorIndex, topK int) *Retriever {
	if topK <= 0 {
		topK = defaultTopK
	}
	return &Retriever{
		embedder: embedder,
		index:    index,
		topK:     topK,
	}
}

// Retrieve returns the chunks most similar to the query, best first. An
// empty result is a valid outcome, not an error. topK <= 0 uses the
// configured default.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]models.SearchHit, error) {
	if topK <= 0 {
		topK = r.topK
	}

	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	hits, err := r.index.Search(ctx, vector, topK)
	if err != nil {
		return nil, fmt.Errorf("failed to search index: %w", err)
	}
	return hits, nil
}

package services

import (
	"context"
	"testing"

	"github.com/ichakraborty/docquery/models"
)

func TestRetrieveRanksBySimilarity(t *testing.T) {
	ctx := context.Background()
	index := NewMemoryIndex(2)
	embedder := &stubEmbedder{
		dim:     2,
		vectors: map[string][]float32{"what is the answer": {1, 0}},
	}

	if _, err := index.Insert(ctx, []models.EmbeddedChunk{
		embeddedChunk("orthogonal", "a.txt", 0, 0, []float32{0, 1}),
		embeddedChunk("aligned", "b.txt", 2, 0, []float32{1, 0}),
	}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	retriever := NewRetriever(embedder, index, 5)
	hits, err := retriever.Retrieve(ctx, "what is the answer", 2)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
	if hits[0].Text != "aligned" {
		t.Errorf("best hit = %q, want aligned", hits[0].Text)
	}
	if hits[0].Source != "b.txt" || hits[0].Page != 2 {
		t.Errorf("best hit metadata = %s/%d, want b.txt/2", hits[0].Source, hits[0].Page)
	}
}

func TestRetrieveEmptyIndex(t *testing.T) {
	ctx := context.Background()
	index := NewMemoryIndex(2)
	embedder := &stubEmbedder{dim: 2}

	retriever := NewRetriever(embedder, index, 5)
	hits, err := retriever.Retrieve(ctx, "anything", 0)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("got %d hits from empty index, want 0", len(hits))
	}
}

func TestRetrieveDefaultTopK(t *testing.T) {
	ctx := context.Background()
	index := NewMemoryIndex(2)
	embedder := &stubEmbedder{
		dim:     2,
		vectors: map[string][]float32{"q": {1, 0}},
	}

	for i := 0; i < 10; i++ {
		if _, err := index.Insert(ctx, []models.EmbeddedChunk{
			embeddedChunk("chunk", "a.txt", 0, i, []float32{1, 0}),
		}); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	retriever := NewRetriever(embedder, index, 0)
	hits, err := retriever.Retrieve(ctx, "q", 0)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(hits) != defaultTopK {
		t.Errorf("got %d hits, want default %d", len(hits), defaultTopK)
	}
}

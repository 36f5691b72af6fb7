package services

import (
	"context"
	"strings"
	"testing"

	"github.com/ichakraborty/docquery/models"
)

func TestMemoryIndexSearchOrdering(t *testing.T) {
	ctx := context.Background()
	index := NewMemoryIndex(2)

	_, err := index.Insert(ctx, []models.EmbeddedChunk{
		embeddedChunk("far", "a.txt", 0, 0, []float32{0, 1}),
		embeddedChunk("close", "a.txt", 0, 1, []float32{1, 0.1}),
		embeddedChunk("exact", "b.txt", 0, 0, []float32{1, 0}),
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	hits, err := index.Search(ctx, []float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 3 {
		t.Fatalf("got %d hits, want 3", len(hits))
	}
	if hits[0].Text != "exact" || hits[1].Text != "close" || hits[2].Text != "far" {
		t.Errorf("wrong ranking: %q, %q, %q", hits[0].Text, hits[1].Text, hits[2].Text)
	}
	for i := 1; i < len(hits); i++ {
		if hits[i].Score > hits[i-1].Score {
			t.Errorf("scores not descending at %d: %v > %v", i, hits[i].Score, hits[i-1].Score)
		}
	}
}

func TestMemoryIndexSearchTopKBound(t *testing.T) {
	ctx := context.Background()
	index := NewMemoryIndex(2)

	for i := 0; i < 10; i++ {
		if _, err := index.Insert(ctx, []models.EmbeddedChunk{
			embeddedChunk("chunk", "a.txt", 0, i, []float32{1, 0}),
		}); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	hits, err := index.Search(ctx, []float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 3 {
		t.Errorf("got %d hits, want 3", len(hits))
	}
}

func TestMemoryIndexDeleteBySource(t *testing.T) {
	ctx := context.Background()
	index := NewMemoryIndex(2)

	_, err := index.Insert(ctx, []models.EmbeddedChunk{
		embeddedChunk("one", "a.txt", 0, 0, []float32{1, 0}),
		embeddedChunk("two", "a.txt", 0, 1, []float32{1, 0}),
		embeddedChunk("three", "b.txt", 0, 0, []float32{1, 0}),
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	deleted, err := index.DeleteBySource(ctx, "a.txt")
	if err != nil {
		t.Fatalf("DeleteBySource: %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted %d records, want 2", deleted)
	}
	if stats := index.Stats(ctx); stats.RowCount != 1 {
		t.Errorf("row count = %d, want 1", stats.RowCount)
	}

	deleted, err = index.DeleteBySource(ctx, "missing.txt")
	if err != nil {
		t.Fatalf("DeleteBySource: %v", err)
	}
	if deleted != 0 {
		t.Errorf("deleted %d records for missing source, want 0", deleted)
	}
}

func TestMemoryIndexClear(t *testing.T) {
	ctx := context.Background()
	index := NewMemoryIndex(2)

	if _, err := index.Insert(ctx, []models.EmbeddedChunk{
		embeddedChunk("one", "a.txt", 0, 0, []float32{1, 0}),
	}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := index.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if stats := index.Stats(ctx); stats.RowCount != 0 {
		t.Errorf("row count = %d after clear, want 0", stats.RowCount)
	}
}

func TestMemoryIndexDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	index := NewMemoryIndex(3)

	if _, err := index.Insert(ctx, []models.EmbeddedChunk{
		embeddedChunk("bad", "a.txt", 0, 0, []float32{1, 0}),
	}); err == nil {
		t.Fatal("expected error for wrong insert dimension")
	}
	if _, err := index.Search(ctx, []float32{1, 0}, 1); err == nil {
		t.Fatal("expected error for wrong query dimension")
	}
}

func TestMemoryIndexTruncatesLongText(t *testing.T) {
	ctx := context.Background()
	index := NewMemoryIndex(1)

	long := strings.Repeat("a", maxChunkTextBytes+100)
	if _, err := index.Insert(ctx, []models.EmbeddedChunk{
		embeddedChunk(long, "a.txt", 0, 0, []float32{1}),
	}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	hits, err := index.Search(ctx, []float32{1}, 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits[0].Text) != maxChunkTextBytes {
		t.Errorf("stored text length = %d, want %d", len(hits[0].Text), maxChunkTextBytes)
	}
}

func TestMemoryIndexEnsureCollectionIdempotent(t *testing.T) {
	ctx := context.Background()
	index := NewMemoryIndex(2)

	if err := index.EnsureCollection(ctx); err != nil {
		t.Fatalf("EnsureCollection: %v", err)
	}
	if err := index.EnsureCollection(ctx); err != nil {
		t.Fatalf("EnsureCollection again: %v", err)
	}
}

package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/ichakraborty/docquery/models"
)

// MemoryIndex is an in-process VectorIndex doing brute-force cosine search.
// Useful for development and tests; nothing survives a restart.
type MemoryIndex struct {
	dimension int

	mu      sync.RWMutex
	records []models.EmbeddedChunk
}

// NewMemoryIndex creates an empty in-memory index for vectors of the given
// dimension.
func NewMemoryIndex(dimension int) *MemoryIndex {
	return &MemoryIndex{dimension: dimension}
}

func (m *MemoryIndex) EnsureCollection(ctx context.Context) error {
	return nil
}

func (m *MemoryIndex) Insert(ctx context.Context, chunks []models.EmbeddedChunk) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, chunk := range chunks {
		if len(chunk.Vector) != m.dimension {
			return 0, fmt.Errorf("chunk %d of %s has dimension %d, want %d", chunk.ChunkIndex, chunk.Source, len(chunk.Vector), m.dimension)
		}
	}
	for _, chunk := range chunks {
		chunk.Text = truncateChunkText(chunk.Text)
		m.records = append(m.records, chunk)
	}
	return len(chunks), nil
}

func (m *MemoryIndex) Search(ctx context.Context, vector []float32, topK int) ([]models.SearchHit, error) {
	if topK <= 0 {
		return nil, nil
	}
	if len(vector) != m.dimension {
		return nil, fmt.Errorf("query vector has dimension %d, want %d", len(vector), m.dimension)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	hits := make([]models.SearchHit, 0, len(m.records))
	for _, rec := range m.records {
		hits = append(hits, models.SearchHit{
			Chunk: rec.Chunk,
			Score: cosineSimilarity(vector, rec.Vector),
		})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

func (m *MemoryIndex) DeleteBySource(ctx context.Context, source string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.records[:0]
	deleted := 0
	for _, rec := range m.records {
		if rec.Source == source {
			deleted++
			continue
		}
		kept = append(kept, rec)
	}
	m.records = kept
	return deleted, nil
}

func (m *MemoryIndex) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = nil
	return nil
}

func (m *MemoryIndex) Stats(ctx context.Context) models.IndexStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return models.IndexStats{RowCount: len(m.records)}
}

func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

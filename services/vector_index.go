package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"
	"github.com/google/uuid"

	"github.com/ichakraborty/docquery/models"
)

// maxChunkTextBytes is the largest chunk text the index will store. Longer
// texts are truncated at insert time; the embedding is computed from the
// full text before truncation.
const maxChunkTextBytes = 65535

// VectorIndex stores embedded chunks and serves similarity search.
// Implementations must be safe for concurrent use.
type VectorIndex interface {
	// EnsureCollection creates the backing collection if it does not exist.
	// Idempotent.
	EnsureCollection(ctx context.Context) error
	// Insert adds embedded chunks and returns how many were stored.
	Insert(ctx context.Context, chunks []models.EmbeddedChunk) (int, error)
	// Search returns up to topK hits ordered by descending score.
	Search(ctx context.Context, vector []float32, topK int) ([]models.SearchHit, error)
	// DeleteBySource removes every chunk belonging to a source document and
	// returns how many records were purged.
	DeleteBySource(ctx context.Context, source string) (int, error)
	// Clear drops all indexed data.
	Clear(ctx context.Context) error
	// Stats reports the current row count. It never returns an error: on
	// failure the count is zero and the Error field carries the cause.
	Stats(ctx context.Context) models.IndexStats
}

// ChromaIndex is a VectorIndex backed by a ChromaDB collection.
type ChromaIndex struct {
	client     chromago.Client
	collection chromago.Collection
	name       string
	dimension  int

	mu sync.Mutex
}

// NewChromaIndex creates an index on the named collection. Call
// EnsureCollection before any other method.
func NewChromaIndex(client chromago.Client, name string, dimension int) *ChromaIndex {
	return &ChromaIndex{
		client:    client,
		name:      name,
		dimension: dimension,
	}
}

func (x *ChromaIndex) EnsureCollection(ctx context.Context) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	collection, err := x.client.GetOrCreateCollection(ctx, x.name,
		chromago.WithCollectionMetadataCreate(chromago.NewMetadata(
			chromago.NewStringAttribute("hnsw:space", "cosine"),
			chromago.NewIntAttribute("dimension", int64(x.dimension)),
		)),
	)
	if err != nil {
		return fmt.Errorf("failed to get or create collection %s: %w", x.name, err)
	}
	x.collection = collection
	return nil
}

// col reads the collection handle under the mutex; Clear replaces it.
func (x *ChromaIndex) col() chromago.Collection {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.collection
}

func (x *ChromaIndex) Insert(ctx context.Context, chunks []models.EmbeddedChunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	ids := make([]chromago.DocumentID, 0, len(chunks))
	texts := make([]string, 0, len(chunks))
	vectors := make([]embeddings.Embedding, 0, len(chunks))
	metadatas := make([]chromago.DocumentMetadata, 0, len(chunks))

	for _, chunk := range chunks {
		if len(chunk.Vector) != x.dimension {
			return 0, fmt.Errorf("chunk %d of %s has dimension %d, want %d", chunk.ChunkIndex, chunk.Source, len(chunk.Vector), x.dimension)
		}
		ids = append(ids, chromago.DocumentID(uuid.New().String()))
		texts = append(texts, truncateChunkText(chunk.Text))
		vectors = append(vectors, embeddings.NewEmbeddingFromFloat32(chunk.Vector))
		metadatas = append(metadatas, chromago.NewDocumentMetadata(
			chromago.NewStringAttribute("source", chunk.Source),
			chromago.NewIntAttribute("page", int64(chunk.Page)),
			chromago.NewIntAttribute("chunk_index", int64(chunk.ChunkIndex)),
		))
	}

	err := x.col().Add(ctx,
		chromago.WithIDs(ids...),
		chromago.WithTexts(texts...),
		chromago.WithEmbeddings(vectors...),
		chromago.WithMetadatas(metadatas...),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to add chunks to chromadb: %w", err)
	}
	return len(chunks), nil
}

func (x *ChromaIndex) Search(ctx context.Context, vector []float32, topK int) ([]models.SearchHit, error) {
	if topK <= 0 {
		return nil, nil
	}
	result, err := x.col().Query(ctx,
		chromago.WithQueryEmbeddings(embeddings.NewEmbeddingFromFloat32(vector)),
		chromago.WithNResults(topK),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chromadb: %w", err)
	}

	docGroups := result.GetDocumentsGroups()
	metaGroups := result.GetMetadatasGroups()
	distGroups := result.GetDistancesGroups()
	if len(docGroups) == 0 {
		return nil, nil
	}

	docs := docGroups[0]
	hits := make([]models.SearchHit, 0, len(docs))
	for i, doc := range docs {
		hit := models.SearchHit{
			Chunk: models.Chunk{Text: doc.ContentString(), Source: "unknown"},
		}
		if len(metaGroups) > 0 && i < len(metaGroups[0]) {
			applyChunkMetadata(&hit.Chunk, metaGroups[0][i])
		}
		if len(distGroups) > 0 && i < len(distGroups[0]) {
			// Chroma reports cosine distance; flip it so higher means closer.
			hit.Score = 1 - float64(distGroups[0][i])
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

func (x *ChromaIndex) DeleteBySource(ctx context.Context, source string) (int, error) {
	where := chromago.EqString("source", source)

	// Delete reports no count, so count the matching records first.
	existing, err := x.col().Get(ctx, chromago.WithWhereGet(where))
	if err != nil {
		return 0, fmt.Errorf("failed to look up chunks for %s: %w", source, err)
	}
	count := len(existing.GetIDs())
	if count == 0 {
		return 0, nil
	}

	if err := x.col().Delete(ctx, chromago.WithWhereDelete(where)); err != nil {
		return 0, fmt.Errorf("failed to delete chunks for %s: %w", source, err)
	}
	return count, nil
}

func (x *ChromaIndex) Clear(ctx context.Context) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if err := x.client.DeleteCollection(ctx, x.name); err != nil {
		return fmt.Errorf("failed to delete collection %s: %w", x.name, err)
	}
	collection, err := x.client.GetOrCreateCollection(ctx, x.name,
		chromago.WithCollectionMetadataCreate(chromago.NewMetadata(
			chromago.NewStringAttribute("hnsw:space", "cosine"),
			chromago.NewIntAttribute("dimension", int64(x.dimension)),
		)),
	)
	if err != nil {
		return fmt.Errorf("failed to recreate collection %s: %w", x.name, err)
	}
	x.collection = collection
	return nil
}

func (x *ChromaIndex) Stats(ctx context.Context) models.IndexStats {
	count, err := x.col().Count(ctx)
	if err != nil {
		return models.IndexStats{Error: err.Error()}
	}
	return models.IndexStats{RowCount: int(count)}
}

// applyChunkMetadata fills chunk fields from a chroma document metadata via
// a JSON round trip, matching how attributes were written.
func applyChunkMetadata(chunk *models.Chunk, meta chromago.DocumentMetadata) {
	if meta == nil {
		return
	}
	jsonBytes, err := json.Marshal(meta)
	if err != nil {
		return
	}
	var metaMap map[string]interface{}
	if err := json.Unmarshal(jsonBytes, &metaMap); err != nil {
		return
	}
	if source, ok := metaMap["source"].(string); ok && source != "" {
		chunk.Source = source
	}
	if page, ok := metaMap["page"].(float64); ok {
		chunk.Page = int(page)
	}
	if idx, ok := metaMap["chunk_index"].(float64); ok {
		chunk.ChunkIndex = int(idx)
	}
}

func truncateChunkText(text string) string {
	if len(text) <= maxChunkTextBytes {
		return text
	}
	return text[:maxChunkTextBytes]
}

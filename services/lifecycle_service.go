package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/ichakraborty/docquery/models"
)

// ErrFileExists is returned when an upload collides with an already
// ingested file of the same name.
var ErrFileExists = errors.New("file already uploaded")

// Cost-per-unit rates used for the session cost estimate.
const (
	embeddingCostPer1kChunks = 0.00013
	llmCostPer1kTokens       = 0.0004
	tokensPerChunkEstimate   = 500
)

// SessionAnalytics tracks usage counters for the running process. Safe for
// concurrent use. Counters reset when the process restarts or Reset is
// called.
type SessionAnalytics struct {
	mu            sync.Mutex
	totalChunks   int
	totalTokens   int
	totalQueries  int
	estimatedCost float64
}

// NewSessionAnalytics creates zeroed counters.
func NewSessionAnalytics() *SessionAnalytics {
	return &SessionAnalytics{}
}

// RecordIngest adds newly indexed chunks to the totals.
func (a *SessionAnalytics) RecordIngest(chunks int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.totalChunks += chunks
	a.recompute()
}

// RecordQuery bumps the query counter.
func (a *SessionAnalytics) RecordQuery() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.totalQueries++
}

// RecordTokens adds LLM tokens to the totals.
func (a *SessionAnalytics) RecordTokens(tokens int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.totalTokens += tokens
	a.recompute()
}

// SetTotalChunks overwrites the chunk counter with the index's own count,
// used after destructive operations.
func (a *SessionAnalytics) SetTotalChunks(chunks int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.totalChunks = chunks
	a.recompute()
}

// Reset zeroes all counters.
func (a *SessionAnalytics) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.totalChunks = 0
	a.totalTokens = 0
	a.totalQueries = 0
	a.estimatedCost = 0
}

// Snapshot returns a copy of the current counters.
func (a *SessionAnalytics) Snapshot() models.AnalyticsSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return models.AnalyticsSnapshot{
		TotalChunks:     a.totalChunks,
		TotalTokensUsed: a.totalTokens,
		TotalQueries:    a.totalQueries,
		EstimatedCost:   a.estimatedCost,
	}
}

// recompute derives the cost estimate from the counters. Embedding cost
// approximates tokens per chunk; LLM cost is per token. Callers hold the
// lock.
func (a *SessionAnalytics) recompute() {
	embeddingCost := (float64(a.totalChunks) * tokensPerChunkEstimate / 1000) * embeddingCostPer1kChunks
	llmCost := (float64(a.totalTokens) / 1000) * llmCostPer1kTokens
	a.estimatedCost = embeddingCost + llmCost
}

// IngestProgress reports the outcome of one file in a batch upload.
type IngestProgress struct {
	Name        string
	FileIndex   int
	FileCount   int
	ChunksAdded int
	Skipped     bool
	Err         error
}

// UploadSource is one incoming file: its name and a way to open its content.
type UploadSource struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// LifecycleManager owns the uploads directory and keeps it consistent with
// the vector index: every supported file on disk has its chunks indexed,
// and removing a file purges its chunks.
type LifecycleManager struct {
	uploadsDir string
	chunker    *ChunkerService
	embedder   Embedder
	index      VectorIndex
	analytics  *SessionAnalytics
	logger     *zap.Logger
}

// NewLifecycleManager creates the manager and its uploads directory.
func NewLifecycleManager(uploadsDir string, chunker *ChunkerService, embedder Embedder, index VectorIndex, analytics *SessionAnalytics, logger *zap.Logger) (*LifecycleManager, error) {
	abs, err := filepath.Abs(uploadsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve uploads dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create uploads dir: %w", err)
	}
	return &LifecycleManager{
		uploadsDir: abs,
		chunker:    chunker,
		embedder:   embedder,
		index:      index,
		analytics:  analytics,
		logger:     logger,
	}, nil
}

// UploadsDir returns the absolute path of the uploads directory.
func (m *LifecycleManager) UploadsDir() string {
	return m.uploadsDir
}

// FilePath resolves a file name inside the uploads directory. Names that
// would escape the directory are rejected.
func (m *LifecycleManager) FilePath(name string) (string, error) {
	path := filepath.Join(m.uploadsDir, filepath.Base(name))
	if !strings.HasPrefix(path, m.uploadsDir+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid file name: %s", name)
	}
	return path, nil
}

// Ingest saves one uploaded file and indexes its chunks. A file whose name
// is already present is rejected with ErrFileExists. If indexing fails
// after the save, the file is removed again so a re-upload can retry.
func (m *LifecycleManager) Ingest(ctx context.Context, name string, content io.Reader) (int, error) {
	if !IsSupportedFile(name) {
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(name))
	}

	path, err := m.FilePath(name)
	if err != nil {
		return 0, err
	}
	if _, err := os.Stat(path); err == nil {
		return 0, fmt.Errorf("%w: %s", ErrFileExists, name)
	}

	out, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to save %s: %w", name, err)
	}
	if _, err := io.Copy(out, content); err != nil {
		out.Close()
		os.Remove(path)
		return 0, fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(path)
		return 0, fmt.Errorf("failed to write %s: %w", name, err)
	}

	added, err := m.indexFile(ctx, name, path)
	if err != nil {
		// Keep disk and index consistent: a failed ingest leaves no file
		// behind, so re-uploading retries cleanly.
		os.Remove(path)
		return 0, err
	}

	m.analytics.RecordIngest(added)
	m.logger.Info("ingested document",
		zap.String("name", name),
		zap.Int("chunks", added),
	)
	return added, nil
}

// IngestAll processes a batch of uploads. Each file succeeds or fails on
// its own; one failure never aborts the batch. The progress callback fires
// exactly once per file.
func (m *LifecycleManager) IngestAll(ctx context.Context, sources []UploadSource, progress func(IngestProgress)) {
	for i, src := range sources {
		p := IngestProgress{
			Name:      src.Name,
			FileIndex: i,
			FileCount: len(sources),
		}

		reader, err := src.Open()
		if err != nil {
			p.Err = fmt.Errorf("failed to open upload %s: %w", src.Name, err)
		} else {
			added, err := m.Ingest(ctx, src.Name, reader)
			reader.Close()
			switch {
			case errors.Is(err, ErrFileExists):
				p.Skipped = true
			case err != nil:
				p.Err = err
				m.logger.Warn("failed to ingest document",
					zap.String("name", src.Name),
					zap.Error(err),
				)
			default:
				p.ChunksAdded = added
			}
		}

		if progress != nil {
			progress(p)
		}
	}
}

// indexFile runs the extract/chunk/embed/insert pipeline for one file.
func (m *LifecycleManager) indexFile(ctx context.Context, name, path string) (int, error) {
	pages, err := ExtractPages(path)
	if err != nil {
		return 0, fmt.Errorf("failed to extract %s: %w", name, err)
	}

	chunks, err := m.chunker.ChunkPages(name, pages)
	if err != nil {
		return 0, err
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}
	vectors, err := m.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("failed to embed %s: %w", name, err)
	}

	embedded := make([]models.EmbeddedChunk, len(chunks))
	for i, chunk := range chunks {
		embedded[i] = models.EmbeddedChunk{Chunk: chunk, Vector: vectors[i]}
	}
	return m.index.Insert(ctx, embedded)
}

// Remove deletes a document's chunks from the index, then its file, then
// resyncs the chunk counter from the index. Vector deletion comes first so
// a later retry still sees the file.
func (m *LifecycleManager) Remove(ctx context.Context, name string) (int, error) {
	path, err := m.FilePath(name)
	if err != nil {
		return 0, err
	}
	if _, err := os.Stat(path); err != nil {
		return 0, fmt.Errorf("file not found: %s", name)
	}

	deleted, err := m.index.DeleteBySource(ctx, name)
	if err != nil {
		return 0, err
	}
	if err := os.Remove(path); err != nil {
		return deleted, fmt.Errorf("failed to remove %s: %w", name, err)
	}

	m.refreshChunkCount(ctx)
	m.logger.Info("removed document",
		zap.String("name", name),
		zap.Int("chunks_deleted", deleted),
	)
	return deleted, nil
}

// RemoveVectors purges a document's chunks without touching disk. Used when
// the file is already gone, e.g. deleted outside the API.
func (m *LifecycleManager) RemoveVectors(ctx context.Context, name string) (int, error) {
	deleted, err := m.index.DeleteBySource(ctx, name)
	if err != nil {
		return 0, err
	}
	m.refreshChunkCount(ctx)
	return deleted, nil
}

// Reset clears the index, deletes every uploaded file, and zeroes the
// session counters.
func (m *LifecycleManager) Reset(ctx context.Context) error {
	if err := m.index.Clear(ctx); err != nil {
		return err
	}

	entries, err := os.ReadDir(m.uploadsDir)
	if err != nil {
		return fmt.Errorf("failed to read uploads dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(m.uploadsDir, entry.Name())); err != nil {
			return fmt.Errorf("failed to remove %s: %w", entry.Name(), err)
		}
	}

	m.analytics.Reset()
	m.logger.Info("reset knowledge base")
	return nil
}

// ListFiles returns the supported files currently in the uploads directory,
// sorted by name.
func (m *LifecycleManager) ListFiles() ([]models.UploadedFile, error) {
	entries, err := os.ReadDir(m.uploadsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read uploads dir: %w", err)
	}

	files := make([]models.UploadedFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !IsSupportedFile(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, models.UploadedFile{
			Name:      entry.Name(),
			Path:      filepath.Join(m.uploadsDir, entry.Name()),
			Size:      info.Size(),
			Extension: strings.ToLower(filepath.Ext(entry.Name())),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// FirstChunkTexts re-extracts a document and returns the text of its first
// chunks, up to limit. Used to feed document summaries.
func (m *LifecycleManager) FirstChunkTexts(name string, limit int) ([]string, error) {
	path, err := m.FilePath(name)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("file not found: %s", name)
	}

	pages, err := ExtractPages(path)
	if err != nil {
		return nil, fmt.Errorf("failed to extract %s: %w", name, err)
	}
	chunks, err := m.chunker.ChunkPages(name, pages)
	if err != nil {
		return nil, err
	}

	texts := make([]string, 0, limit)
	for _, chunk := range chunks {
		if len(texts) == limit {
			break
		}
		texts = append(texts, chunk.Text)
	}
	return texts, nil
}

// refreshChunkCount resyncs the session chunk counter from the index after
// a destructive operation. Stats never fails, but a reported error leaves
// the counter untouched.
func (m *LifecycleManager) refreshChunkCount(ctx context.Context) {
	stats := m.index.Stats(ctx)
	if stats.Error != "" {
		m.logger.Warn("failed to refresh chunk count", zap.String("error", stats.Error))
		return
	}
	m.analytics.SetTotalChunks(stats.RowCount)
}

package services

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/ichakraborty/docquery/models"
)

// ChunkerService splits extracted document pages into overlapping chunks.
// The splitter is recursive: paragraph breaks first, then line breaks, then
// spaces, then raw characters, until every piece fits the chunk size.
// Adjacent chunks overlap to preserve context across boundaries.
type ChunkerService struct {
	splitter textsplitter.RecursiveCharacter
}

// NewChunkerService creates a chunker with the given size and overlap (in
// characters).
func NewChunkerService(chunkSize, chunkOverlap int) *ChunkerService {
	return &ChunkerService{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
			textsplitter.WithSeparators([]string{"\n\n", "\n", " ", ""}),
		),
	}
}

// ChunkPages splits every page of a source document and tags each chunk with
// the source name, its page number and a sequential chunk index starting at
// 0 for this source.
func (c *ChunkerService) ChunkPages(source string, pages []DocumentPage) ([]models.Chunk, error) {
	var chunks []models.Chunk
	index := 0
	for _, page := range pages {
		pieces, err := c.splitter.SplitText(page.Text)
		if err != nil {
			return nil, fmt.Errorf("failed to split page %d of %s: %w", page.Page, source, err)
		}
		for _, piece := range pieces {
			if strings.TrimSpace(piece) == "" {
				continue
			}
			chunks = append(chunks, models.Chunk{
				Text:       piece,
				Source:     source,
				Page:       page.Page,
				ChunkIndex: index,
			})
			index++
		}
	}
	return chunks, nil
}

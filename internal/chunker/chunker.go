// Package chunker splits extracted document text into overlapping chunks
// sized for embedding and retrieval.
package chunker

import (
	"strings"

	"github.com/tmc/langchaingo/textsplitter"

	"docuchat/internal/models"
)

const (
	defaultChunkSize    = 500
	defaultChunkOverlap = 50
)

// Chunker wraps a recursive character splitter. Consecutive chunks share
// trailing/leading text of the overlap length so retrieval recall holds
// across sentence and paragraph boundaries.
type Chunker struct {
	splitter textsplitter.RecursiveCharacter
}

func New(chunkSize, chunkOverlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = defaultChunkOverlap
	}
	return &Chunker{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
		),
	}
}

// Chunk splits text into ordered chunks. SourcePage is the 1-based chunk
// ordinal; the extractor does not preserve true page numbers. Empty or
// whitespace-only input yields zero chunks.
func (c *Chunker) Chunk(text string) ([]models.Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	parts, err := c.splitter.SplitText(text)
	if err != nil {
		return nil, err
	}

	chunks := make([]models.Chunk, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		chunks = append(chunks, models.Chunk{
			Text:          part,
			SequenceIndex: len(chunks),
			SourcePage:    len(chunks) + 1,
		})
	}
	return chunks, nil
}

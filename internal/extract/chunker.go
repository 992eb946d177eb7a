package extract

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hyperjump/shinsa/internal/models"
)

// Chunker splits policy text into overlapping word-based chunks.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

// NewChunker creates a chunker with the given size and overlap (in words).
func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 1
	}
	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// Chunk splits text into PolicyChunks with overlapping windows. Chunk IDs are
// prefixed with docID.
func (c *Chunker) Chunk(docID, text string) []models.PolicyChunk {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	step := c.chunkSize - c.chunkOverlap
	if step <= 0 {
		step = 1
	}
	var chunks []models.PolicyChunk
	for i := 0; i < len(words); i += step {
		end := i + c.chunkSize
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, models.PolicyChunk{
			ID:    fmt.Sprintf("%s_%s", docID, uuid.New().String()[:8]),
			Index: len(chunks),
			Text:  strings.Join(words[i:end], " "),
		})
		if end >= len(words) {
			break
		}
	}
	return chunks
}

package rag_service

import (
	"fmt"

	"github.com/sawtline/callsight/models"
)

const (
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 50
)

// Chunker splits extracted text into overlapping, bounded-size chunks. The
// window start advances by chunkSize-chunkOverlap each step, so the last
// chunkOverlap tokens of chunk i reappear at the head of chunk i+1.
type Chunker struct {
	tokenizer    Tokenizer
	chunkSize    int
	chunkOverlap int
}

func NewChunker(tokenizer Tokenizer, chunkSize, chunkOverlap int) (*Chunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap must satisfy 0 <= overlap < size, got overlap=%d size=%d", chunkOverlap, chunkSize)
	}
	return &Chunker{
		tokenizer:    tokenizer,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}, nil
}

// Chunk splits one text into chunks numbered from 1. Empty text yields zero
// chunks; text shorter than the chunk size yields exactly one. The final
// partial window is always emitted.
func (c *Chunker) Chunk(text, source string, pageNumber *int) []models.DocumentChunk {
	return c.chunkFrom(text, source, pageNumber, 1)
}

// ChunkPages chunks each page in order, numbering chunks continuously across
// the whole document.
func (c *Chunker) ChunkPages(pages []PageText, source string) []models.DocumentChunk {
	var chunks []models.DocumentChunk
	for _, page := range pages {
		chunks = append(chunks, c.chunkFrom(page.Text, source, page.PageNumber, len(chunks)+1)...)
	}
	return chunks
}

func (c *Chunker) chunkFrom(text, source string, pageNumber *int, firstNumber int) []models.DocumentChunk {
	tokens := c.tokenizer.Split(text)
	if len(tokens) == 0 {
		return nil
	}

	step := c.chunkSize - c.chunkOverlap
	var chunks []models.DocumentChunk
	for start := 0; start < len(tokens); start += step {
		end := start + c.chunkSize
		if end > len(tokens) {
			end = len(tokens)
		}
		chunks = append(chunks, models.DocumentChunk{
			Content:     c.tokenizer.Join(tokens[start:end]),
			Source:      source,
			PageNumber:  pageNumber,
			ChunkNumber: firstNumber + len(chunks),
		})
	}
	return chunks
}

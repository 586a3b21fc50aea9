package chunker

import (
	"fmt"
	"strings"

	"studyrag/internal/domain"
)

// Default chunking parameters, in tokens.
const (
	DefaultSize    = 1000
	DefaultOverlap = 200
)

// TokenChunker splits text into windows of whitespace-delimited tokens.
// Consecutive windows overlap by exactly the configured token count;
// the final window may be shorter.
type TokenChunker struct {
	size    int
	overlap int
}

// NewTokenChunker validates the configuration and returns a chunker.
func NewTokenChunker(size, overlap int) (*TokenChunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size %d: %w", size, domain.ErrInvalidChunkConfig)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("overlap %d for size %d: %w", overlap, size, domain.ErrInvalidChunkConfig)
	}
	return &TokenChunker{size: size, overlap: overlap}, nil
}

// Config returns the chunking parameters.
func (c *TokenChunker) Config() domain.ChunkConfig {
	return domain.ChunkConfig{Size: c.size, Overlap: c.overlap}
}

// Split chunks the text. Same input always yields the same sequence.
// Empty or whitespace-only text yields no chunks.
func (c *TokenChunker) Split(text string) ([]string, error) {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil, nil
	}
	step := c.size - c.overlap
	var chunks []string
	for start := 0; start < len(tokens); start += step {
		end := start + c.size
		if end > len(tokens) {
			end = len(tokens)
		}
		chunks = append(chunks, strings.Join(tokens[start:end], " "))
		if end == len(tokens) {
			break
		}
	}
	return chunks, nil
}

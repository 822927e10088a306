// Package chunker implements deterministic token-based text splitting.
// Extracted document text is divided into overlapping chunks so that
// retrieval granularity stays bounded while adjacent chunks share enough
// context to survive a split mid-thought.
//
// Tokens are whitespace-delimited words. The scheme is intentionally simple:
// chunk boundaries affect retrieval granularity, not correctness, and the
// only hard requirement is that tokenization is stable across runs.
package chunker

import "strings"

const (
	// DefaultChunkSize is the target number of tokens per chunk.
	DefaultChunkSize = 500

	// DefaultChunkOverlap is the number of trailing tokens each chunk shares
	// with the start of the next chunk.
	DefaultChunkOverlap = 50
)

// Splitter divides text into overlapping token-bounded chunks.
// A Splitter is stateless and safe for concurrent use.
type Splitter struct {
	// size is the maximum number of tokens per chunk.
	size int

	// overlap is the number of tokens shared between consecutive chunks.
	overlap int
}

// New constructs a Splitter. Non-positive size falls back to DefaultChunkSize;
// a negative overlap falls back to zero; an overlap >= size is clamped to
// DefaultChunkOverlap so the split always makes forward progress.
func New(size, overlap int) *Splitter {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = DefaultChunkOverlap
		if overlap >= size {
			overlap = size / 10
		}
	}
	return &Splitter{size: size, overlap: overlap}
}

// Split divides text into chunks of at most size tokens where each chunk
// except the first begins with the trailing overlap tokens of its
// predecessor. The final chunk may be shorter than size. Empty or
// whitespace-only input yields no chunks; input shorter than size yields
// exactly one chunk.
func (s *Splitter) Split(text string) []string {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil
	}

	step := s.size - s.overlap
	var chunks []string
	for start := 0; start < len(tokens); start += step {
		end := start + s.size
		if end > len(tokens) {
			end = len(tokens)
		}
		chunks = append(chunks, strings.Join(tokens[start:end], " "))
		if end == len(tokens) {
			break
		}
	}
	return chunks
}

// Package chunker splits extracted text into overlapping, boundary-aware
// segments. It is a pure function over strings; persistence and embedding
// happen elsewhere.
package chunker

import "strings"

const (
	// DefaultChunkSize is roughly 500 tokens worth of characters.
	DefaultChunkSize = 2000
	// DefaultOverlap keeps adjacent chunks sharing context.
	DefaultOverlap = 200

	// charsPerToken is the fixed-ratio token approximation. Callers must
	// treat estimates as a heuristic, not a billing-accurate count.
	charsPerToken = 4
)

// Chunker produces ordered text segments of bounded size.
type Chunker struct {
	chunkSize int
	overlap   int
}

// New returns a Chunker with the given window and overlap sizes.
// Non-positive or inconsistent values fall back to the defaults;
// overlap must stay smaller than the window.
func New(chunkSize, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = DefaultOverlap
		if overlap >= chunkSize {
			overlap = chunkSize / 10
		}
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}
}

// Chunk splits text into overlapping segments. Within each window, if a
// sentence boundary ("period + space") exists past the window midpoint the
// cut happens there instead of at the hard limit. Empty input yields an
// empty slice. Output order is significant: it becomes the chunk indices.
func (c *Chunker) Chunk(text string) []string {
	if text == "" {
		return nil
	}

	var chunks []string
	start := 0

	for start < len(text) {
		end := start + c.chunkSize
		if end > len(text) {
			end = len(text)
		}

		// Prefer a sentence boundary past the midpoint of this window.
		if end < len(text) {
			if cut := strings.LastIndex(text[:end], ". "); cut > start+c.chunkSize/2 {
				end = cut + 1
			}
		}

		if chunk := strings.TrimSpace(text[start:end]); chunk != "" {
			chunks = append(chunks, chunk)
		}

		next := end - c.overlap

		// A sentence cut early in the window can pull end back far
		// enough that stepping by the overlap would move backwards (or
		// below zero). Forward progress wins over overlap in that case.
		if next <= start {
			next = end
		}

		// When the remainder fits in one window, consume it whole and
		// stop; stepping back by the overlap would otherwise loop
		// forever once overlap >= remaining length.
		if next+c.chunkSize >= len(text) {
			if end < len(text) {
				if tail := strings.TrimSpace(text[next:]); tail != "" {
					chunks = append(chunks, tail)
				}
			}
			break
		}
		start = next
	}

	return chunks
}

// EstimateTokenCount approximates tokens as characters divided by a
// fixed ratio.
func EstimateTokenCount(text string) int {
	return len(text) / charsPerToken
}

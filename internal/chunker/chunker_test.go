package chunker

import (
	"strings"
	"testing"
)

func TestChunkEmptyInput(t *testing.T) {
	c := New(DefaultChunkSize, DefaultOverlap)
	if got := c.Chunk(""); len(got) != 0 {
		t.Fatalf("expected no chunks, got %d", len(got))
	}
}

func TestChunkShortInputSingleSegment(t *testing.T) {
	c := New(DefaultChunkSize, DefaultOverlap)
	got := c.Chunk("  a short note about nothing in particular  ")
	if len(got) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(got))
	}
	if got[0] != "a short note about nothing in particular" {
		t.Fatalf("expected trimmed input, got %q", got[0])
	}
}

func TestChunkTenThousandCharsYieldsSixChunks(t *testing.T) {
	// No sentence boundaries, so every cut is at the hard limit.
	text := strings.Repeat("x", 10000)
	c := New(2000, 200)

	got := c.Chunk(text)
	if len(got) != 6 {
		t.Fatalf("expected 6 chunks, got %d", len(got))
	}
	for i, chunk := range got[:5] {
		if len(chunk) != 2000 {
			t.Fatalf("chunk %d: expected 2000 chars, got %d", i, len(chunk))
		}
	}
	// Final chunk is the remainder after the overlap step.
	if len(got[5]) != 1000 {
		t.Fatalf("final chunk: expected 1000 chars, got %d", len(got[5]))
	}
	for _, chunk := range got {
		if est := EstimateTokenCount(chunk); est != len(chunk)/4 {
			t.Fatalf("token estimate %d for %d chars", est, len(chunk))
		}
	}
}

func TestChunkPrefersSentenceBoundaryPastMidpoint(t *testing.T) {
	// A period+space sits at position 1500 of a 3000-char text: past the
	// midpoint of the first 2000-char window, so the cut lands there.
	text := strings.Repeat("a", 1499) + ". " + strings.Repeat("b", 1499)
	c := New(2000, 200)

	got := c.Chunk(text)
	if len(got) < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", len(got))
	}
	if !strings.HasSuffix(got[0], ".") {
		t.Fatalf("expected first chunk to end at sentence boundary, got tail %q", got[0][len(got[0])-10:])
	}
	if len(got[0]) > 2000 {
		t.Fatalf("first chunk exceeds window: %d", len(got[0]))
	}
}

func TestChunkIgnoresBoundaryBeforeMidpoint(t *testing.T) {
	text := strings.Repeat("a", 100) + ". " + strings.Repeat("b", 2500)
	c := New(2000, 200)

	got := c.Chunk(text)
	if len(got[0]) != 2000 {
		t.Fatalf("expected hard cut at 2000, got %d", len(got[0]))
	}
}

func TestChunkOverlapSharedBetweenNeighbors(t *testing.T) {
	text := strings.Repeat("x", 5000)
	c := New(2000, 200)

	got := c.Chunk(text)
	if len(got) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(got))
	}
	// Windows step by size-overlap, so neighbors share overlap chars.
	if len(got[0])+len(got[1]) <= 3800 {
		t.Fatalf("expected overlapping windows, lens %d and %d", len(got[0]), len(got[1]))
	}
}

func TestChunkTerminatesWhenOverlapExceedsRemainder(t *testing.T) {
	// Remainder after the first window is smaller than the overlap; the
	// chunker must consume it and stop rather than loop.
	text := strings.Repeat("x", 2100)
	c := New(2000, 200)

	done := make(chan []string, 1)
	go func() { done <- c.Chunk(text) }()
	got := <-done

	var total int
	for _, chunk := range got {
		total += len(chunk)
	}
	if total < 2100 {
		t.Fatalf("chunks dropped text: covered %d of 2100 chars", total)
	}
}

func TestChunkLargeOverlapKeepsForwardProgress(t *testing.T) {
	// Overlap above half the window combined with a sentence cut just
	// past the midpoint used to step the next window start below zero.
	text := strings.Repeat("a", 1001) + ". " + strings.Repeat("b", 3000)
	c := New(2000, 1500)

	got := c.Chunk(text)
	if len(got) == 0 {
		t.Fatal("expected chunks")
	}
	if !strings.HasSuffix(got[0], ".") {
		t.Errorf("first chunk should end at the sentence boundary, got tail %q", got[0][len(got[0])-5:])
	}
	for i, chunk := range got {
		if len(chunk) > 2000 {
			t.Errorf("chunk %d exceeds window: %d chars", i, len(chunk))
		}
	}
	last := got[len(got)-1]
	if !strings.HasSuffix(last, "b") {
		t.Error("final chunk must reach the end of the text")
	}
	var total int
	for _, chunk := range got {
		total += len(chunk)
	}
	if total < len(text) {
		t.Errorf("chunks dropped text: covered %d of %d chars", total, len(text))
	}
}

func TestChunkMaxLengthInvariant(t *testing.T) {
	text := strings.Repeat("word word word. ", 2000)
	c := New(2000, 200)

	for i, chunk := range c.Chunk(text) {
		if len(chunk) > 2000 {
			t.Fatalf("chunk %d exceeds window: %d chars", i, len(chunk))
		}
	}
}

func TestNewClampsBadSettings(t *testing.T) {
	c := New(0, 5000)
	if c.chunkSize != DefaultChunkSize {
		t.Fatalf("expected default chunk size, got %d", c.chunkSize)
	}
	if c.overlap >= c.chunkSize {
		t.Fatalf("overlap %d must stay below chunk size %d", c.overlap, c.chunkSize)
	}
}

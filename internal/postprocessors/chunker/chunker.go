// Package chunker provides a boundary-seeking text splitter with overlap.
package chunker

import "strings"

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// minBoundaryFraction keeps chunks from collapsing: a boundary is only
// taken if it leaves at least this fraction of the window filled.
const minBoundaryFraction = 4

// Splitter splits text into overlapping chunks, preferring to break at
// paragraph, then sentence, then word boundaries, and falling back to a
// hard cut only when no boundary exists within the window. Every chunk
// is at most the configured size.
type Splitter struct {
	chunkSize int
	overlap   int
}

// Option configures the splitter.
type Option func(*Splitter)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(s *Splitter) {
		if size > 0 {
			s.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between consecutive chunks in characters.
func WithOverlap(overlap int) Option {
	return func(s *Splitter) {
		if overlap >= 0 {
			s.overlap = overlap
		}
	}
}

// New creates a splitter with the given options.
func New(opts ...Option) *Splitter {
	s := &Splitter{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(s)
	}

	// Ensure overlap doesn't exceed chunk size
	if s.overlap >= s.chunkSize {
		s.overlap = s.chunkSize / 4
	}

	return s
}

// ChunkSize returns the configured maximum chunk size.
func (s *Splitter) ChunkSize() int {
	return s.chunkSize
}

// Overlap returns the configured overlap.
func (s *Splitter) Overlap() int {
	return s.overlap
}

// Split divides text into chunks. Empty input yields no chunks.
func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	textLen := len(text)
	if textLen <= s.chunkSize {
		return []string{text}
	}

	estimated := textLen/(s.chunkSize-s.overlap) + 1
	chunks := make([]string, 0, estimated)

	start := 0
	for start < textLen {
		end := start + s.chunkSize
		if end >= textLen {
			chunks = append(chunks, text[start:])
			break
		}

		cut := s.findBoundary(text[start:end])
		chunks = append(chunks, text[start:start+cut])

		next := start + cut - s.overlap
		// Overlap must never stall the walk.
		if next <= start {
			next = start + cut
		}
		start = next
	}

	return chunks
}

// findBoundary returns the cut position within a full-size window,
// seeking the latest paragraph break, then sentence end, then word gap.
// The window end is the hard-cut fallback.
func (s *Splitter) findBoundary(window string) int {
	minCut := len(window) / minBoundaryFraction

	if idx := strings.LastIndex(window, "\n\n"); idx > minCut {
		return idx + len("\n\n")
	}

	sentence := -1
	for _, sep := range []string{". ", "! ", "? ", "\n"} {
		if idx := strings.LastIndex(window, sep); idx >= 0 && idx+len(sep) > sentence {
			sentence = idx + len(sep)
		}
	}
	if sentence > minCut {
		return sentence
	}

	if idx := strings.LastIndexByte(window, ' '); idx > minCut {
		return idx + 1
	}

	return len(window)
}

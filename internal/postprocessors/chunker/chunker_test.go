package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	s := New()
	assert.Equal(t, DefaultChunkSize, s.ChunkSize())
	assert.Equal(t, DefaultChunkOverlap, s.Overlap())
}

func TestNew_Options(t *testing.T) {
	s := New(WithChunkSize(500), WithOverlap(50))
	assert.Equal(t, 500, s.ChunkSize())
	assert.Equal(t, 50, s.Overlap())
}

func TestNew_OverlapClampedBelowChunkSize(t *testing.T) {
	s := New(WithChunkSize(100), WithOverlap(100))
	assert.Equal(t, 25, s.Overlap())
}

func TestNew_IgnoresInvalidOptions(t *testing.T) {
	s := New(WithChunkSize(0), WithOverlap(-1))
	assert.Equal(t, DefaultChunkSize, s.ChunkSize())
	assert.Equal(t, DefaultChunkOverlap, s.Overlap())
}

func TestSplit_EmptyInput(t *testing.T) {
	s := New()
	assert.Nil(t, s.Split(""))
	assert.Nil(t, s.Split("   \n  "))
}

func TestSplit_ShortTextSingleChunk(t *testing.T) {
	s := New()
	text := "A short trial description."
	chunks := s.Split(text)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestSplit_ChunksNeverExceedSize(t *testing.T) {
	s := New(WithChunkSize(100), WithOverlap(20))
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 50)

	chunks := s.Split(text)
	require.NotEmpty(t, chunks)
	for i, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 100, "chunk %d too long", i)
	}
}

func TestSplit_PrefersParagraphBoundary(t *testing.T) {
	s := New(WithChunkSize(100), WithOverlap(0))
	text := strings.Repeat("a", 60) + "\n\n" + strings.Repeat("b", 80)

	chunks := s.Split(text)
	require.GreaterOrEqual(t, len(chunks), 2)
	assert.True(t, strings.HasSuffix(chunks[0], "\n\n"), "first chunk should end at the paragraph break")
}

func TestSplit_PrefersSentenceBoundary(t *testing.T) {
	s := New(WithChunkSize(100), WithOverlap(0))
	text := strings.Repeat("c", 60) + ". " + strings.Repeat("d", 80)

	chunks := s.Split(text)
	require.GreaterOrEqual(t, len(chunks), 2)
	assert.True(t, strings.HasSuffix(chunks[0], ". "), "first chunk should end at the sentence break")
}

func TestSplit_HardCutWithoutBoundary(t *testing.T) {
	s := New(WithChunkSize(100), WithOverlap(0))
	text := strings.Repeat("x", 250)

	chunks := s.Split(text)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 100)
	assert.Len(t, chunks[1], 100)
	assert.Len(t, chunks[2], 50)
}

func TestSplit_OverlapRepeatsContent(t *testing.T) {
	s := New(WithChunkSize(100), WithOverlap(20))
	text := strings.Repeat("y", 300)

	chunks := s.Split(text)
	require.GreaterOrEqual(t, len(chunks), 2)
	// With a hard cut the next window starts overlap characters back.
	tail := chunks[0][len(chunks[0])-20:]
	assert.True(t, strings.HasPrefix(chunks[1], tail))
}

func TestSplit_CoversWholeText(t *testing.T) {
	s := New(WithChunkSize(80), WithOverlap(10))
	text := strings.Repeat("Measure overall survival at 12 months. ", 40)

	chunks := s.Split(text)
	require.NotEmpty(t, chunks)

	assert.True(t, strings.HasPrefix(text, chunks[0]))
	assert.True(t, strings.HasSuffix(text, chunks[len(chunks)-1]))

	total := 0
	for i, chunk := range chunks {
		assert.Contains(t, text, chunk, "chunk %d not from source text", i)
		total += len(chunk)
	}
	// Overlap means the chunks together carry at least the whole text.
	assert.GreaterOrEqual(t, total, len(text))
}

func TestSplit_Deterministic(t *testing.T) {
	s := New(WithChunkSize(120), WithOverlap(30))
	text := strings.Repeat("Participants must be 18 years or older. ", 30)

	first := s.Split(text)
	second := s.Split(text)
	assert.Equal(t, first, second)
}

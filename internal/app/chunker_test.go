package app

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkWordsBoundedWindows(t *testing.T) {
	words := make([]string, 0, 137)
	for i := 0; i < 137; i++ {
		words = append(words, fmt.Sprintf("word%d", i))
	}
	text := strings.Join(words, " ")

	chunks, err := ChunkWords(text, 50, 10)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(strings.Fields(chunk)), 50)
	}

	// Window i starts at i*stride, so consecutive windows overlap by exactly
	// the configured amount and no word is skipped.
	stride := 50 - 10
	for i, chunk := range chunks {
		got := strings.Fields(chunk)
		start := i * stride
		require.Equal(t, words[start], got[0])
	}
	last := strings.Fields(chunks[len(chunks)-1])
	assert.Equal(t, words[len(words)-1], last[len(last)-1])
}

func TestChunkWordsNoOverlapReconstructs(t *testing.T) {
	text := "  mot   hai ba\tbon\nnam sau bay tam  "
	chunks, err := ChunkWords(text, 3, 0)
	require.NoError(t, err)

	assert.Equal(t, strings.Join(strings.Fields(text), " "), strings.Join(chunks, " "))
}

func TestChunkWordsOverlapContinuity(t *testing.T) {
	text := "a b c d e f g h i j"
	chunks, err := ChunkWords(text, 5, 2)
	require.NoError(t, err)

	for i := 1; i < len(chunks); i++ {
		prev := strings.Fields(chunks[i-1])
		cur := strings.Fields(chunks[i])
		carried := prev[len(prev)-2:]
		assert.Equal(t, carried, cur[:2], "chunk %d should repeat the tail of chunk %d", i, i-1)
	}
}

func TestChunkWordsEmptyInput(t *testing.T) {
	chunks, err := ChunkWords("   \n\t  ", 10, 2)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestChunkWordsInvalidOverlap(t *testing.T) {
	_, err := ChunkWords("some text here", 5, 5)
	assert.ErrorIs(t, err, ErrChunkOverlap)

	_, err = ChunkWords("some text here", 5, 9)
	assert.ErrorIs(t, err, ErrChunkOverlap)

	_, err = ChunkWords("some text here", 0, 0)
	assert.ErrorIs(t, err, ErrChunkOverlap)
}

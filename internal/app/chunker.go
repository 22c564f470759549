package app

import (
	"errors"
	"strings"
)

// ErrChunkOverlap is returned when the configured overlap would make the
// window stride non-positive and chunking could never terminate.
var ErrChunkOverlap = errors.New("chunk overlap must be smaller than max tokens")

// ChunkWords splits text on whitespace and emits a sliding window of
// maxTokens words advancing by maxTokens-overlap words per step. This is a
// length approximation, not a tokenizer-accurate split.
func ChunkWords(text string, maxTokens, overlap int) ([]string, error) {
	if maxTokens <= 0 {
		return nil, ErrChunkOverlap
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxTokens {
		return nil, ErrChunkOverlap
	}

	words := strings.Fields(text)
	stride := maxTokens - overlap

	var chunks []string
	for i := 0; i < len(words); i += stride {
		end := i + maxTokens
		if end > len(words) {
			end = len(words)
		}
		chunk := strings.TrimSpace(strings.Join(words[i:end], " "))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
	}
	return chunks, nil
}

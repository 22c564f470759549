package app

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"chatbox/internal/repository"
)

// RetrievalService selects candidate chunks by literal substring match of the
// whole query, ordered by chunk position. Deliberately lexical; no scoring.
type RetrievalService struct {
	chunkRepo     *repository.DocumentChunkRepository
	minTermLength int
	log           *zap.SugaredLogger
}

func NewRetrievalService(chunkRepo *repository.DocumentChunkRepository, minTermLength int, log *zap.SugaredLogger) *RetrievalService {
	if minTermLength < 0 {
		minTermLength = 0
	}
	return &RetrievalService{
		chunkRepo:     chunkRepo,
		minTermLength: minTermLength,
		log:           log,
	}
}

// Retrieve never fails the caller: storage errors and unsearchable queries
// both yield an empty result.
func (s *RetrievalService) Retrieve(ctx context.Context, query string, limit int) []repository.RetrievedChunk {
	query = strings.TrimSpace(query)
	if query == "" || limit <= 0 {
		return nil
	}
	if !s.hasSearchableTerm(query) {
		return nil
	}

	rows, err := s.chunkRepo.SearchByContent(ctx, query, limit)
	if err != nil {
		s.log.Warnw("chunk search failed", "error", err)
		return nil
	}
	return rows
}

func (s *RetrievalService) hasSearchableTerm(query string) bool {
	for _, term := range strings.Fields(strings.ToLower(query)) {
		if utf8.RuneCountInString(term) > s.minTermLength {
			return true
		}
	}
	return false
}

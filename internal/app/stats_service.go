package app

import (
	"context"

	"chatbox/internal/repository"
)

type StatsService struct {
	sessionRepo *repository.SessionRepository
	messageRepo *repository.MessageRepository
	docRepo     *repository.DocumentRepository
	chunkRepo   *repository.DocumentChunkRepository
}

func NewStatsService(
	sessionRepo *repository.SessionRepository,
	messageRepo *repository.MessageRepository,
	docRepo *repository.DocumentRepository,
	chunkRepo *repository.DocumentChunkRepository,
) *StatsService {
	return &StatsService{
		sessionRepo: sessionRepo,
		messageRepo: messageRepo,
		docRepo:     docRepo,
		chunkRepo:   chunkRepo,
	}
}

type Stats struct {
	Sessions  int64 `json:"sessions"`
	Messages  int64 `json:"messages"`
	Documents int64 `json:"documents"`
	Chunks    int64 `json:"chunks"`
}

func (s *StatsService) Collect(ctx context.Context) (*Stats, error) {
	sessions, err := s.sessionRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	messages, err := s.messageRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	documents, err := s.docRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	chunks, err := s.chunkRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{
		Sessions:  sessions,
		Messages:  messages,
		Documents: documents,
		Chunks:    chunks,
	}, nil
}

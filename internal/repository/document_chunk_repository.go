package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"chatbox/internal/model"
)

type DocumentChunkRepository struct {
	db *gorm.DB
}

func NewDocumentChunkRepository(db *gorm.DB) *DocumentChunkRepository {
	return &DocumentChunkRepository{db: db}
}

// RetrievedChunk is the retrieval projection joined with its document.
type RetrievedChunk struct {
	Content     string `json:"content"`
	ChunkIndex  int    `json:"chunk_index"`
	Filename    string `json:"filename"`
	TotalChunks int    `json:"total_chunks"`
}

// SearchByContent matches the whole query string case-insensitively against
// chunk content and returns matches ordered by chunk index.
func (r *DocumentChunkRepository) SearchByContent(ctx context.Context, query string, limit int) ([]RetrievedChunk, error) {
	pattern := "%" + strings.ToLower(query) + "%"

	var rows []RetrievedChunk
	if err := r.db.WithContext(ctx).
		Table("document_chunks AS dc").
		Select(`dc.content, dc.chunk_index, d.original_filename AS filename,
			(SELECT COUNT(*) FROM document_chunks dc2 WHERE dc2.document_id = dc.document_id) AS total_chunks`).
		Joins("JOIN documents d ON d.id = dc.document_id").
		Where("LOWER(dc.content) LIKE ?", pattern).
		Order("dc.chunk_index ASC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("search chunks failed: %w", err)
	}
	return rows, nil
}

func (r *DocumentChunkRepository) CountByDocumentID(ctx context.Context, documentID string) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).
		Model(&model.DocumentChunk{}).
		Where("document_id = ?", documentID).
		Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count chunks by document failed: %w", err)
	}
	return n, nil
}

func (r *DocumentChunkRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.DocumentChunk{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count chunks failed: %w", err)
	}
	return n, nil
}

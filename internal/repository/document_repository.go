package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"chatbox/internal/model"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// CreateWithChunks inserts the document row and all of its chunk rows in one
// transaction; a mid-batch failure leaves no orphaned document.
func (r *DocumentRepository) CreateWithChunks(ctx context.Context, doc *model.Document, chunks []model.DocumentChunk) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(doc).Error; err != nil {
			return err
		}
		if len(chunks) == 0 {
			return nil
		}
		return tx.CreateInBatches(&chunks, 100).Error
	})
	if err != nil {
		return fmt.Errorf("create document with chunks failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*model.Document, error) {
	var doc model.Document
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document failed: %w", err)
	}
	return &doc, nil
}

func (r *DocumentRepository) GetByContentHash(ctx context.Context, hash string) (*model.Document, error) {
	var doc model.Document
	if err := r.db.WithContext(ctx).Where("content_hash = ?", hash).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document by hash failed: %w", err)
	}
	return &doc, nil
}

// ListWithChunkCount returns list projections newest-first with the derived
// per-document chunk count.
func (r *DocumentRepository) ListWithChunkCount(ctx context.Context) ([]model.DocumentInfo, error) {
	var rows []model.DocumentInfo
	if err := r.db.WithContext(ctx).
		Table("documents AS d").
		Select(`d.id, d.original_filename, d.mime_type, d.file_size, d.created_at,
			(SELECT COUNT(*) FROM document_chunks dc WHERE dc.document_id = d.id) AS chunk_count`).
		Order("d.created_at DESC").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("list documents failed: %w", err)
	}
	return rows, nil
}

// Delete removes the document and cascades its chunks in one transaction.
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", id).Delete(&model.DocumentChunk{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.Document{}).Error
	})
	if err != nil {
		return fmt.Errorf("delete document failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Document{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count documents failed: %w", err)
	}
	return n, nil
}

package app

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chatbox/internal/ai"
	"chatbox/internal/model"
	"chatbox/internal/repository"
)

// DashScope and similar APIs often limit batch size.
const embeddingBatchSize = 10

// ChunkEmbedder computes embeddings for chunk texts. Satisfied by ai.Client;
// nil disables embedding at ingest.
type ChunkEmbedder interface {
	EmbedBatch(ctx context.Context, cfg ai.EmbeddingConfig, texts []string) ([][]float32, error)
}

type DocumentService struct {
	docRepo        *repository.DocumentRepository
	chunkRepo      *repository.DocumentChunkRepository
	embedder       ChunkEmbedder
	embCfg         ai.EmbeddingConfig
	chunkMaxTokens int
	chunkOverlap   int
	log            *zap.SugaredLogger
}

func NewDocumentService(
	docRepo *repository.DocumentRepository,
	chunkRepo *repository.DocumentChunkRepository,
	embedder ChunkEmbedder,
	embCfg ai.EmbeddingConfig,
	chunkMaxTokens int,
	chunkOverlap int,
	log *zap.SugaredLogger,
) *DocumentService {
	if chunkMaxTokens <= 0 {
		chunkMaxTokens = 500
	}
	if chunkOverlap < 0 {
		chunkOverlap = 50
	}
	return &DocumentService{
		docRepo:        docRepo,
		chunkRepo:      chunkRepo,
		embedder:       embedder,
		embCfg:         embCfg,
		chunkMaxTokens: chunkMaxTokens,
		chunkOverlap:   chunkOverlap,
		log:            log,
	}
}

type IngestInput struct {
	Text             string
	StoredFilename   string
	OriginalFilename string
	MimeType         string
	FilePath         string
	FileSize         int64
}

type IngestResult struct {
	Document   model.Document `json:"document"`
	ChunkCount int            `json:"chunk_count"`
}

// Ingest hashes, deduplicates and chunks extracted text, then persists the
// document and all chunks atomically. The caller owns cleanup of any staged
// file artifact when an error is returned.
func (s *DocumentService) Ingest(ctx context.Context, input IngestInput) (*IngestResult, error) {
	if strings.TrimSpace(input.Text) == "" {
		return nil, ErrEmptyContent
	}

	hash := contentHash(input.Text)
	existing, err := s.docRepo.GetByContentHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateContent
	}

	chunks, err := ChunkWords(input.Text, s.chunkMaxTokens, s.chunkOverlap)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	doc := &model.Document{
		ID:               uuid.NewString(),
		Filename:         input.StoredFilename,
		OriginalFilename: input.OriginalFilename,
		MimeType:         input.MimeType,
		FilePath:         input.FilePath,
		FileSize:         input.FileSize,
		ContentHash:      hash,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	embeddings := s.embedChunks(ctx, chunks)

	rows := make([]model.DocumentChunk, len(chunks))
	for i, chunk := range chunks {
		rows[i] = model.DocumentChunk{
			ID:          uuid.NewString(),
			DocumentID:  doc.ID,
			ChunkIndex:  i,
			Content:     chunk,
			ContentHash: contentHash(chunk),
			CreatedAt:   now,
		}
		if i < len(embeddings) {
			rows[i].SetEmbedding(embeddings[i])
		}
	}

	if err := s.docRepo.CreateWithChunks(ctx, doc, rows); err != nil {
		return nil, err
	}
	return &IngestResult{Document: *doc, ChunkCount: len(rows)}, nil
}

// Remove deletes the document and its chunks. The backing file is removed
// best-effort; its failure does not roll back the metadata deletion.
func (s *DocumentService) Remove(ctx context.Context, documentID string) error {
	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return err
	}
	if doc == nil {
		return ErrDocumentNotFound
	}
	if err := s.docRepo.Delete(ctx, documentID); err != nil {
		return err
	}
	if doc.FilePath != "" {
		if err := os.Remove(doc.FilePath); err != nil && !os.IsNotExist(err) {
			s.log.Warnw("remove document file failed", "path", doc.FilePath, "error", err)
		}
	}
	return nil
}

func (s *DocumentService) List(ctx context.Context) ([]model.DocumentInfo, error) {
	return s.docRepo.ListWithChunkCount(ctx)
}

func (s *DocumentService) Get(ctx context.Context, documentID string) (*model.DocumentInfo, error) {
	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}
	count, err := s.chunkRepo.CountByDocumentID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return &model.DocumentInfo{
		ID:               doc.ID,
		OriginalFilename: doc.OriginalFilename,
		MimeType:         doc.MimeType,
		FileSize:         doc.FileSize,
		ChunkCount:       int(count),
		CreatedAt:        doc.CreatedAt,
	}, nil
}

// embedChunks is best-effort: ingestion must not fail on an optional
// capability, so embedding errors only log and the chunks go in without
// vectors.
func (s *DocumentService) embedChunks(ctx context.Context, chunks []string) [][]float32 {
	if s.embedder == nil {
		return nil
	}
	var embeddings [][]float32
	for i := 0; i < len(chunks); i += embeddingBatchSize {
		end := i + embeddingBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch, err := s.embedder.EmbedBatch(ctx, s.embCfg, chunks[i:end])
		if err != nil {
			s.log.Warnw("chunk embedding failed", "error", err)
			return nil
		}
		embeddings = append(embeddings, batch...)
	}
	if len(embeddings) != len(chunks) {
		s.log.Warnw("embedding count mismatch", "chunks", len(chunks), "embeddings", len(embeddings))
		return nil
	}
	return embeddings
}

func contentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

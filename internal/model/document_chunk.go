package model

import (
	"encoding/json"
	"time"
)

// DocumentChunk is a bounded slice of a document's text. ChunkIndex is
// zero-based and contiguous per document; the composite unique index enforces
// (document_id, chunk_index) uniqueness at the storage layer. Embedding is a
// JSON array of float32 filled best-effort at ingest and not read by the
// lexical retriever.
type DocumentChunk struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	DocumentID  string    `gorm:"size:36;not null;index;uniqueIndex:uq_document_chunk" json:"document_id"`
	ChunkIndex  int       `gorm:"not null;uniqueIndex:uq_document_chunk" json:"chunk_index"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	ContentHash string    `gorm:"size:64;index" json:"content_hash"`
	Embedding   string    `gorm:"type:text" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// EmbeddingVector returns the parsed embedding slice; nil when absent or on
// parse error.
func (c *DocumentChunk) EmbeddingVector() []float32 {
	if c.Embedding == "" {
		return nil
	}
	var v []float32
	_ = json.Unmarshal([]byte(c.Embedding), &v)
	return v
}

// SetEmbedding stores the embedding as JSON.
func (c *DocumentChunk) SetEmbedding(vec []float32) {
	if len(vec) == 0 {
		c.Embedding = ""
		return
	}
	b, _ := json.Marshal(vec)
	c.Embedding = string(b)
}

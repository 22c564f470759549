package model

import "time"

// Document is a reference document whose extracted text has been chunked for
// retrieval. ContentHash is the sha256 of the extracted text; the unique
// index makes a second upload of identical content fail at the storage layer.
type Document struct {
	ID               string    `gorm:"primaryKey;size:36" json:"id"`
	Filename         string    `gorm:"size:256;not null" json:"filename"`
	OriginalFilename string    `gorm:"size:256;not null" json:"original_filename"`
	MimeType         string    `gorm:"size:128;not null" json:"mime_type"`
	FilePath         string    `gorm:"size:512" json:"-"`
	FileSize         int64     `json:"file_size"`
	ContentHash      string    `gorm:"size:64;uniqueIndex" json:"content_hash"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// DocumentInfo is the list/get projection with the derived chunk count.
type DocumentInfo struct {
	ID               string    `json:"id"`
	OriginalFilename string    `json:"filename"`
	MimeType         string    `json:"mime_type"`
	FileSize         int64     `json:"size"`
	ChunkCount       int       `json:"chunk_count"`
	CreatedAt        time.Time `json:"created_at"`
}

package handler

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"chatbox/internal/app"
	"chatbox/internal/pkg/extract"
	"chatbox/internal/transport/http/response"
)

var allowedUploadTypes = map[string]bool{
	"application/pdf": true,
	"text/plain":      true,
	"text/markdown":   true,
}

type DocumentHandler struct {
	docService *app.DocumentService
	uploadDir  string
	maxSize    int64
	log        *zap.SugaredLogger
}

func NewDocumentHandler(docService *app.DocumentService, uploadDir string, maxSizeMB int, log *zap.SugaredLogger) *DocumentHandler {
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}
	return &DocumentHandler{
		docService: docService,
		uploadDir:  uploadDir,
		maxSize:    int64(maxSizeMB) << 20,
		log:        log,
	}
}

// Upload stages the file, extracts its text and hands it to ingestion. The
// staged file is removed again whenever ingestion rejects the content.
func (h *DocumentHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "no file uploaded")
		return
	}
	if fileHeader.Size > h.maxSize {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "file too large")
		return
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	if !allowedUploadTypes[mimeType] {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "file type not supported; only PDF, TXT and Markdown are allowed")
		return
	}

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "upload staging failed")
		return
	}
	storedName := fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), uuid.NewString()[:8], filepath.Ext(fileHeader.Filename))
	storedPath := filepath.Join(h.uploadDir, storedName)
	if err := c.SaveUploadedFile(fileHeader, storedPath); err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "upload staging failed")
		return
	}

	f, err := os.Open(storedPath)
	if err != nil {
		h.discardStaged(storedPath)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "upload staging failed")
		return
	}
	text, err := extract.Text(f, mimeType)
	_ = f.Close()
	if err != nil {
		h.discardStaged(storedPath)
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "failed to extract text from file")
		return
	}

	result, err := h.docService.Ingest(c.Request.Context(), app.IngestInput{
		Text:             text,
		StoredFilename:   storedName,
		OriginalFilename: fileHeader.Filename,
		MimeType:         mimeType,
		FilePath:         storedPath,
		FileSize:         fileHeader.Size,
	})
	if err != nil {
		h.discardStaged(storedPath)
		switch {
		case errors.Is(err, app.ErrEmptyContent):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "the uploaded file contains no readable text")
		case errors.Is(err, app.ErrDuplicateContent):
			response.Error(c, http.StatusConflict, response.CodeDuplicateContent, "a document with the same content already exists")
		case errors.Is(err, app.ErrChunkOverlap):
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "ingestion misconfigured")
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "upload failed")
		}
		return
	}

	response.OK(c, gin.H{
		"document_id": result.Document.ID,
		"filename":    result.Document.OriginalFilename,
		"chunks":      result.ChunkCount,
	})
}

func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.docService.List(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list documents failed")
		return
	}
	response.OK(c, gin.H{"documents": docs})
}

func (h *DocumentHandler) Get(c *gin.Context) {
	doc, err := h.docService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, app.ErrDocumentNotFound) {
			response.Error(c, http.StatusNotFound, response.CodeNotFound, "document not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "get document failed")
		return
	}
	response.OK(c, doc)
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.docService.Remove(c.Request.Context(), id); err != nil {
		if errors.Is(err, app.ErrDocumentNotFound) {
			response.Error(c, http.StatusNotFound, response.CodeNotFound, "document not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "delete document failed")
		return
	}
	response.OK(c, gin.H{"deleted_document_id": id})
}

func (h *DocumentHandler) discardStaged(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		h.log.Warnw("discard staged upload failed", "path", path, "error", err)
	}
}

package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"tendercortex.app/cortex/common/id"
	"tendercortex.app/cortex/internal/cache"
	"tendercortex.app/cortex/internal/http/dto"
	"tendercortex.app/cortex/internal/retrieval"
)

// IndexHandler serves the ingestion and index-management endpoints. Any
// successful write to the index invalidates the response cache.
type IndexHandler struct {
	retrieval retrieval.Service
	store     cache.Store
}

func NewIndexHandler(svc retrieval.Service, store cache.Store) *IndexHandler {
	return &IndexHandler{retrieval: svc, store: store}
}

// Ingest accepts one PDF as multipart field "file".
func (h *IndexHandler) Ingest(c *gin.Context) {
	ctx := c.Request.Context()

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field 'file' is required"})
		return
	}
	if !strings.EqualFold(filepath.Ext(file.Filename), ".pdf") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only PDF files are supported"})
		return
	}

	path := filepath.Join(os.TempDir(), fmt.Sprintf("cortex-upload-%d.pdf", id.New()))
	if err := c.SaveUploadedFile(file, path); err != nil {
		slog.ErrorContext(ctx, "saving upload failed", "error", err, "filename", file.Filename)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store upload"})
		return
	}
	defer os.Remove(path)

	chunks, err := h.retrieval.IngestDocument(ctx, path, file.Filename)
	if err != nil {
		slog.ErrorContext(ctx, "ingest failed", "error", err, "filename", file.Filename)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to ingest document"})
		return
	}

	h.invalidate(c)
	slog.InfoContext(ctx, "document ingested", "filename", file.Filename, "chunks", chunks)
	c.JSON(http.StatusOK, dto.IngestResponse{
		Status:          "success",
		Filename:        file.Filename,
		ChunksProcessed: chunks,
	})
}

// Clear drops the whole index.
func (h *IndexHandler) Clear(c *gin.Context) {
	ctx := c.Request.Context()

	if err := h.retrieval.ClearIndex(ctx); err != nil {
		slog.ErrorContext(ctx, "index clear failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear index"})
		return
	}

	h.invalidate(c)
	slog.InfoContext(ctx, "index cleared")
	c.JSON(http.StatusOK, dto.StatusResponse{
		Status:  "success",
		Message: "Índice eliminado correctamente",
	})
}

// Stats exposes the retrieval port's stats map.
func (h *IndexHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	stats, err := h.retrieval.Stats(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "stats lookup failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read index stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Documents lists the ingested documents with their chunk counts.
func (h *IndexHandler) Documents(c *gin.Context) {
	ctx := c.Request.Context()

	docs, err := h.retrieval.IndexedDocuments(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "document listing failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list documents"})
		return
	}

	summaries := make([]dto.DocumentSummary, 0, len(docs))
	for _, doc := range docs {
		summaries = append(summaries, dto.DocumentSummary{Name: doc.Name, Chunks: doc.Chunks})
	}
	c.JSON(http.StatusOK, dto.DocumentsResponse{Status: "success", Documents: summaries})
}

func (h *IndexHandler) invalidate(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.store.Clear(ctx); err != nil {
		slog.WarnContext(ctx, "cache invalidation failed", "error", err)
	}
}

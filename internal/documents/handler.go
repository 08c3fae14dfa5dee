package documents

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"insight-backend/internal/shared/server/middleware"
	"insight-backend/internal/shared/server/respond"
)

// Ingestor accepts uploads and retries deferred embeddings. Implemented
// by the ingestion pipeline.
type Ingestor interface {
	Ingest(ctx context.Context, ownerID, filename, contentType string, r io.Reader, size int64) (Document, error)
	EmbedPending(ctx context.Context, documentID string) (int, error)
}

// Handler wires HTTP handlers to the document service and the
// ingestion pipeline.
type Handler struct {
	Svc    *Service
	Ingest Ingestor
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, ingest Ingestor) *Handler {
	return &Handler{Svc: svc, Ingest: ingest}
}

// RegisterRoutes attaches the document routes to an authenticated
// group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents", h.upload)
	rg.GET("/documents", h.list)
	rg.GET("/documents/stats", h.stats)
	rg.GET("/documents/:id", h.get)
	rg.DELETE("/documents/:id", h.delete)
	rg.GET("/documents/:id/chunks", h.chunks)
	rg.GET("/documents/:id/content", h.content)
	rg.GET("/documents/:id/preview", h.preview)
	rg.POST("/documents/:id/embeddings", h.embedPending)
}

func (h *Handler) upload(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file field is required", nil)
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "could not read uploaded file", nil)
		return
	}
	defer f.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	doc, err := h.Ingest.Ingest(c.Request.Context(), userID, fileHeader.Filename, contentType, f, fileHeader.Size)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.JSON(c, http.StatusCreated, doc)
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	items, err := h.Svc.List(c.Request.Context(), userID)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	if items == nil {
		items = []Summary{}
	}
	respond.OK(c, gin.H{"documents": items})
}

func (h *Handler) get(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	doc, err := h.Svc.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, doc)
}

func (h *Handler) delete(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	if err := h.Svc.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		respond.FromError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) chunks(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	chunks, err := h.Svc.Chunks(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respond.FromError(c, err)
		return
	}

	type chunkView struct {
		ID         int64  `json:"id"`
		ChunkIndex int    `json:"chunkIndex"`
		Content    string `json:"content"`
		TokenCount int    `json:"tokenCount"`
		Embedded   bool   `json:"embedded"`
	}
	views := make([]chunkView, 0, len(chunks))
	for _, ch := range chunks {
		views = append(views, chunkView{
			ID:         ch.ID,
			ChunkIndex: ch.ChunkIndex,
			Content:    ch.Content,
			TokenCount: ch.TokenCount,
			Embedded:   ch.Embedded(),
		})
	}
	respond.OK(c, gin.H{"chunks": views})
}

func (h *Handler) content(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	rc, doc, err := h.Svc.Content(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respond.FromError(c, err)
		return
	}
	defer rc.Close()

	headers := map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", doc.Filename),
	}
	c.DataFromReader(http.StatusOK, doc.SizeBytes, doc.ContentType, rc, headers)
}

func (h *Handler) preview(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	maxChars, _ := strconv.Atoi(c.Query("maxChars"))
	text, err := h.Svc.Preview(c.Request.Context(), userID, c.Param("id"), maxChars)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, gin.H{"preview": text})
}

func (h *Handler) embedPending(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	documentID := c.Param("id")

	if _, err := h.Svc.Authorize(c.Request.Context(), userID, documentID); err != nil {
		respond.FromError(c, err)
		return
	}

	embedded, err := h.Ingest.EmbedPending(c.Request.Context(), documentID)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, gin.H{"embeddedChunks": embedded})
}

func (h *Handler) stats(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	st, err := h.Svc.Stats(c.Request.Context(), userID)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, st)
}

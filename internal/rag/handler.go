package rag

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"insight-backend/internal/shared/server/middleware"
	"insight-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the answering service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches the question-answering routes to an
// authenticated group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/ask", h.ask)
	rg.POST("/documents/:id/ask", h.askInDocument)
}

type askRequest struct {
	Question    string `json:"question"`
	ContextSize int    `json:"contextSize"`
}

func (h *Handler) ask(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	answer, err := h.Svc.Ask(c.Request.Context(), userID, req.Question, req.ContextSize)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, answer)
}

func (h *Handler) askInDocument(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	answer, err := h.Svc.AskInDocument(c.Request.Context(), userID, c.Param("id"), req.Question, req.ContextSize)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, answer)
}

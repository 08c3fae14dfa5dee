package search

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"insight-backend/internal/shared/server/middleware"
	"insight-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the search service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches the search routes to an authenticated group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/search", h.search)
	rg.GET("/search/paginated", h.searchPaginated)
	rg.GET("/documents/:id/search", h.searchInDocument)
}

func (h *Handler) search(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	limit, _ := strconv.Atoi(c.Query("limit"))

	hits, err := h.Svc.Search(c.Request.Context(), userID, c.Query("q"), limit)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	if hits == nil {
		hits = []Hit{}
	}
	respond.OK(c, gin.H{"results": hits})
}

func (h *Handler) searchPaginated(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	page, _ := strconv.Atoi(c.Query("page"))
	size, _ := strconv.Atoi(c.Query("size"))

	result, err := h.Svc.SearchPaginated(c.Request.Context(), userID, c.Query("q"), page, size)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, result)
}

func (h *Handler) searchInDocument(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	limit, _ := strconv.Atoi(c.Query("limit"))

	hits, err := h.Svc.SearchInDocument(c.Request.Context(), userID, c.Param("id"), c.Query("q"), limit)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	if hits == nil {
		hits = []Hit{}
	}
	respond.OK(c, gin.H{"results": hits})
}

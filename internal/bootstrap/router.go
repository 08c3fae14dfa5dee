package bootstrap

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"insight-backend/internal/documents"
	"insight-backend/internal/rag"
	"insight-backend/internal/search"
	"insight-backend/internal/shared/server/middleware"
	"insight-backend/internal/users"
)

// Router builds the gin engine with the full middleware chain and all
// routes registered.
func (a *App) Router() *gin.Engine {
	if a.Cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Logging())
	engine.Use(middleware.Recovery())
	engine.Use(middleware.CORS(a.Cfg.CORSAllowOrigin))

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	userHandler := users.NewHandler(a.Users)
	docHandler := documents.NewHandler(a.Documents, a.Ingest)
	searchHandler := search.NewHandler(a.Search)
	ragHandler := rag.NewHandler(a.RAG)

	api := engine.Group("/api/v1")
	userHandler.RegisterPublicRoutes(api)

	authed := api.Group("")
	authed.Use(middleware.Auth(a.Tokens, a.Users))
	userHandler.RegisterRoutes(authed)
	docHandler.RegisterRoutes(authed)
	searchHandler.RegisterRoutes(authed)
	ragHandler.RegisterRoutes(authed)

	return engine
}

// Addr is the listen address derived from configuration.
func (a *App) Addr() string {
	return ":" + a.Cfg.Port
}

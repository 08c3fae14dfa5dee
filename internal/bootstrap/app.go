// Package bootstrap assembles the application: configuration, storage,
// provider clients, services, and the HTTP router.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"insight-backend/internal/chunker"
	"insight-backend/internal/documents"
	"insight-backend/internal/embedding"
	"insight-backend/internal/generation"
	"insight-backend/internal/ingest"
	"insight-backend/internal/rag"
	"insight-backend/internal/search"
	"insight-backend/internal/shared/auth"
	"insight-backend/internal/shared/config"
	"insight-backend/internal/shared/storage/db"
	"insight-backend/internal/shared/storage/object"
	"insight-backend/internal/shared/storage/object/local"
	"insight-backend/internal/shared/storage/object/s3"
	"insight-backend/internal/shared/telemetry"
	"insight-backend/internal/users"
)

// App holds everything a running server needs. DB is nil in dev mode
// without DATABASE_URL; repositories are in-memory then.
type App struct {
	Cfg config.Config
	DB  *sql.DB

	Users     *users.Service
	Documents *documents.Service
	Search    *search.Service
	RAG       *rag.Service
	Ingest    *ingest.Pipeline
	Tokens    *auth.Manager
}

// Build wires the application from configuration. It connects to
// Postgres when DATABASE_URL is set and falls back to in-memory
// repositories otherwise, so the full API runs locally with no
// database.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	store, err := buildObjectStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var (
		database   *sql.DB
		userRepo   users.Repo
		docRepo    documents.Repo
		searchRepo search.Repo
	)
	if cfg.DatabaseURL != "" {
		database, err = db.Connect(ctx, cfg.DatabaseURL, db.DefaultServerOptions())
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		userRepo = &users.PGRepo{DB: database}
		docRepo = &documents.PGRepo{DB: database}
		searchRepo = &search.PGRepo{DB: database}
	} else {
		telemetry.Warn("bootstrap.memory_mode", map[string]any{
			"reason": "DATABASE_URL not set; state is process-local",
		})
		memDocs := documents.NewMemoryRepo()
		userRepo = users.NewMemoryRepo()
		docRepo = memDocs
		searchRepo = &search.MemoryRepo{Docs: memDocs}
	}

	embedder := embedding.NewClient(embedding.Config{
		BaseURL:    cfg.EmbeddingBaseURL,
		APIKey:     cfg.EmbeddingAPIKey,
		Model:      cfg.EmbeddingModel,
		Dimensions: cfg.EmbeddingDimensions,
	})
	generator := generation.NewClient(generation.Config{
		BaseURL: cfg.GenerationBaseURL,
		APIKey:  cfg.GenerationAPIKey,
		Model:   cfg.GenerationModel,
	})

	tokens := auth.NewManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	userSvc := users.NewService(userRepo, tokens)
	docSvc := documents.NewService(docRepo, store)
	searchSvc := search.NewService(searchRepo, docSvc, embedder)
	ragSvc := rag.NewService(searchSvc, generator)
	pipeline := ingest.NewPipeline(docRepo, store, embedder,
		chunker.New(cfg.ChunkSize, cfg.ChunkOverlap), cfg.MaxUploadBytes)

	return &App{
		Cfg:       cfg,
		DB:        database,
		Users:     userSvc,
		Documents: docSvc,
		Search:    searchSvc,
		RAG:       ragSvc,
		Ingest:    pipeline,
		Tokens:    tokens,
	}, nil
}

// Close releases held resources.
func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}

func buildObjectStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		store, err := s3.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
		if err != nil {
			return nil, fmt.Errorf("init s3 store: %w", err)
		}
		return store, nil
	default:
		return local.New(cfg.LocalStoreDir), nil
	}
}

package search

import (
	"context"
	"strings"

	"insight-backend/internal/documents"
	"insight-backend/internal/embedding"
	"insight-backend/internal/shared/apperr"
)

const (
	// DefaultLimit applies when the caller omits a result limit.
	DefaultLimit = 10
	// MaxLimit is the most chunks one search may return.
	MaxLimit = 50
)

// Service embeds the query text and runs owner-scoped similarity
// retrieval.
type Service struct {
	Repo     Repo
	Docs     *documents.Service
	Embedder embedding.Client
}

// NewService constructs a Service.
func NewService(repo Repo, docs *documents.Service, embedder embedding.Client) *Service {
	return &Service{Repo: repo, Docs: docs, Embedder: embedder}
}

// Search returns the caller's most similar chunks across every
// document they own.
func (s *Service) Search(ctx context.Context, userID, query string, limit int) ([]Hit, error) {
	limit, err := normalizeLimit(limit)
	if err != nil {
		return nil, err
	}
	vec, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.Repo.Search(ctx, userID, vec, limit, 0)
}

// SearchPaginated returns one page plus the total candidate count.
// Page numbers start at zero.
func (s *Service) SearchPaginated(ctx context.Context, userID, query string, page, size int) (Page, error) {
	if page < 0 {
		return Page{}, apperr.New(apperr.KindValidation, "page must not be negative")
	}
	size, err := normalizeLimit(size)
	if err != nil {
		return Page{}, err
	}
	vec, err := s.embedQuery(ctx, query)
	if err != nil {
		return Page{}, err
	}

	hits, err := s.Repo.Search(ctx, userID, vec, size, page*size)
	if err != nil {
		return Page{}, err
	}
	total, err := s.Repo.Count(ctx, userID)
	if err != nil {
		return Page{}, err
	}
	if hits == nil {
		hits = []Hit{}
	}
	return Page{Items: hits, TotalCount: total, Page: page, Size: size}, nil
}

// SearchInDocument restricts retrieval to one document the caller
// owns.
func (s *Service) SearchInDocument(ctx context.Context, userID, documentID, query string, limit int) ([]Hit, error) {
	limit, err := normalizeLimit(limit)
	if err != nil {
		return nil, err
	}
	if _, err := s.Docs.Authorize(ctx, userID, documentID); err != nil {
		return nil, err
	}
	vec, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.Repo.SearchInDocument(ctx, userID, documentID, vec, limit)
}

func (s *Service) embedQuery(ctx context.Context, query string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", apperr.New(apperr.KindValidation, "query must not be empty")
	}
	vec, err := s.Embedder.Embed(ctx, query)
	if err != nil {
		return "", err
	}
	return embedding.VectorLiteral(vec), nil
}

func normalizeLimit(limit int) (int, error) {
	if limit == 0 {
		return DefaultLimit, nil
	}
	if limit < 1 || limit > MaxLimit {
		return 0, apperr.Validationf("limit must be between 1 and %d", MaxLimit)
	}
	return limit, nil
}

package search

import (
	"context"
	"testing"
	"time"

	"insight-backend/internal/documents"
	"insight-backend/internal/embedding"
	"insight-backend/internal/shared/apperr"
)

type fakeEmbedder struct {
	vector []float32
	calls  int
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	f.calls++
	return f.vector, nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vector
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int { return len(f.vector) }

func vecLit(v []float32) *string {
	s := embedding.VectorLiteral(v)
	return &s
}

func seedCorpus(t *testing.T, repo *documents.MemoryRepo) {
	t.Helper()
	docs := []struct {
		id      string
		ownerID string
		chunks  []documents.Chunk
	}{
		{"doc-1", "owner-1", []documents.Chunk{
			{ChunkIndex: 0, Content: "close match", Embedding: vecLit([]float32{1, 0})},
			{ChunkIndex: 1, Content: "far match", Embedding: vecLit([]float32{0, 1})},
			{ChunkIndex: 2, Content: "not embedded"},
		}},
		{"doc-2", "owner-1", []documents.Chunk{
			{ChunkIndex: 0, Content: "middling match", Embedding: vecLit([]float32{1, 1})},
		}},
		{"doc-3", "owner-2", []documents.Chunk{
			{ChunkIndex: 0, Content: "foreign perfect match", Embedding: vecLit([]float32{1, 0})},
		}},
	}
	for _, d := range docs {
		doc := documents.Document{
			ID:        d.id,
			OwnerID:   d.ownerID,
			Filename:  d.id + ".txt",
			CreatedAt: time.Now().UTC(),
		}
		if err := repo.CreateWithChunks(context.Background(), doc, d.chunks); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func newTestService(t *testing.T) (*Service, *fakeEmbedder) {
	t.Helper()
	docRepo := documents.NewMemoryRepo()
	seedCorpus(t, docRepo)
	embedder := &fakeEmbedder{vector: []float32{1, 0}}
	docsSvc := documents.NewService(docRepo, nil)
	return NewService(&MemoryRepo{Docs: docRepo}, docsSvc, embedder), embedder
}

func TestSearchOrdersBySimilarityAndScopesToOwner(t *testing.T) {
	svc, _ := newTestService(t)

	hits, err := svc.Search(context.Background(), "owner-1", "anything", 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(hits))
	}
	if hits[0].Content != "close match" {
		t.Errorf("top hit = %q, want the most similar chunk", hits[0].Content)
	}
	if hits[1].Content != "middling match" {
		t.Errorf("second hit = %q", hits[1].Content)
	}
	for _, h := range hits {
		if h.DocumentID == "doc-3" {
			t.Errorf("foreign chunk leaked into results: %+v", h)
		}
		if h.Content == "not embedded" {
			t.Errorf("unembedded chunk leaked into results: %+v", h)
		}
	}
}

func TestSearchLimitValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, limit := range []int{-1, 51, 1000} {
		_, err := svc.Search(ctx, "owner-1", "anything", limit)
		if apperr.KindOf(err) != apperr.KindValidation {
			t.Errorf("limit %d: expected validation error, got %v", limit, err)
		}
	}

	hits, err := svc.Search(ctx, "owner-1", "anything", 1)
	if err != nil {
		t.Fatalf("limit 1: %v", err)
	}
	if len(hits) != 1 {
		t.Errorf("limit 1: got %d hits", len(hits))
	}
}

func TestSearchEmptyQueryRejectedBeforeEmbedding(t *testing.T) {
	svc, embedder := newTestService(t)

	_, err := svc.Search(context.Background(), "owner-1", "   ", 0)
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if embedder.calls != 0 {
		t.Errorf("embedder called %d times for an empty query", embedder.calls)
	}
}

func TestSearchPaginated(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	page0, err := svc.SearchPaginated(ctx, "owner-1", "anything", 0, 2)
	if err != nil {
		t.Fatalf("page 0: %v", err)
	}
	if len(page0.Items) != 2 || page0.TotalCount != 3 {
		t.Errorf("page 0 = %d items, total %d; want 2 items, total 3", len(page0.Items), page0.TotalCount)
	}

	page1, err := svc.SearchPaginated(ctx, "owner-1", "anything", 1, 2)
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	if len(page1.Items) != 1 || page1.TotalCount != 3 {
		t.Errorf("page 1 = %d items, total %d; want 1 item, total 3", len(page1.Items), page1.TotalCount)
	}
	if page0.Items[0].ChunkID == page1.Items[0].ChunkID {
		t.Error("pages overlap")
	}

	_, err = svc.SearchPaginated(ctx, "owner-1", "anything", -1, 2)
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("negative page: expected validation error, got %v", err)
	}
}

func TestSearchInDocumentChecksOwnership(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	hits, err := svc.SearchInDocument(ctx, "owner-1", "doc-1", "anything", 0)
	if err != nil {
		t.Fatalf("search in document: %v", err)
	}
	for _, h := range hits {
		if h.DocumentID != "doc-1" {
			t.Errorf("hit outside requested document: %+v", h)
		}
	}

	_, err = svc.SearchInDocument(ctx, "owner-1", "doc-3", "anything", 0)
	if apperr.KindOf(err) != apperr.KindForbidden {
		t.Errorf("foreign document: expected forbidden, got %v", err)
	}

	_, err = svc.SearchInDocument(ctx, "owner-1", "missing", "anything", 0)
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("missing document: expected not found, got %v", err)
	}
}

package ingest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"insight-backend/internal/chunker"
	"insight-backend/internal/documents"
	"insight-backend/internal/extract"
	"insight-backend/internal/shared/apperr"
)

type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
	saveErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (f *fakeStore) Save(_ context.Context, userID, fileName string, r io.Reader) (string, int64, string, error) {
	if f.saveErr != nil {
		return "", 0, "", f.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", 0, "", err
	}
	key := userID + "/" + fileName
	f.mu.Lock()
	f.objects[key] = data
	f.mu.Unlock()
	return key, int64(len(data)), "application/octet-stream", nil
}

func (f *fakeStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	if !ok {
		return nil, errors.New("no such object")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeStore) stored() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

type fakeEmbedder struct {
	dims  int
	err   error
	calls int
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := f.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		vec := make([]float32, f.dims)
		vec[0] = float32(i + 1)
		out[i] = vec
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int { return f.dims }

type failingRepo struct {
	documents.Repo
	createErr error
}

func (r *failingRepo) CreateWithChunks(ctx context.Context, doc documents.Document, chunks []documents.Chunk) error {
	if r.createErr != nil {
		return r.createErr
	}
	return r.Repo.CreateWithChunks(ctx, doc, chunks)
}

func newPipeline(repo documents.Repo, store *fakeStore, embedder *fakeEmbedder) *Pipeline {
	return NewPipeline(repo, store, embedder, chunker.New(100, 10), 1<<20)
}

func TestIngestPersistsDocumentAndChunks(t *testing.T) {
	repo := documents.NewMemoryRepo()
	store := newFakeStore()
	p := newPipeline(repo, store, &fakeEmbedder{dims: 3})

	text := strings.Repeat("some meaningful sentence. ", 20)
	doc, err := p.Ingest(context.Background(), "owner-1", "notes.txt", extract.MimeText,
		strings.NewReader(text), int64(len(text)))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if doc.OwnerID != "owner-1" || doc.ID == "" {
		t.Errorf("doc = %+v", doc)
	}

	chunks, err := repo.Chunks(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("chunks: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if c.ChunkIndex != i {
			t.Errorf("chunk %d has index %d; indices must be contiguous from zero", i, c.ChunkIndex)
		}
		if !c.Embedded() {
			t.Errorf("chunk %d is not embedded", i)
		}
		if c.TokenCount != len(c.Content)/4 {
			t.Errorf("chunk %d token count = %d for %d chars", i, c.TokenCount, len(c.Content))
		}
	}
	if store.stored() != 1 {
		t.Errorf("expected 1 stored blob, got %d", store.stored())
	}
}

func TestIngestValidationFailsBeforeStorage(t *testing.T) {
	cases := []struct {
		name        string
		filename    string
		contentType string
		content     string
		size        int64
	}{
		{"empty file", "a.txt", extract.MimeText, "", 0},
		{"oversized file", "a.txt", extract.MimeText, "x", 2 << 20},
		{"unsupported type", "a.zip", "application/zip", "data", 4},
		{"traversal filename", "../../etc/passwd", extract.MimeText, "data", 4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newFakeStore()
			p := newPipeline(documents.NewMemoryRepo(), store, &fakeEmbedder{dims: 3})

			_, err := p.Ingest(context.Background(), "owner-1", tc.filename, tc.contentType,
				strings.NewReader(tc.content), tc.size)
			if apperr.KindOf(err) != apperr.KindValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
			if store.stored() != 0 || len(store.deleted) != 0 {
				t.Errorf("store touched on validation failure: %d objects, %d deletes", store.stored(), len(store.deleted))
			}
		})
	}
}

func TestIngestCleansUpBlobWhenParsingFails(t *testing.T) {
	store := newFakeStore()
	p := newPipeline(documents.NewMemoryRepo(), store, &fakeEmbedder{dims: 3})

	garbage := "this is not a pdf"
	_, err := p.Ingest(context.Background(), "owner-1", "broken.pdf", extract.MimePDF,
		strings.NewReader(garbage), int64(len(garbage)))
	if err == nil {
		t.Fatal("expected error")
	}
	if store.stored() != 0 {
		t.Errorf("blob left behind after parse failure")
	}
	if len(store.deleted) != 1 {
		t.Errorf("expected 1 cleanup delete, got %d", len(store.deleted))
	}
}

func TestIngestCleansUpBlobWhenPersistFails(t *testing.T) {
	store := newFakeStore()
	repo := &failingRepo{Repo: documents.NewMemoryRepo(), createErr: errors.New("db down")}
	p := newPipeline(repo, store, &fakeEmbedder{dims: 3})

	text := "short but valid text. with sentences."
	_, err := p.Ingest(context.Background(), "owner-1", "notes.txt", extract.MimeText,
		strings.NewReader(text), int64(len(text)))
	if apperr.KindOf(err) != apperr.KindStorage {
		t.Fatalf("expected storage error, got %v", err)
	}
	if store.stored() != 0 || len(store.deleted) != 1 {
		t.Errorf("blob not cleaned up: %d objects, %d deletes", store.stored(), len(store.deleted))
	}
}

func TestIngestDefersEmbeddingOnProviderOutage(t *testing.T) {
	repo := documents.NewMemoryRepo()
	store := newFakeStore()
	embedder := &fakeEmbedder{dims: 3, err: apperr.New(apperr.KindUpstream, "provider down")}
	p := newPipeline(repo, store, embedder)

	text := "resilient upload. survives the outage."
	doc, err := p.Ingest(context.Background(), "owner-1", "notes.txt", extract.MimeText,
		strings.NewReader(text), int64(len(text)))
	if err != nil {
		t.Fatalf("ingest should succeed despite provider outage: %v", err)
	}
	if store.stored() != 1 {
		t.Errorf("blob should be kept, got %d objects", store.stored())
	}

	pending, err := repo.PendingChunks(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) == 0 {
		t.Fatal("expected unembedded chunks")
	}

	// Provider recovers; the retry fills in exactly the pending chunks.
	embedder.err = nil
	n, err := p.EmbedPending(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("embed pending: %v", err)
	}
	if n != len(pending) {
		t.Errorf("embedded %d chunks, want %d", n, len(pending))
	}

	n, err = p.EmbedPending(context.Background(), doc.ID)
	if err != nil || n != 0 {
		t.Errorf("second retry should be a no-op, got n=%d err=%v", n, err)
	}
}

func TestEmbedPendingNoopWithoutPendingChunks(t *testing.T) {
	repo := documents.NewMemoryRepo()
	store := newFakeStore()
	embedder := &fakeEmbedder{dims: 3}
	p := newPipeline(repo, store, embedder)

	text := "fully embedded at upload time."
	doc, err := p.Ingest(context.Background(), "owner-1", "notes.txt", extract.MimeText,
		strings.NewReader(text), int64(len(text)))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}

	before := embedder.calls
	n, err := p.EmbedPending(context.Background(), doc.ID)
	if err != nil || n != 0 {
		t.Errorf("expected no-op, got n=%d err=%v", n, err)
	}
	if embedder.calls != before {
		t.Error("embedder called with nothing pending")
	}
}

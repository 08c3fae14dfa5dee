package documents

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory Repo for dev mode and tests.
type MemoryRepo struct {
	mu     sync.RWMutex
	docs   map[string]Document
	chunks map[string][]Chunk
	nextID int64
}

// NewMemoryRepo constructs an empty MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		docs:   make(map[string]Document),
		chunks: make(map[string][]Chunk),
	}
}

func (r *MemoryRepo) CreateWithChunks(_ context.Context, doc Document, chunks []Chunk) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.docs[doc.ID] = doc
	stored := make([]Chunk, len(chunks))
	for i, c := range chunks {
		r.nextID++
		c.ID = r.nextID
		c.DocumentID = doc.ID
		stored[i] = c
	}
	r.chunks[doc.ID] = stored
	return nil
}

func (r *MemoryRepo) GetByID(_ context.Context, id string) (Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

func (r *MemoryRepo) ListByOwner(_ context.Context, ownerID string) ([]Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Summary
	for _, doc := range r.docs {
		if doc.OwnerID != ownerID {
			continue
		}
		s := Summary{Document: doc}
		for _, c := range r.chunks[doc.ID] {
			s.ChunkCount++
			if c.Embedded() {
				s.EmbeddedCount++
			}
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[id]; !ok {
		return ErrNotFound
	}
	delete(r.docs, id)
	delete(r.chunks, id)
	return nil
}

func (r *MemoryRepo) Chunks(_ context.Context, documentID string) ([]Chunk, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Chunk, len(r.chunks[documentID]))
	copy(out, r.chunks[documentID])
	return out, nil
}

func (r *MemoryRepo) PendingChunks(_ context.Context, documentID string) ([]Chunk, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Chunk
	for _, c := range r.chunks[documentID] {
		if !c.Embedded() {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *MemoryRepo) UpdateChunkEmbedding(_ context.Context, chunkID int64, embedding string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for docID, chunks := range r.chunks {
		for i := range chunks {
			if chunks[i].ID == chunkID {
				v := embedding
				chunks[i].Embedding = &v
				r.chunks[docID] = chunks
				return nil
			}
		}
	}
	return ErrNotFound
}

func (r *MemoryRepo) Stats(_ context.Context, ownerID string) (Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var st Stats
	for _, doc := range r.docs {
		if doc.OwnerID != ownerID {
			continue
		}
		st.DocumentCount++
		st.TotalBytes += doc.SizeBytes
		for _, c := range r.chunks[doc.ID] {
			st.ChunkCount++
			if c.Embedded() {
				st.EmbeddedChunkCount++
			}
		}
	}
	return st, nil
}

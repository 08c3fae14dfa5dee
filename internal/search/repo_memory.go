package search

import (
	"context"
	"sort"

	"insight-backend/internal/documents"
	"insight-backend/internal/embedding"
)

// MemoryRepo implements Repo over an in-memory document repo for dev
// mode and tests. Similarity is computed in Go instead of in the
// database, with the same ordering contract as PGRepo.
type MemoryRepo struct {
	Docs documents.Repo
}

func (r *MemoryRepo) Search(ctx context.Context, ownerID, queryVector string, limit, offset int) ([]Hit, error) {
	hits, err := r.collect(ctx, ownerID, "", queryVector)
	if err != nil {
		return nil, err
	}
	if offset >= len(hits) {
		return nil, nil
	}
	hits = hits[offset:]
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (r *MemoryRepo) SearchInDocument(ctx context.Context, ownerID, documentID, queryVector string, limit int) ([]Hit, error) {
	hits, err := r.collect(ctx, ownerID, documentID, queryVector)
	if err != nil {
		return nil, err
	}
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (r *MemoryRepo) Count(ctx context.Context, ownerID string) (int, error) {
	docs, err := r.Docs.ListByOwner(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	var n int
	for _, d := range docs {
		n += d.EmbeddedCount
	}
	return n, nil
}

func (r *MemoryRepo) collect(ctx context.Context, ownerID, documentID, queryVector string) ([]Hit, error) {
	queryVec, err := embedding.ParseVectorLiteral(queryVector)
	if err != nil {
		return nil, err
	}

	docs, err := r.Docs.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	var hits []Hit
	for _, d := range docs {
		if documentID != "" && d.ID != documentID {
			continue
		}
		chunks, err := r.Docs.Chunks(ctx, d.ID)
		if err != nil {
			return nil, err
		}
		for _, c := range chunks {
			if !c.Embedded() {
				continue
			}
			vec, err := embedding.ParseVectorLiteral(*c.Embedding)
			if err != nil {
				return nil, err
			}
			hits = append(hits, Hit{
				ChunkID:    c.ID,
				DocumentID: c.DocumentID,
				Filename:   d.Filename,
				ChunkIndex: c.ChunkIndex,
				Content:    c.Content,
				Similarity: embedding.CosineSimilarity(queryVec, vec),
			})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})
	return hits, nil
}

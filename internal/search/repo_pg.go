package search

import (
	"context"
	"database/sql"
)

// PGRepo implements Repo using Postgres with the pgvector extension.
// Embeddings are stored as vector literals in a text column and cast
// on use; <=> is cosine distance, so similarity is 1 - distance.
type PGRepo struct {
	DB *sql.DB
}

// Search returns the owner's most similar chunks across all documents.
func (r *PGRepo) Search(ctx context.Context, ownerID, queryVector string, limit, offset int) ([]Hit, error) {
	const query = `
SELECT dc.id, dc.document_id, d.filename, dc.chunk_index, dc.content,
       1 - (dc.embedding::vector <=> $1::vector) AS similarity
FROM document_chunks dc
JOIN documents d ON d.id = dc.document_id
WHERE d.owner_id = $2 AND dc.embedding IS NOT NULL
ORDER BY dc.embedding::vector <=> $1::vector, dc.id ASC
LIMIT $3 OFFSET $4`

	return r.queryHits(ctx, query, queryVector, ownerID, limit, offset)
}

// SearchInDocument restricts the search to one document. The owner
// filter stays in place; a document ID alone never widens access.
func (r *PGRepo) SearchInDocument(ctx context.Context, ownerID, documentID, queryVector string, limit int) ([]Hit, error) {
	const query = `
SELECT dc.id, dc.document_id, d.filename, dc.chunk_index, dc.content,
       1 - (dc.embedding::vector <=> $1::vector) AS similarity
FROM document_chunks dc
JOIN documents d ON d.id = dc.document_id
WHERE d.owner_id = $2 AND dc.document_id = $3 AND dc.embedding IS NOT NULL
ORDER BY dc.embedding::vector <=> $1::vector, dc.id ASC
LIMIT $4`

	return r.queryHits(ctx, query, queryVector, ownerID, documentID, limit)
}

// Count returns the owner's embedded chunk count, matching the filter
// the search queries use.
func (r *PGRepo) Count(ctx context.Context, ownerID string) (int, error) {
	const query = `
SELECT COUNT(*)
FROM document_chunks dc
JOIN documents d ON d.id = dc.document_id
WHERE d.owner_id = $1 AND dc.embedding IS NOT NULL`

	var n int
	err := r.DB.QueryRowContext(ctx, query, ownerID).Scan(&n)
	return n, err
}

func (r *PGRepo) queryHits(ctx context.Context, query string, args ...any) ([]Hit, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Hit
	for rows.Next() {
		var h Hit
		if err := rows.Scan(&h.ChunkID, &h.DocumentID, &h.Filename, &h.ChunkIndex, &h.Content, &h.Similarity); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

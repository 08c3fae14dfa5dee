package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// CreateWithChunks inserts the document and all chunk rows in one
// transaction. Chunk indices are written as given; the unique
// constraint on (document_id, chunk_index) rejects gaps introduced by
// duplicate indices.
func (r *PGRepo) CreateWithChunks(ctx context.Context, doc Document, chunks []Chunk) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const insertDoc = `
INSERT INTO documents (id, owner_id, filename, content_type, storage_key, size_bytes, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	if _, err := tx.ExecContext(ctx, insertDoc,
		doc.ID, doc.OwnerID, doc.Filename, doc.ContentType, doc.StorageKey, doc.SizeBytes, doc.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert document: %w", err)
	}

	const insertChunk = `
INSERT INTO document_chunks (document_id, chunk_index, content, token_count, embedding)
VALUES ($1, $2, $3, $4, $5)`

	for _, c := range chunks {
		if _, err := tx.ExecContext(ctx, insertChunk,
			doc.ID, c.ChunkIndex, c.Content, c.TokenCount, c.Embedding,
		); err != nil {
			return fmt.Errorf("insert chunk %d: %w", c.ChunkIndex, err)
		}
	}

	return tx.Commit()
}

// GetByID returns the document with the given ID.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Document, error) {
	const query = `
SELECT id, owner_id, filename, content_type, storage_key, size_bytes, created_at
FROM documents
WHERE id = $1`

	var doc Document
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&doc.ID, &doc.OwnerID, &doc.Filename, &doc.ContentType, &doc.StorageKey, &doc.SizeBytes, &doc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

// ListByOwner returns the owner's documents newest first, with chunk
// counts.
func (r *PGRepo) ListByOwner(ctx context.Context, ownerID string) ([]Summary, error) {
	const query = `
SELECT d.id, d.owner_id, d.filename, d.content_type, d.storage_key, d.size_bytes, d.created_at,
       COUNT(c.id) AS chunk_count,
       COUNT(c.embedding) AS embedded_count
FROM documents d
LEFT JOIN document_chunks c ON c.document_id = d.id
WHERE d.owner_id = $1
GROUP BY d.id
ORDER BY d.created_at DESC, d.id`

	rows, err := r.DB.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var s Summary
		if err := rows.Scan(
			&s.ID, &s.OwnerID, &s.Filename, &s.ContentType, &s.StorageKey, &s.SizeBytes, &s.CreatedAt,
			&s.ChunkCount, &s.EmbeddedCount,
		); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Delete removes the document row; chunk rows follow via ON DELETE
// CASCADE.
func (r *PGRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Chunks returns all chunks of the document in chunk order.
func (r *PGRepo) Chunks(ctx context.Context, documentID string) ([]Chunk, error) {
	const query = `
SELECT id, document_id, chunk_index, content, token_count, embedding
FROM document_chunks
WHERE document_id = $1
ORDER BY chunk_index`

	return r.queryChunks(ctx, query, documentID)
}

// PendingChunks returns the document's chunks without an embedding.
func (r *PGRepo) PendingChunks(ctx context.Context, documentID string) ([]Chunk, error) {
	const query = `
SELECT id, document_id, chunk_index, content, token_count, embedding
FROM document_chunks
WHERE document_id = $1 AND embedding IS NULL
ORDER BY chunk_index`

	return r.queryChunks(ctx, query, documentID)
}

func (r *PGRepo) queryChunks(ctx context.Context, query string, args ...any) ([]Chunk, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Chunk
	for rows.Next() {
		var c Chunk
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.ChunkIndex, &c.Content, &c.TokenCount, &c.Embedding); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateChunkEmbedding stores the vector literal for one chunk.
func (r *PGRepo) UpdateChunkEmbedding(ctx context.Context, chunkID int64, embedding string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE document_chunks SET embedding = $1 WHERE id = $2`, embedding, chunkID)
	return err
}

// Stats aggregates the owner's corpus.
func (r *PGRepo) Stats(ctx context.Context, ownerID string) (Stats, error) {
	const query = `
SELECT
  (SELECT COUNT(*) FROM documents WHERE owner_id = $1),
  (SELECT COALESCE(SUM(size_bytes), 0) FROM documents WHERE owner_id = $1),
  (SELECT COUNT(*) FROM document_chunks c JOIN documents d ON d.id = c.document_id WHERE d.owner_id = $1),
  (SELECT COUNT(*) FROM document_chunks c JOIN documents d ON d.id = c.document_id WHERE d.owner_id = $1 AND c.embedding IS NOT NULL)`

	var st Stats
	err := r.DB.QueryRowContext(ctx, query, ownerID).Scan(
		&st.DocumentCount, &st.TotalBytes, &st.ChunkCount, &st.EmbeddedChunkCount,
	)
	return st, err
}

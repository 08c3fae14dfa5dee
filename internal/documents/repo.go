package documents

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a document does not resolve.
var ErrNotFound = errors.New("document not found")

// Repo defines persistence operations for documents and their chunks.
type Repo interface {
	// CreateWithChunks inserts the document and its chunks atomically.
	CreateWithChunks(ctx context.Context, doc Document, chunks []Chunk) error
	GetByID(ctx context.Context, id string) (Document, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Summary, error)
	Delete(ctx context.Context, id string) error
	Chunks(ctx context.Context, documentID string) ([]Chunk, error)
	// PendingChunks returns the document's chunks that have no stored
	// embedding, in chunk order.
	PendingChunks(ctx context.Context, documentID string) ([]Chunk, error)
	UpdateChunkEmbedding(ctx context.Context, chunkID int64, embedding string) error
	Stats(ctx context.Context, ownerID string) (Stats, error)
}

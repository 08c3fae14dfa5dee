package documents

import "time"

// Document is an uploaded file owned by a single user. The raw bytes
// live in the object store under StorageKey; derived chunks live in
// document_chunks.
type Document struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"contentType"`
	StorageKey  string    `json:"-"`
	SizeBytes   int64     `json:"sizeBytes"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Chunk is one contiguous segment of a document's extracted text.
// Embedding is nil until the segment has been embedded; it holds the
// vector literal understood by pgvector.
type Chunk struct {
	ID         int64   `json:"id"`
	DocumentID string  `json:"documentId"`
	ChunkIndex int     `json:"chunkIndex"`
	Content    string  `json:"content"`
	TokenCount int     `json:"tokenCount"`
	Embedding  *string `json:"-"`
}

// Embedded reports whether the chunk has a stored vector.
func (c Chunk) Embedded() bool {
	return c.Embedding != nil
}

// Summary is a document plus per-document chunk counts, used by list
// views.
type Summary struct {
	Document
	ChunkCount    int `json:"chunkCount"`
	EmbeddedCount int `json:"embeddedChunkCount"`
}

// Stats aggregates an owner's corpus.
type Stats struct {
	DocumentCount      int   `json:"documentCount"`
	ChunkCount         int   `json:"chunkCount"`
	EmbeddedChunkCount int   `json:"embeddedChunkCount"`
	TotalBytes         int64 `json:"totalBytes"`
}

package search

import "context"

// Repo runs similarity queries over stored chunk embeddings. Every
// query carries the owner ID; isolation lives in the query itself,
// never in post-filtering.
type Repo interface {
	Search(ctx context.Context, ownerID, queryVector string, limit, offset int) ([]Hit, error)
	SearchInDocument(ctx context.Context, ownerID, documentID, queryVector string, limit int) ([]Hit, error)
	// Count returns how many embedded chunks the owner has, the
	// candidate set every search draws from.
	Count(ctx context.Context, ownerID string) (int, error)
}

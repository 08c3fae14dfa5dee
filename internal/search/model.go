package search

// Hit is one retrieved chunk with its similarity to the query.
// Similarity is cosine similarity in [-1, 1]; hits are ordered most
// similar first, ties broken by ascending chunk ID so pagination is
// stable.
type Hit struct {
	ChunkID    int64   `json:"chunkId"`
	DocumentID string  `json:"documentId"`
	Filename   string  `json:"filename"`
	ChunkIndex int     `json:"chunkIndex"`
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
}

// Page is one page of search results. TotalCount counts every
// embedded chunk the owner could match, not just this page.
type Page struct {
	Items      []Hit `json:"items"`
	TotalCount int   `json:"totalCount"`
	Page       int   `json:"page"`
	Size       int   `json:"size"`
}

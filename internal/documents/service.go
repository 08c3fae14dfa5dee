package documents

import (
	"context"
	"errors"
	"io"
	"strings"

	"insight-backend/internal/shared/apperr"
	"insight-backend/internal/shared/storage/object"
	"insight-backend/internal/shared/telemetry"
)

const (
	defaultPreviewChars = 500
	maxPreviewChars     = 5000
)

// Service mediates every read and delete of a document on behalf of a
// user. Existence is checked before ownership, so a caller probing a
// foreign document ID learns it exists but nothing more.
type Service struct {
	Repo  Repo
	Store object.ObjectStore
}

// NewService constructs a Service.
func NewService(repo Repo, store object.ObjectStore) *Service {
	return &Service{Repo: repo, Store: store}
}

// Authorize resolves the document and verifies the caller owns it.
func (s *Service) Authorize(ctx context.Context, userID, documentID string) (Document, error) {
	doc, err := s.Repo.GetByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Document{}, apperr.New(apperr.KindNotFound, "document not found")
		}
		return Document{}, err
	}
	if doc.OwnerID != userID {
		return Document{}, apperr.New(apperr.KindForbidden, "access denied")
	}
	return doc, nil
}

// List returns the caller's documents with chunk counts.
func (s *Service) List(ctx context.Context, userID string) ([]Summary, error) {
	return s.Repo.ListByOwner(ctx, userID)
}

// Get returns one document after the ownership check.
func (s *Service) Get(ctx context.Context, userID, documentID string) (Document, error) {
	return s.Authorize(ctx, userID, documentID)
}

// Delete removes the document row (chunks cascade) and then the stored
// blob. A blob that fails to delete is logged and left for later
// cleanup; the metadata delete has already committed.
func (s *Service) Delete(ctx context.Context, userID, documentID string) error {
	doc, err := s.Authorize(ctx, userID, documentID)
	if err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, documentID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.New(apperr.KindNotFound, "document not found")
		}
		return err
	}
	// The metadata delete has committed; finish the blob delete even if
	// the request context is already cancelled.
	if err := s.Store.Delete(context.WithoutCancel(ctx), doc.StorageKey); err != nil {
		telemetry.Warn("document.blob_delete_failed", map[string]any{
			"document_id": documentID,
			"storage_key": doc.StorageKey,
			"error":       err.Error(),
		})
	}
	return nil
}

// Chunks returns the document's chunks in chunk order.
func (s *Service) Chunks(ctx context.Context, userID, documentID string) ([]Chunk, error) {
	if _, err := s.Authorize(ctx, userID, documentID); err != nil {
		return nil, err
	}
	return s.Repo.Chunks(ctx, documentID)
}

// Content opens the original uploaded bytes for download.
func (s *Service) Content(ctx context.Context, userID, documentID string) (io.ReadCloser, Document, error) {
	doc, err := s.Authorize(ctx, userID, documentID)
	if err != nil {
		return nil, Document{}, err
	}
	rc, err := s.Store.Open(ctx, doc.StorageKey)
	if err != nil {
		return nil, Document{}, apperr.Wrap(apperr.KindStorage, "open stored document", err)
	}
	return rc, doc, nil
}

// Preview returns the first maxChars characters of the extracted text,
// assembled from the stored chunks. Overlap between adjacent chunks is
// not deduplicated; the preview is a window, not a reconstruction.
func (s *Service) Preview(ctx context.Context, userID, documentID string, maxChars int) (string, error) {
	if maxChars <= 0 {
		maxChars = defaultPreviewChars
	}
	if maxChars > maxPreviewChars {
		maxChars = maxPreviewChars
	}

	chunks, err := s.Chunks(ctx, userID, documentID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, c := range chunks {
		if b.Len() >= maxChars {
			break
		}
		b.WriteString(c.Content)
	}
	preview := b.String()
	if len(preview) > maxChars {
		preview = preview[:maxChars]
	}
	return preview, nil
}

// Stats aggregates the caller's corpus.
func (s *Service) Stats(ctx context.Context, userID string) (Stats, error) {
	return s.Repo.Stats(ctx, userID)
}

// Package ingest turns an uploaded file into a stored document with
// chunked, embedded text. The pipeline runs synchronously: when Ingest
// returns, the document is either fully persisted or fully absent.
package ingest

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"insight-backend/internal/chunker"
	"insight-backend/internal/documents"
	"insight-backend/internal/embedding"
	"insight-backend/internal/extract"
	"insight-backend/internal/shared/apperr"
	"insight-backend/internal/shared/storage/object"
	"insight-backend/internal/shared/telemetry"
	"insight-backend/internal/shared/util"
)

// Pipeline stages, in order. Validation failures before Storing leave
// nothing behind; failures after Storing trigger blob cleanup.
const (
	StageValidating = "validating"
	StageStoring    = "storing"
	StageParsing    = "parsing"
	StageChunking   = "chunking"
	StageEmbedding  = "embedding"
	StagePersisting = "persisting"
	StageComplete   = "complete"
)

// Pipeline wires the ingestion stages together.
type Pipeline struct {
	Repo           documents.Repo
	Store          object.ObjectStore
	Embedder       embedding.Client
	Chunker        *chunker.Chunker
	MaxUploadBytes int64
}

// NewPipeline constructs a Pipeline.
func NewPipeline(repo documents.Repo, store object.ObjectStore, embedder embedding.Client, ch *chunker.Chunker, maxUploadBytes int64) *Pipeline {
	return &Pipeline{
		Repo:           repo,
		Store:          store,
		Embedder:       embedder,
		Chunker:        ch,
		MaxUploadBytes: maxUploadBytes,
	}
}

// Ingest validates, stores, parses, chunks, embeds, and persists one
// upload. If the embedding provider is down the document is still
// persisted with its chunks unembedded; EmbedPending picks them up
// later. Any other failure after the blob is stored removes the blob
// before returning.
func (p *Pipeline) Ingest(ctx context.Context, ownerID, filename, contentType string, r io.Reader, size int64) (documents.Document, error) {
	filename, err := util.SanitizeFileName(filename)
	if err != nil {
		return documents.Document{}, apperr.New(apperr.KindValidation, "a valid filename is required")
	}
	if size <= 0 {
		return documents.Document{}, apperr.New(apperr.KindValidation, "uploaded file is empty")
	}
	if p.MaxUploadBytes > 0 && size > p.MaxUploadBytes {
		return documents.Document{}, apperr.Validationf("file exceeds the %d byte upload limit", p.MaxUploadBytes)
	}

	var reader io.Reader = r
	if p.MaxUploadBytes > 0 {
		reader = io.LimitReader(r, p.MaxUploadBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return documents.Document{}, apperr.Wrap(apperr.KindStorage, "read upload", err)
	}
	if p.MaxUploadBytes > 0 && int64(len(data)) > p.MaxUploadBytes {
		return documents.Document{}, apperr.Validationf("file exceeds the %d byte upload limit", p.MaxUploadBytes)
	}

	if strings.TrimSpace(contentType) == "" {
		contentType = http.DetectContentType(data)
	}
	if !extract.Supported(contentType) {
		return documents.Document{}, apperr.Validationf("unsupported content type %q", contentType)
	}

	storageKey, storedBytes, _, err := p.Store.Save(ctx, ownerID, filename, bytes.NewReader(data))
	if err != nil {
		telemetry.Warn("ingest.failed", map[string]any{
			"stage":    StageStoring,
			"owner_id": ownerID,
			"error":    err.Error(),
		})
		return documents.Document{}, apperr.Wrap(apperr.KindStorage, "store upload", err)
	}

	doc, stage, err := p.processStored(ctx, ownerID, filename, contentType, storageKey, storedBytes, data)
	if err != nil {
		telemetry.Warn("ingest.failed", map[string]any{
			"stage":       stage,
			"owner_id":    ownerID,
			"storage_key": storageKey,
			"error":       err.Error(),
		})
		p.cleanupBlob(ctx, storageKey)
		return documents.Document{}, err
	}
	return doc, nil
}

func (p *Pipeline) processStored(ctx context.Context, ownerID, filename, contentType, storageKey string, sizeBytes int64, data []byte) (documents.Document, string, error) {
	text, err := extract.Text(ctx, data, contentType)
	if err != nil {
		return documents.Document{}, StageParsing, apperr.Wrap(apperr.KindValidation, "extract text", err)
	}
	if strings.TrimSpace(text) == "" {
		return documents.Document{}, StageParsing, apperr.New(apperr.KindValidation, "document contains no extractable text")
	}

	segments := p.Chunker.Chunk(text)
	if len(segments) == 0 {
		return documents.Document{}, StageChunking, apperr.New(apperr.KindValidation, "document contains no extractable text")
	}

	doc := documents.Document{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Filename:    filename,
		ContentType: contentType,
		StorageKey:  storageKey,
		SizeBytes:   sizeBytes,
		CreatedAt:   time.Now().UTC(),
	}

	chunks := make([]documents.Chunk, len(segments))
	for i, seg := range segments {
		chunks[i] = documents.Chunk{
			DocumentID: doc.ID,
			ChunkIndex: i,
			Content:    seg,
			TokenCount: chunker.EstimateTokenCount(seg),
		}
	}

	vectors, err := p.Embedder.EmbedBatch(ctx, segments)
	switch {
	case err == nil:
		for i := range chunks {
			lit := embedding.VectorLiteral(vectors[i])
			chunks[i].Embedding = &lit
		}
	case apperr.KindOf(err) == apperr.KindUpstream:
		// Provider outage is not fatal to the upload. Chunks land
		// unembedded and a later EmbedPending fills them in.
		telemetry.Warn("ingest.embedding_deferred", map[string]any{
			"document_id": doc.ID,
			"chunks":      len(chunks),
			"error":       err.Error(),
		})
	default:
		return documents.Document{}, StageEmbedding, err
	}

	if err := p.Repo.CreateWithChunks(ctx, doc, chunks); err != nil {
		return documents.Document{}, StagePersisting, apperr.Wrap(apperr.KindStorage, "persist document", err)
	}

	telemetry.Info("ingest.complete", map[string]any{
		"document_id": doc.ID,
		"owner_id":    ownerID,
		"chunks":      len(chunks),
		"size_bytes":  sizeBytes,
	})
	return doc, StageComplete, nil
}

// EmbedPending embeds the document's unembedded chunks and reports how
// many were filled in. Already-embedded chunks are never touched, so
// repeated calls converge.
func (p *Pipeline) EmbedPending(ctx context.Context, documentID string) (int, error) {
	pending, err := p.Repo.PendingChunks(ctx, documentID)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	texts := make([]string, len(pending))
	for i, c := range pending {
		texts[i] = c.Content
	}
	vectors, err := p.Embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, err
	}

	var done int
	for i, c := range pending {
		if err := p.Repo.UpdateChunkEmbedding(ctx, c.ID, embedding.VectorLiteral(vectors[i])); err != nil {
			return done, apperr.Wrap(apperr.KindStorage, "store embedding", err)
		}
		done++
	}
	return done, nil
}

// cleanupBlob removes a stored blob after a downstream failure. It runs
// even when the request context is already cancelled; a failed cleanup
// is logged, not returned, so the caller's error stays the reported one.
func (p *Pipeline) cleanupBlob(ctx context.Context, storageKey string) {
	ctx = context.WithoutCancel(ctx)
	if err := p.Store.Delete(ctx, storageKey); err != nil {
		telemetry.Warn("ingest.blob_cleanup_failed", map[string]any{
			"storage_key": storageKey,
			"error":       err.Error(),
		})
	}
}

// Package embedding turns text into fixed-dimension vectors via an
// OpenAI-compatible embeddings endpoint, and formats vectors for the
// pgvector column type.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"insight-backend/internal/shared/apperr"
)

// Client generates embeddings for one or many texts.
type Client interface {
	// Embed returns the vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch returns one vector per input, in input order. A provider
	// response that is out of order, partial, or dimension-mismatched is
	// an upstream error, never silently accepted.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	// Dimensions reports the fixed vector dimensionality of this deployment.
	Dimensions() int
}

// Config carries provider connection settings.
type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	Dimensions int
}

type httpClient struct {
	cfg    Config
	client *http.Client
}

// NewClient builds a Client against an OpenAI-compatible API.
func NewClient(cfg Config) Client {
	return &httpClient{
		cfg:    cfg,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (c *httpClient) Dimensions() int { return c.cfg.Dimensions }

func (c *httpClient) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (c *httpClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	reqBody := embeddingRequest{
		Model:      c.cfg.Model,
		Input:      texts,
		Dimensions: c.cfg.Dimensions,
	}
	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/embeddings", bytes.NewReader(reqBytes))
	if err != nil {
		return nil, fmt.Errorf("create embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstream, "embedding provider unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperr.New(apperr.KindUpstream, fmt.Sprintf("embedding provider returned %s", resp.Status))
	}

	var parsed embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, apperr.Wrap(apperr.KindUpstream, "malformed embedding response", err)
	}

	if len(parsed.Data) != len(texts) {
		return nil, apperr.New(apperr.KindUpstream,
			fmt.Sprintf("embedding provider returned %d vectors for %d inputs", len(parsed.Data), len(texts)))
	}

	vectors := make([][]float32, len(texts))
	for i, item := range parsed.Data {
		if item.Index != i {
			return nil, apperr.New(apperr.KindUpstream,
				fmt.Sprintf("embedding provider returned out-of-order result at position %d (index %d)", i, item.Index))
		}
		if c.cfg.Dimensions > 0 && len(item.Embedding) != c.cfg.Dimensions {
			return nil, apperr.New(apperr.KindUpstream,
				fmt.Sprintf("embedding dimension %d does not match configured %d", len(item.Embedding), c.cfg.Dimensions))
		}
		if len(item.Embedding) == 0 {
			return nil, apperr.New(apperr.KindUpstream, "embedding provider returned an empty vector")
		}
		vectors[i] = item.Embedding
	}
	return vectors, nil
}

// VectorLiteral renders a vector as a bracketed, comma-separated,
// fixed-precision literal matching pgvector's input syntax.
func VectorLiteral(vector []float32) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, v := range vector {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(float64(v), 'f', 6, 32))
	}
	sb.WriteByte(']')
	return sb.String()
}

// Package generation calls an OpenAI-compatible chat completions endpoint.
// One question means one synchronous call; retries belong to the caller.
package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"insight-backend/internal/shared/apperr"
)

// Client produces a completion for a rendered prompt.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Config carries provider connection settings.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
}

type httpClient struct {
	cfg    Config
	client *http.Client
}

// NewClient builds a Client against an OpenAI-compatible API.
func NewClient(cfg Config) Client {
	return &httpClient{
		cfg:    cfg,
		client: &http.Client{Timeout: 120 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *httpClient) Complete(ctx context.Context, prompt string) (string, error) {
	reqBody := chatRequest{
		Model:    c.cfg.Model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	}
	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(reqBytes))
	if err != nil {
		return "", fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", apperr.Wrap(apperr.KindUpstream, "generation provider unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apperr.New(apperr.KindUpstream, fmt.Sprintf("generation provider returned %s", resp.Status))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", apperr.Wrap(apperr.KindUpstream, "malformed generation response", err)
	}
	if len(parsed.Choices) == 0 {
		return "", apperr.New(apperr.KindUpstream, "generation provider returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

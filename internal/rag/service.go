// Package rag assembles retrieved chunks into a grounded prompt and
// asks the generation provider to answer from that context alone.
package rag

import (
	"context"
	"fmt"
	"strings"

	"insight-backend/internal/generation"
	"insight-backend/internal/search"
	"insight-backend/internal/shared/apperr"
)

const (
	// DefaultContextSize is how many chunks feed the prompt when the
	// caller does not say.
	DefaultContextSize = 5
	// MaxContextSize bounds the prompt size.
	MaxContextSize = 10

	// NoContextAnswer is returned verbatim when retrieval finds
	// nothing; the generation provider is not called in that case.
	NoContextAnswer = "I couldn't find any relevant information to answer your question."
)

const promptTemplate = `You are a helpful AI assistant that answers questions based on the provided context. Use ONLY the information from the context below to answer the question. If the context does not contain enough information to answer the question, say so clearly.

Context:
%s
Question: %s

Answer:`

// Answer is a generated response plus the chunks that grounded it.
type Answer struct {
	Question string       `json:"question"`
	Answer   string       `json:"answer"`
	Sources  []search.Hit `json:"contextChunksUsed"`
}

// Service is the retrieval-augmented answering pipeline: embed the
// question, retrieve the caller's most similar chunks, and generate an
// answer constrained to that context.
type Service struct {
	Search    *search.Service
	Generator generation.Client
}

// NewService constructs a Service.
func NewService(searchSvc *search.Service, generator generation.Client) *Service {
	return &Service{Search: searchSvc, Generator: generator}
}

// Ask answers a question over every document the caller owns.
func (s *Service) Ask(ctx context.Context, userID, question string, contextSize int) (Answer, error) {
	contextSize, err := normalizeContextSize(contextSize)
	if err != nil {
		return Answer{}, err
	}
	hits, err := s.Search.Search(ctx, userID, question, contextSize)
	if err != nil {
		return Answer{}, err
	}
	return s.generate(ctx, question, hits)
}

// AskInDocument answers a question over a single document the caller
// owns.
func (s *Service) AskInDocument(ctx context.Context, userID, documentID, question string, contextSize int) (Answer, error) {
	contextSize, err := normalizeContextSize(contextSize)
	if err != nil {
		return Answer{}, err
	}
	hits, err := s.Search.SearchInDocument(ctx, userID, documentID, question, contextSize)
	if err != nil {
		return Answer{}, err
	}
	return s.generate(ctx, question, hits)
}

func (s *Service) generate(ctx context.Context, question string, hits []search.Hit) (Answer, error) {
	if len(hits) == 0 {
		return Answer{Question: question, Answer: NoContextAnswer, Sources: []search.Hit{}}, nil
	}

	prompt := fmt.Sprintf(promptTemplate, buildContext(hits), question)
	text, err := s.Generator.Complete(ctx, prompt)
	if err != nil {
		return Answer{}, err
	}
	return Answer{Question: question, Answer: text, Sources: hits}, nil
}

// buildContext concatenates the retrieved chunks in rank order, each
// labeled with its source document.
func buildContext(hits []search.Hit) string {
	var b strings.Builder
	for _, h := range hits {
		fmt.Fprintf(&b, "Document: %s\nContent: %s\n\n", h.Filename, h.Content)
	}
	return b.String()
}

func normalizeContextSize(size int) (int, error) {
	if size == 0 {
		return DefaultContextSize, nil
	}
	if size < 1 || size > MaxContextSize {
		return 0, apperr.Validationf("contextSize must be between 1 and %d", MaxContextSize)
	}
	return size, nil
}

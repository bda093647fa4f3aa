package rag_service_test

import (
	"context"
	"strings"

	"github.com/pgvector/pgvector-go"

	"github.com/sawtline/callsight/services/llm_service"
	"github.com/sawtline/callsight/services/rag_service"
)

// stubEmbedder returns hand-built 3-dimensional vectors keyed by text so
// similarity outcomes are fully controlled by each test.
type stubEmbedder struct {
	vectors map[string][]float32
	failOn  string
}

func (e *stubEmbedder) Dimension() int { return 3 }

func (e *stubEmbedder) Embed(ctx context.Context, text string) (pgvector.Vector, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return pgvector.Vector{}, err
	}
	return vectors[0], nil
}

func (e *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([]pgvector.Vector, error) {
	result := make([]pgvector.Vector, len(texts))
	for i, text := range texts {
		if e.failOn != "" && text == e.failOn {
			return nil, &rag_service.EmbeddingProviderError{Message: "stub failure"}
		}
		if v, ok := e.vectors[text]; ok {
			result[i] = pgvector.NewVector(v)
		} else {
			result[i] = pgvector.NewVector([]float32{0.5, 0.5, 0.5})
		}
	}
	return result, nil
}

// echoLLM replies with the user message it received, so answer assertions
// can check what context reached the generation model.
type echoLLM struct {
	lastMessages []llm_service.Message
	err          error
}

func (l *echoLLM) Chat(ctx context.Context, messages []llm_service.Message) (string, error) {
	l.lastMessages = messages
	if l.err != nil {
		return "", l.err
	}
	for _, m := range messages {
		if m.Role == "user" {
			return m.Content, nil
		}
	}
	return "", nil
}

func userMessage(messages []llm_service.Message) string {
	for _, m := range messages {
		if m.Role == "user" {
			return m.Content
		}
	}
	return ""
}

func contextBlockOf(userMsg string) string {
	body := strings.TrimPrefix(userMsg, "Context:\n")
	if idx := strings.LastIndex(body, "\n\nQuestion: "); idx >= 0 {
		body = body[:idx]
	}
	return body
}

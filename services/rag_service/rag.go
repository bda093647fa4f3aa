package rag_service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sawtline/callsight/models"
	"github.com/sawtline/callsight/services/llm_service"
)

const (
	DefaultMatchThreshold = 0.1
	DefaultMaxChunks      = 5
)

// The model is the single source of "I don't know" phrasing; even with zero
// retrieved chunks the question goes to generation with an empty context.
const answerSystemPrompt = "You are a helpful assistant. Use the provided context to answer the user's question. If you cannot find the answer in the context, say so."

// Service answers free-text questions grounded in the stored document corpus.
type Service struct {
	store          ChunkStore
	llm            llm_service.LLMService
	logger         *slog.Logger
	matchThreshold float64
}

func NewService(store ChunkStore, llm llm_service.LLMService, matchThreshold float64, logger *slog.Logger) *Service {
	if matchThreshold <= 0 {
		matchThreshold = DefaultMatchThreshold
	}
	return &Service{
		store:          store,
		llm:            llm,
		logger:         logger,
		matchThreshold: matchThreshold,
	}
}

// Answer retrieves up to maxChunks similar chunks, builds a grounded prompt
// and returns the model's answer together with the retrieved sources in the
// order they were presented to the model. All-or-nothing: any failure
// surfaces as an AnsweringError and no partial result is returned.
func (s *Service) Answer(ctx context.Context, question string, maxChunks int) (*models.RAGAnswer, error) {
	if maxChunks <= 0 {
		return nil, &InvalidQueryError{Reason: "max_chunks must be positive"}
	}
	if strings.TrimSpace(question) == "" {
		return nil, &InvalidQueryError{Reason: "question cannot be empty"}
	}

	chunks, err := s.store.SearchSimilarChunks(ctx, question, s.matchThreshold, maxChunks)
	if err != nil {
		if _, ok := err.(*InvalidQueryError); ok {
			return nil, err
		}
		return nil, &AnsweringError{Step: "retrieval", Err: err}
	}

	contextBlock := buildContext(chunks)

	messages := []llm_service.Message{
		{Role: "system", Content: answerSystemPrompt},
		{Role: "user", Content: fmt.Sprintf("Context:\n%s\n\nQuestion: %s", contextBlock, question)},
	}

	answer, err := s.llm.Chat(ctx, messages)
	if err != nil {
		return nil, &AnsweringError{Step: "generation", Err: err}
	}

	s.logger.Debug("Answered question",
		slog.Int("retrieved_chunks", len(chunks)),
		slog.Int("answer_length", len(answer)))

	return &models.RAGAnswer{
		Answer:  answer,
		Sources: chunks,
	}, nil
}

func buildContext(chunks []models.RetrievedChunk) string {
	parts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		page := "N/A"
		if chunk.PageNumber != nil {
			page = fmt.Sprintf("%d", *chunk.PageNumber)
		}
		parts = append(parts, fmt.Sprintf("Source: %s, Page: %s\n%s", chunk.Source, page, chunk.Content))
	}
	return strings.Join(parts, "\n\n")
}

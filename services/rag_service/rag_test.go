package rag_service_test

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sawtline/callsight/services/rag_service"
)

func newTestService(t *testing.T, llm *echoLLM) (*rag_service.Service, *stubEmbedder, rag_service.ChunkStore) {
	t.Helper()
	embedder := newTestEmbedder()
	store := rag_service.NewMemoryStore(embedder)
	svc := rag_service.NewService(store, llm, 0.1, slog.Default())
	return svc, embedder, store
}

func TestAnswerReturnsGroundedAnswerWithSources(t *testing.T) {
	llm := &echoLLM{}
	svc, embedder, store := newTestService(t, llm)
	storeTestDocument(t, store, embedder, "Refund Policy", refundChunk, unrelatedChunk)

	answer, err := svc.Answer(context.Background(), "What is the refund window?", 1)
	require.NoError(t, err)

	require.Len(t, answer.Sources, 1)
	require.Equal(t, refundChunk, answer.Sources[0].Content)
	require.Equal(t, "Refund Policy", answer.Sources[0].Source)
	require.Greater(t, answer.Sources[0].Similarity, 0.1)

	// The echoing stub returns the full user message; the retrieved chunk
	// must have made it into the context block verbatim.
	require.Contains(t, answer.Answer, "5 business days")
	require.Contains(t, answer.Answer, "Source: Refund Policy")
}

func TestAnswerContextOrderMatchesSources(t *testing.T) {
	llm := &echoLLM{}
	embedder := &stubEmbedder{
		vectors: map[string][]float32{
			"alpha": {1, 0, 0},
			"beta":  {0.8, 0.2, 0},
			"q":     {1, 0, 0},
		},
	}
	store := rag_service.NewMemoryStore(embedder)
	storeTestDocument(t, store, embedder, "doc", "beta", "alpha")
	svc := rag_service.NewService(store, llm, 0.1, slog.Default())

	answer, err := svc.Answer(context.Background(), "q", 5)
	require.NoError(t, err)
	require.Len(t, answer.Sources, 2)
	require.Equal(t, "alpha", answer.Sources[0].Content)
	require.Equal(t, "beta", answer.Sources[1].Content)

	contextBlock := contextBlockOf(userMessage(llm.lastMessages))
	require.Less(t, strings.Index(contextBlock, "alpha"), strings.Index(contextBlock, "beta"),
		"citation order must match presentation order")
}

func TestAnswerWithNoMatchesStillCallsGeneration(t *testing.T) {
	llm := &echoLLM{}
	svc, _, _ := newTestService(t, llm)

	answer, err := svc.Answer(context.Background(), "something entirely off-topic", 3)
	require.NoError(t, err)
	require.Empty(t, answer.Sources)
	require.NotEmpty(t, llm.lastMessages, "generation must run even with an empty context block")
	require.Contains(t, userMessage(llm.lastMessages), "Question: something entirely off-topic")
}

func TestAnswerRejectsNonPositiveMaxChunks(t *testing.T) {
	llm := &echoLLM{}
	svc, _, _ := newTestService(t, llm)

	for _, maxChunks := range []int{0, -1} {
		_, err := svc.Answer(context.Background(), "What is the refund window?", maxChunks)
		var invalid *rag_service.InvalidQueryError
		require.ErrorAs(t, err, &invalid)
		require.Empty(t, llm.lastMessages, "no provider call may happen on invalid input")
	}
}

func TestAnswerRejectsEmptyQuestion(t *testing.T) {
	llm := &echoLLM{}
	svc, _, _ := newTestService(t, llm)

	_, err := svc.Answer(context.Background(), "   ", 5)
	var invalid *rag_service.InvalidQueryError
	require.ErrorAs(t, err, &invalid)
}

func TestAnswerWrapsGenerationFailure(t *testing.T) {
	llm := &echoLLM{err: errors.New("provider down")}
	svc, embedder, store := newTestService(t, llm)
	storeTestDocument(t, store, embedder, "Refund Policy", refundChunk)

	answer, err := svc.Answer(context.Background(), "What is the refund window?", 1)
	require.Nil(t, answer, "no partial result on failure")

	var answeringErr *rag_service.AnsweringError
	require.ErrorAs(t, err, &answeringErr)
	require.Equal(t, "generation", answeringErr.Step)
	require.ErrorContains(t, err, "provider down")
}

func TestAnswerWrapsRetrievalFailure(t *testing.T) {
	llm := &echoLLM{}
	embedder := newTestEmbedder()
	embedder.failOn = "What is the refund window?"
	store := rag_service.NewMemoryStore(embedder)
	svc := rag_service.NewService(store, llm, 0.1, slog.Default())

	answer, err := svc.Answer(context.Background(), "What is the refund window?", 1)
	require.Nil(t, answer)

	var answeringErr *rag_service.AnsweringError
	require.ErrorAs(t, err, &answeringErr)
	require.Equal(t, "retrieval", answeringErr.Step)

	var providerErr *rag_service.EmbeddingProviderError
	require.ErrorAs(t, err, &providerErr)
	require.Empty(t, llm.lastMessages, "generation must not run when retrieval fails")
}

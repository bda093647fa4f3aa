package rag_service_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sawtline/callsight/services/rag_service"
)

func embeddingFor(index int) []float32 {
	v := make([]float32, rag_service.EmbeddingDimension)
	v[index%rag_service.EmbeddingDimension] = 1
	return v
}

func TestOpenAIEmbedderBatchPreservesOrder(t *testing.T) {
	var gotRequest struct {
		Input []string `json:"input"`
		Model string   `json:"model"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/embeddings", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotRequest))

		// Return results out of order; the client must reorder by index.
		type datum struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}
		data := make([]datum, 0, len(gotRequest.Input))
		for i := len(gotRequest.Input) - 1; i >= 0; i-- {
			data = append(data, datum{Embedding: embeddingFor(i), Index: i})
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"data": data})
	}))
	defer server.Close()

	embedder := rag_service.NewOpenAIEmbedder("test-key", server.URL, "text-embedding-3-small", slog.Default())

	texts := []string{"first", "second", "third"}
	vectors, err := embedder.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	require.Equal(t, []string{"first", "second", "third"}, gotRequest.Input)
	require.Equal(t, "text-embedding-3-small", gotRequest.Model)

	for i, vector := range vectors {
		require.Len(t, vector.Slice(), rag_service.EmbeddingDimension)
		require.Equal(t, float32(1), vector.Slice()[i])
	}
}

func TestOpenAIEmbedderEmptyBatchSkipsProvider(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for an empty batch")
	}))
	defer server.Close()

	embedder := rag_service.NewOpenAIEmbedder("test-key", server.URL, "text-embedding-3-small", slog.Default())
	vectors, err := embedder.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, vectors)
}

func TestOpenAIEmbedderProviderFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error": {"message": "rate limited"}}`)
	}))
	defer server.Close()

	embedder := rag_service.NewOpenAIEmbedder("test-key", server.URL, "text-embedding-3-small", slog.Default())
	_, err := embedder.EmbedBatch(context.Background(), []string{"text"})

	var providerErr *rag_service.EmbeddingProviderError
	require.ErrorAs(t, err, &providerErr)
	require.Equal(t, http.StatusTooManyRequests, providerErr.StatusCode)
}

func TestOpenAIEmbedderRejectsCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"embedding": embeddingFor(0), "index": 0},
			},
		})
	}))
	defer server.Close()

	embedder := rag_service.NewOpenAIEmbedder("test-key", server.URL, "text-embedding-3-small", slog.Default())
	_, err := embedder.EmbedBatch(context.Background(), []string{"a", "b"})

	var providerErr *rag_service.EmbeddingProviderError
	require.ErrorAs(t, err, &providerErr)
}

func TestOpenAIEmbedderRejectsWrongDimension(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"embedding": []float32{1, 2, 3}, "index": 0},
			},
		})
	}))
	defer server.Close()

	embedder := rag_service.NewOpenAIEmbedder("test-key", server.URL, "text-embedding-3-small", slog.Default())
	_, err := embedder.EmbedBatch(context.Background(), []string{"a"})

	var providerErr *rag_service.EmbeddingProviderError
	require.ErrorAs(t, err, &providerErr)
}

func TestOpenAIEmbedderMissingKey(t *testing.T) {
	embedder := rag_service.NewOpenAIEmbedder("", "http://unused", "text-embedding-3-small", slog.Default())
	_, err := embedder.Embed(context.Background(), "text")

	var providerErr *rag_service.EmbeddingProviderError
	require.ErrorAs(t, err, &providerErr)
}

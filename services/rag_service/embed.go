package rag_service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/pgvector/pgvector-go"
)

// EmbeddingDimension is the output dimension of text-embedding-3-small. The
// chunk table's vector column is sized to match; mixing dimensions inside one
// store is refused at ingestion and at query time.
const EmbeddingDimension = 1536

// Providers enforce a token cap per input; anything past this many runes
// cannot fit regardless of tokenizer, so it is cut before the request.
const maxEmbeddingInputRunes = 30000

// Embedder maps text to fixed-dimension dense vectors. EmbedBatch preserves
// input order one-to-one.
type Embedder interface {
	Embed(ctx context.Context, text string) (pgvector.Vector, error)
	EmbedBatch(ctx context.Context, texts []string) ([]pgvector.Vector, error)
	Dimension() int
}

type OpenAIEmbedder struct {
	httpClient *http.Client
	logger     *slog.Logger
	apiKey     string
	apiBase    string
	model      string
	dimension  int
}

func NewOpenAIEmbedder(apiKey, apiBase, model string, logger *slog.Logger) *OpenAIEmbedder {
	return &OpenAIEmbedder{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger,
		apiKey:     apiKey,
		apiBase:    apiBase,
		model:      model,
		dimension:  EmbeddingDimension,
	}
}

func (e *OpenAIEmbedder) Dimension() int { return e.dimension }

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) (pgvector.Vector, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return pgvector.Vector{}, err
	}
	return vectors[0], nil
}

func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([]pgvector.Vector, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	if e.apiKey == "" {
		return nil, &EmbeddingProviderError{Message: "OPENAI_API_KEY not set"}
	}

	input := make([]string, len(texts))
	for i, text := range texts {
		input[i] = capRunes(text, maxEmbeddingInputRunes)
	}

	requestBody, err := json.Marshal(embeddingRequest{Input: input, Model: e.model})
	if err != nil {
		return nil, &EmbeddingProviderError{Message: "failed to marshal embedding request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, "POST", e.apiBase+"/embeddings", bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, &EmbeddingProviderError{Message: "failed to create HTTP request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, &EmbeddingProviderError{Message: "failed to send HTTP request", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		e.logger.Error("Embedding provider returned error",
			slog.Int("status_code", resp.StatusCode),
			slog.String("body", string(body)))
		return nil, &EmbeddingProviderError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	var embeddingResp embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&embeddingResp); err != nil {
		return nil, &EmbeddingProviderError{Message: "failed to decode embedding response", Err: err}
	}

	if len(embeddingResp.Data) != len(texts) {
		return nil, &EmbeddingProviderError{
			Message: "embedding count does not match input count",
		}
	}

	// The provider documents index-tagged results; sort to guarantee the
	// one-to-one input order.
	sort.Slice(embeddingResp.Data, func(i, j int) bool {
		return embeddingResp.Data[i].Index < embeddingResp.Data[j].Index
	})

	vectors := make([]pgvector.Vector, len(embeddingResp.Data))
	for i, d := range embeddingResp.Data {
		if len(d.Embedding) != e.dimension {
			return nil, &EmbeddingProviderError{
				Message: "embedding dimension mismatch",
			}
		}
		vectors[i] = pgvector.NewVector(d.Embedding)
	}

	return vectors, nil
}

func capRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

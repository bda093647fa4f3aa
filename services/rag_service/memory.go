package rag_service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/pgvector/pgvector-go"

	"github.com/sawtline/callsight/models"
)

// MemoryStore is a brute-force in-process ChunkStore. It carries the same
// contract as PostgresStore, including the deterministic result ordering, and
// backs the server when no database is configured as well as the test suites.
type MemoryStore struct {
	mu       sync.RWMutex
	embedder Embedder
	nextID   int64
	entries  []memoryChunk
	docs     map[int64]string
	docOrder map[int64]int
}

type memoryChunk struct {
	documentID int64
	chunk      models.DocumentChunk
	vector     []float32
}

func NewMemoryStore(embedder Embedder) *MemoryStore {
	return &MemoryStore{
		embedder: embedder,
		nextID:   1,
		docs:     make(map[int64]string),
		docOrder: make(map[int64]int),
	}
}

func (s *MemoryStore) StoreDocument(ctx context.Context, chunks []models.DocumentChunk, embeddings []pgvector.Vector, meta models.DocumentMetadata) (int64, error) {
	if err := validateChunkBatch(chunks, embeddings, s.embedder.Dimension()); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	documentID := s.nextID
	s.nextID++
	s.docs[documentID] = meta.Title
	s.docOrder[documentID] = len(s.docOrder)

	for i, chunk := range chunks {
		s.entries = append(s.entries, memoryChunk{
			documentID: documentID,
			chunk:      chunk,
			vector:     embeddings[i].Slice(),
		})
	}

	return documentID, nil
}

func (s *MemoryStore) SearchSimilarChunks(ctx context.Context, query string, matchThreshold float64, matchCount int) ([]models.RetrievedChunk, error) {
	if err := validateSearch(query, matchCount); err != nil {
		return nil, err
	}

	queryEmbedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	queryVector := queryEmbedding.Slice()
	if len(queryVector) != s.embedder.Dimension() {
		return nil, &StorageError{Op: "search_similar_chunks", Err: fmt.Errorf("query embedding dimension %d does not match store dimension %d", len(queryVector), s.embedder.Dimension())}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		entry      memoryChunk
		similarity float64
	}

	matches := make([]scored, 0, len(s.entries))
	for _, entry := range s.entries {
		similarity := cosineSimilarity(queryVector, entry.vector)
		if similarity >= matchThreshold {
			matches = append(matches, scored{entry: entry, similarity: similarity})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].similarity != matches[j].similarity {
			return matches[i].similarity > matches[j].similarity
		}
		if matches[i].entry.chunk.ChunkNumber != matches[j].entry.chunk.ChunkNumber {
			return matches[i].entry.chunk.ChunkNumber < matches[j].entry.chunk.ChunkNumber
		}
		return s.docOrder[matches[i].entry.documentID] < s.docOrder[matches[j].entry.documentID]
	})

	if matchCount < len(matches) {
		matches = matches[:matchCount]
	}

	results := make([]models.RetrievedChunk, 0, len(matches))
	for _, m := range matches {
		results = append(results, models.RetrievedChunk{
			Content:    m.entry.chunk.Content,
			Source:     s.docs[m.entry.documentID],
			PageNumber: m.entry.chunk.PageNumber,
			Similarity: m.similarity,
		})
	}

	return results, nil
}

func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

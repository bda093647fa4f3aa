package rag_service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/sawtline/callsight/models"
)

// Chunks are inserted in small batches purely to keep request payloads
// bounded; batching never changes what ends up stored.
const chunkInsertBatchSize = 5

// ChunkStore persists documents with their chunk embeddings and answers
// nearest-neighbor queries over them.
type ChunkStore interface {
	// StoreDocument inserts the document row and all chunk rows atomically
	// from the caller's point of view. An empty chunk list still creates the
	// document row. Requires len(chunks) == len(embeddings) and a uniform
	// embedding dimension.
	StoreDocument(ctx context.Context, chunks []models.DocumentChunk, embeddings []pgvector.Vector, meta models.DocumentMetadata) (int64, error)

	// SearchSimilarChunks embeds the query, ranks stored chunks by cosine
	// similarity and returns those at or above matchThreshold, best first.
	// Ties break on smaller chunk number, then earlier document insertion.
	// An empty result is not an error; matchCount <= 0 is.
	SearchSimilarChunks(ctx context.Context, query string, matchThreshold float64, matchCount int) ([]models.RetrievedChunk, error)
}

// PostgresStore keeps documents and chunk vectors in Postgres with pgvector.
// Similarity is cosine: 1 - (embedding <=> query), matching the
// vector_cosine_ops index the index manager maintains.
type PostgresStore struct {
	db       *pgxpool.Pool
	embedder Embedder
	logger   *slog.Logger
}

func NewPostgresStore(db *pgxpool.Pool, embedder Embedder, logger *slog.Logger) *PostgresStore {
	return &PostgresStore{
		db:       db,
		embedder: embedder,
		logger:   logger,
	}
}

func (s *PostgresStore) StoreDocument(ctx context.Context, chunks []models.DocumentChunk, embeddings []pgvector.Vector, meta models.DocumentMetadata) (int64, error) {
	if err := validateChunkBatch(chunks, embeddings, s.embedder.Dimension()); err != nil {
		return 0, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, &StorageError{Op: "store_document", Err: err}
	}
	defer tx.Rollback(ctx)

	updatedAt := meta.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	var documentID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO documents (title, file_type, total_pages, file_size, source_url, category, summary, ai_suggestion, helpful_rating, use_count, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		meta.Title, meta.FileType, meta.TotalPages, meta.FileSize, meta.SourceURL,
		meta.Category, nullIfEmpty(meta.Summary), nullIfEmpty(meta.AISuggestion),
		meta.HelpfulRating, meta.UseCount, updatedAt.UTC(),
	).Scan(&documentID)
	if err != nil {
		return 0, &StorageError{Op: "store_document", Err: fmt.Errorf("failed to insert document row: %w", err)}
	}

	for start := 0; start < len(chunks); start += chunkInsertBatchSize {
		end := start + chunkInsertBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		batch := &pgx.Batch{}
		for i := start; i < end; i++ {
			batch.Queue(`
				INSERT INTO document_chunks (document_id, content, embedding, page_number, chunk_number)
				VALUES ($1, $2, $3, $4, $5)`,
				documentID, chunks[i].Content, embeddings[i], chunks[i].PageNumber, chunks[i].ChunkNumber)
		}

		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return 0, &StorageError{Op: "store_document", Err: fmt.Errorf("failed to insert chunk batch: %w", err)}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, &StorageError{Op: "store_document", Err: err}
	}

	s.logger.Info("Stored document",
		slog.Int64("document_id", documentID),
		slog.String("title", meta.Title),
		slog.Int("chunk_count", len(chunks)))

	return documentID, nil
}

func (s *PostgresStore) SearchSimilarChunks(ctx context.Context, query string, matchThreshold float64, matchCount int) ([]models.RetrievedChunk, error) {
	if err := validateSearch(query, matchCount); err != nil {
		return nil, err
	}

	queryEmbedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(queryEmbedding.Slice()) != s.embedder.Dimension() {
		return nil, &StorageError{Op: "search_similar_chunks", Err: fmt.Errorf("query embedding dimension %d does not match store dimension %d", len(queryEmbedding.Slice()), s.embedder.Dimension())}
	}

	rows, err := s.db.Query(ctx, `
		WITH scored_chunks AS (
			SELECT
				dc.content,
				d.title AS source,
				dc.page_number,
				dc.chunk_number,
				dc.document_id,
				1 - (dc.embedding <=> $1) AS similarity
			FROM document_chunks dc
			JOIN documents d ON d.id = dc.document_id
		)
		SELECT content, source, page_number, similarity
		FROM scored_chunks
		WHERE similarity >= $2
		ORDER BY similarity DESC, chunk_number ASC, document_id ASC
		LIMIT $3`,
		queryEmbedding, matchThreshold, matchCount)
	if err != nil {
		return nil, &StorageError{Op: "search_similar_chunks", Err: err}
	}
	defer rows.Close()

	results := make([]models.RetrievedChunk, 0, matchCount)
	for rows.Next() {
		var chunk models.RetrievedChunk
		if err := rows.Scan(&chunk.Content, &chunk.Source, &chunk.PageNumber, &chunk.Similarity); err != nil {
			return nil, &StorageError{Op: "search_similar_chunks", Err: err}
		}
		results = append(results, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "search_similar_chunks", Err: err}
	}

	return results, nil
}

func validateChunkBatch(chunks []models.DocumentChunk, embeddings []pgvector.Vector, dimension int) error {
	if len(chunks) != len(embeddings) {
		return &StorageError{Op: "store_document", Err: fmt.Errorf("chunk count %d does not match embedding count %d", len(chunks), len(embeddings))}
	}
	for i, embedding := range embeddings {
		if len(embedding.Slice()) != dimension {
			return &StorageError{Op: "store_document", Err: fmt.Errorf("embedding %d has dimension %d, want %d", i, len(embedding.Slice()), dimension)}
		}
	}
	return nil
}

func validateSearch(query string, matchCount int) error {
	if matchCount <= 0 {
		return &InvalidQueryError{Reason: "match_count must be positive"}
	}
	if strings.TrimSpace(query) == "" {
		return &InvalidQueryError{Reason: "search query cannot be empty"}
	}
	return nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

package handlers

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sawtline/callsight/models"
	"github.com/sawtline/callsight/services/rag_service"
	"github.com/sawtline/callsight/services/storage_service"
)

// UploadDocumentHandler ingests one document: extract, chunk, embed, upload
// the original blob, then persist. Any failure before the store call leaves
// nothing persisted.
type UploadDocumentHandler struct {
	extractor *rag_service.DocumentExtractor
	chunker   *rag_service.Chunker
	embedder  rag_service.Embedder
	store     rag_service.ChunkStore
	uploader  storage_service.Uploader
	logger    *slog.Logger
}

func NewUploadDocumentHandler(
	extractor *rag_service.DocumentExtractor,
	chunker *rag_service.Chunker,
	embedder rag_service.Embedder,
	store rag_service.ChunkStore,
	uploader storage_service.Uploader,
	logger *slog.Logger,
) *UploadDocumentHandler {
	return &UploadDocumentHandler{
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		store:     store,
		uploader:  uploader,
		logger:    logger,
	}
}

type uploadDocumentResponse struct {
	Message    string                 `json:"message"`
	DocumentID int64                  `json:"document_id"`
	ChunkCount int                    `json:"chunk_count"`
	TotalPages *int                   `json:"total_pages,omitempty"`
	Stats      models.ProcessingStats `json:"stats"`
}

func (h *UploadDocumentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("Received document upload request")

	if err := r.ParseMultipartForm(20 << 20); err != nil {
		writeJSONError(w, "Failed to parse multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, "Failed to get file from form", http.StatusBadRequest)
		return
	}
	defer file.Close()

	title := strings.TrimSpace(r.FormValue("title"))
	category := strings.TrimSpace(r.FormValue("category"))
	if title == "" || category == "" {
		writeJSONError(w, "title and category are required", http.StatusBadRequest)
		return
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		writeJSONError(w, "Failed to read file", http.StatusInternalServerError)
		return
	}
	content := buf.Bytes()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	meta := models.DocumentMetadata{
		Title:     title,
		FileType:  strings.TrimPrefix(ext, "."),
		FileSize:  int64(len(content)),
		Category:  category,
		UpdatedAt: time.Now().UTC(),
	}

	// The extractor works from a path, so stage the upload on disk first.
	tempFile, err := os.CreateTemp("", "upload-*"+ext)
	if err != nil {
		writeJSONError(w, "Failed to stage uploaded file", http.StatusInternalServerError)
		return
	}
	tempPath := tempFile.Name()
	defer os.Remove(tempPath)

	if _, err := tempFile.Write(content); err != nil {
		tempFile.Close()
		writeJSONError(w, "Failed to stage uploaded file", http.StatusInternalServerError)
		return
	}
	tempFile.Close()

	extractStart := time.Now()
	pages, err := h.extractor.ExtractPages(tempPath, &meta)
	if err != nil {
		var unsupported *rag_service.UnsupportedFormatError
		if errors.As(err, &unsupported) {
			h.logger.Error("Unsupported file type",
				slog.String("filename", header.Filename),
				slog.String("extension", ext))
			writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("Text extraction failed",
			slog.String("filename", header.Filename),
			slog.String("error", err.Error()))
		writeJSONError(w, "Failed to extract text from document", http.StatusInternalServerError)
		return
	}
	stats := models.ProcessingStats{ExtractionTime: time.Since(extractStart).Seconds()}

	chunks := h.chunker.ChunkPages(pages, title)

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	embedStart := time.Now()
	embeddings, err := h.embedder.EmbedBatch(r.Context(), texts)
	if err != nil {
		h.logger.Error("Failed to generate embeddings",
			slog.String("filename", header.Filename),
			slog.String("error", err.Error()))
		writeJSONError(w, "Failed to generate embeddings", http.StatusInternalServerError)
		return
	}
	stats.EmbeddingTime = time.Since(embedStart).Seconds()

	sourceURL, err := h.uploader.Upload(r.Context(), header.Filename, content, header.Header.Get("Content-Type"))
	if err != nil {
		h.logger.Error("Failed to upload original file to storage",
			slog.String("filename", header.Filename),
			slog.String("error", err.Error()))
		writeJSONError(w, "Failed to upload file to storage", http.StatusInternalServerError)
		return
	}
	meta.SourceURL = sourceURL

	storeStart := time.Now()
	documentID, err := h.store.StoreDocument(r.Context(), chunks, embeddings, meta)
	if err != nil {
		h.logger.Error("Failed to store document",
			slog.String("filename", header.Filename),
			slog.String("error", err.Error()))
		writeJSONError(w, "Failed to store document", http.StatusInternalServerError)
		return
	}
	stats.StorageTime = time.Since(storeStart).Seconds()

	writeJSON(w, http.StatusOK, uploadDocumentResponse{
		Message:    "Document processed successfully",
		DocumentID: documentID,
		ChunkCount: len(chunks),
		TotalPages: meta.TotalPages,
		Stats:      stats,
	})
}

package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sawtline/callsight/services/rag_service"
)

// QueryDocumentsHandler answers free-text questions against the document
// corpus through the RAG service.
type QueryDocumentsHandler struct {
	rag    *rag_service.Service
	logger *slog.Logger
}

func NewQueryDocumentsHandler(rag *rag_service.Service, logger *slog.Logger) *QueryDocumentsHandler {
	return &QueryDocumentsHandler{
		rag:    rag,
		logger: logger,
	}
}

type queryDocumentsRequest struct {
	Question  string `json:"question"`
	MaxChunks *int   `json:"max_chunks"`
}

func (h *QueryDocumentsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req queryDocumentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("Failed to decode request body",
			slog.String("error", err.Error()))
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	maxChunks := rag_service.DefaultMaxChunks
	if req.MaxChunks != nil {
		maxChunks = *req.MaxChunks
	}

	answer, err := h.rag.Answer(r.Context(), req.Question, maxChunks)
	if err != nil {
		var invalid *rag_service.InvalidQueryError
		if errors.As(err, &invalid) {
			writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("Failed to answer question",
			slog.String("error", err.Error()))
		writeJSONError(w, "Failed to answer question", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, answer)
}

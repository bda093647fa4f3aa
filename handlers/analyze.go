package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sawtline/callsight/models"
	"github.com/sawtline/callsight/services/analysis_service"
)

// AnalysisHandler exposes the transcript insight endpoints: summary, key
// events, checklist compliance and segment labeling.
type AnalysisHandler struct {
	analysis *analysis_service.Service
	logger   *slog.Logger
}

func NewAnalysisHandler(analysis *analysis_service.Service, logger *slog.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		analysis: analysis,
		logger:   logger,
	}
}

type conversationRequest struct {
	Segments []models.TranscriptSegment `json:"segments"`
}

type checklistRequest struct {
	Segments  []models.TranscriptSegment `json:"segments"`
	Checklist []string                   `json:"checklist"`
}

type labelingRequest struct {
	Segments       []models.TranscriptSegment `json:"segments"`
	PossibleLabels []models.LabelDefinition   `json:"possible_labels"`
}

func (h *AnalysisHandler) SummarizeConversation(w http.ResponseWriter, r *http.Request) {
	var req conversationRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	summary, err := h.analysis.SummarizeConversation(r.Context(), req.Segments)
	if err != nil {
		h.logger.Error("Failed to summarize conversation",
			slog.String("error", err.Error()))
		writeJSONError(w, "Error summarizing conversation", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"segments": req.Segments,
		"summary":  summary,
	})
}

func (h *AnalysisHandler) AnalyzeEvents(w http.ResponseWriter, r *http.Request) {
	var req conversationRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	events, err := h.analysis.AnalyzeEvents(r.Context(), req.Segments)
	if err != nil {
		h.logger.Error("Failed to analyze events",
			slog.String("error", err.Error()))
		writeJSONError(w, "Error analyzing conversation events", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"segments":   req.Segments,
		"key_events": events,
	})
}

func (h *AnalysisHandler) AnalyzeChecklist(w http.ResponseWriter, r *http.Request) {
	var req checklistRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	segments, err := h.analysis.AnalyzeChecklist(r.Context(), req.Segments, req.Checklist)
	if err != nil {
		h.logger.Error("Failed to analyze checklist",
			slog.String("error", err.Error()))
		writeJSONError(w, "Error analyzing segments", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"segments": segments,
	})
}

func (h *AnalysisHandler) LabelSegments(w http.ResponseWriter, r *http.Request) {
	var req labelingRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	segments, err := h.analysis.LabelSegments(r.Context(), req.Segments, req.PossibleLabels)
	if err != nil {
		h.logger.Error("Failed to label segments",
			slog.String("error", err.Error()))
		writeJSONError(w, "Error labeling segments", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"segments": segments,
	})
}

func decodeRequest(w http.ResponseWriter, r *http.Request, dst interface{}, logger *slog.Logger) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logger.Error("Failed to decode request body",
			slog.String("error", err.Error()))
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sawtline/callsight/models"
	"github.com/sawtline/callsight/services/transcription_service"
)

// TranscribeHandler accepts an audio recording and returns diarized,
// speaker-attributed transcript segments.
type TranscribeHandler struct {
	transcriber *transcription_service.Service
	logger      *slog.Logger
}

func NewTranscribeHandler(transcriber *transcription_service.Service, logger *slog.Logger) *TranscribeHandler {
	return &TranscribeHandler{
		transcriber: transcriber,
		logger:      logger,
	}
}

type transcribeSettings struct {
	LanguageID  string `json:"languageId"`
	NumSpeakers int    `json:"numSpeakers"`
}

type transcribeResponse struct {
	Segments []models.TranscriptSegment `json:"segments"`
}

func (h *TranscribeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(50 << 20); err != nil {
		writeJSONError(w, "Failed to parse multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, "Failed to get file from form", http.StatusBadRequest)
		return
	}
	defer file.Close()

	settings := transcribeSettings{LanguageID: "en", NumSpeakers: 2}
	if raw := r.FormValue("settings"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &settings); err != nil {
			writeJSONError(w, "Invalid settings JSON", http.StatusBadRequest)
			return
		}
	}

	if !transcription_service.AllowedExtension(header.Filename) {
		writeJSONError(w,
			fmt.Sprintf("Invalid file format. Supported formats: %s",
				strings.Join(transcription_service.AllowedExtensionList(), ", ")),
			http.StatusBadRequest)
		return
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		writeJSONError(w, "Failed to read file", http.StatusInternalServerError)
		return
	}

	segments, err := h.transcriber.Transcribe(r.Context(), header.Filename, buf.Bytes(), settings.LanguageID, settings.NumSpeakers)
	if err != nil {
		h.logger.Error("Transcription failed",
			slog.String("filename", header.Filename),
			slog.String("error", err.Error()))
		writeJSONError(w, "Transcription failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, transcribeResponse{Segments: segments})
}

package transcription_service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sawtline/callsight/models"
)

const defaultModelID = "scribe_v1"

var allowedExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".m4a":  true,
	".flac": true,
	".ogg":  true,
}

// TranscriptionError reports a speech-to-text provider failure.
type TranscriptionError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *TranscriptionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transcription provider error (HTTP %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("transcription failed: %v", e.Err)
}

func (e *TranscriptionError) Unwrap() error { return e.Err }

// Service transcribes call recordings with speaker diarization and merges
// the provider's word-level output into speaker-attributed segments.
type Service struct {
	httpClient *http.Client
	logger     *slog.Logger
	apiKey     string
	apiBase    string
}

func NewService(apiKey, apiBase string, logger *slog.Logger) *Service {
	if apiBase == "" {
		apiBase = "https://api.elevenlabs.io"
	}
	return &Service{
		httpClient: &http.Client{Timeout: 300 * time.Second},
		logger:     logger,
		apiKey:     apiKey,
		apiBase:    apiBase,
	}
}

// AllowedExtension reports whether the audio format is accepted.
func AllowedExtension(filename string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// AllowedExtensionList returns the supported formats for error messages.
func AllowedExtensionList() []string {
	return []string{".mp3", ".wav", ".m4a", ".flac", ".ogg"}
}

type transcriptionWord struct {
	Text      string  `json:"text"`
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	Type      string  `json:"type"`
	SpeakerID string  `json:"speaker_id"`
}

type transcriptionResponse struct {
	Words []transcriptionWord `json:"words"`
}

// Transcribe sends the audio to the provider and returns time-stamped,
// speaker-attributed segments.
func (s *Service) Transcribe(ctx context.Context, filename string, audio []byte, languageCode string, numSpeakers int) ([]models.TranscriptSegment, error) {
	if s.apiKey == "" {
		return nil, &TranscriptionError{Err: fmt.Errorf("ELEVENLABS_API_KEY not set")}
	}
	if languageCode == "" {
		languageCode = "en"
	}
	if numSpeakers <= 0 {
		numSpeakers = 2
	}

	maxRetries := 3
	retryDelay := 5 * time.Second

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		segments, err := s.transcribeOnce(ctx, filename, audio, languageCode, numSpeakers)
		if err == nil {
			return segments, nil
		}
		lastErr = err

		// Client-side problems won't heal on retry
		if tErr, ok := err.(*TranscriptionError); ok && tErr.StatusCode >= 400 && tErr.StatusCode < 500 {
			return nil, err
		}

		if attempt < maxRetries {
			s.logger.Warn("Transcription attempt failed, retrying",
				slog.Int("attempt", attempt),
				slog.Duration("retry_delay", retryDelay),
				slog.String("error", err.Error()))
			time.Sleep(retryDelay)
		}
	}

	return nil, lastErr
}

func (s *Service) transcribeOnce(ctx context.Context, filename string, audio []byte, languageCode string, numSpeakers int) ([]models.TranscriptSegment, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	fields := map[string]string{
		"model_id":      defaultModelID,
		"language_code": languageCode,
		"num_speakers":  strconv.Itoa(numSpeakers),
		"diarize":       "true",
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, &TranscriptionError{Err: err}
		}
	}

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, &TranscriptionError{Err: err}
	}
	if _, err := part.Write(audio); err != nil {
		return nil, &TranscriptionError{Err: err}
	}
	if err := writer.Close(); err != nil {
		return nil, &TranscriptionError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.apiBase+"/v1/speech-to-text", &body)
	if err != nil {
		return nil, &TranscriptionError{Err: err}
	}
	req.Header.Set("xi-api-key", s.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &TranscriptionError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		s.logger.Error("Transcription provider returned error",
			slog.Int("status_code", resp.StatusCode),
			slog.String("body", string(raw)))
		return nil, &TranscriptionError{StatusCode: resp.StatusCode, Message: string(raw)}
	}

	var result transcriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &TranscriptionError{Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	return mergeWords(result.Words), nil
}

// mergeWords folds consecutive words by the same speaker into one segment.
// Spacing entries carry no speech and are dropped first.
func mergeWords(words []transcriptionWord) []models.TranscriptSegment {
	spoken := make([]transcriptionWord, 0, len(words))
	for _, word := range words {
		if word.Type != "spacing" {
			spoken = append(spoken, word)
		}
	}

	if len(spoken) == 0 {
		return []models.TranscriptSegment{}
	}

	segments := []models.TranscriptSegment{}
	current := models.TranscriptSegment{
		StartTime: spoken[0].Start,
		EndTime:   spoken[0].End,
		Text:      spoken[0].Text,
		Speaker:   spoken[0].SpeakerID,
	}

	for _, word := range spoken[1:] {
		if word.SpeakerID == current.Speaker {
			current.Text += " " + word.Text
			current.EndTime = word.End
		} else {
			segments = append(segments, current)
			current = models.TranscriptSegment{
				StartTime: word.Start,
				EndTime:   word.End,
				Text:      word.Text,
				Speaker:   word.SpeakerID,
			}
		}
	}
	segments = append(segments, current)

	for i := range segments {
		segments[i].Speaker = strings.Replace(segments[i].Speaker, "speaker_", "Speaker ", 1)
		segments[i].Text = strings.TrimSpace(segments[i].Text)
	}

	return segments
}

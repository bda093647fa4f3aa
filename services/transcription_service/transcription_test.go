package transcription_service

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllowedExtension(t *testing.T) {
	require.True(t, AllowedExtension("call.mp3"))
	require.True(t, AllowedExtension("CALL.WAV"))
	require.True(t, AllowedExtension("meeting.m4a"))
	require.False(t, AllowedExtension("call.pdf"))
	require.False(t, AllowedExtension("noextension"))
}

func TestTranscribeMergesWordsBySpeaker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/speech-to-text", r.URL.Path)
		require.Equal(t, "test-key", r.Header.Get("xi-api-key"))

		require.NoError(t, r.ParseMultipartForm(32<<20))
		require.Equal(t, "scribe_v1", r.FormValue("model_id"))
		require.Equal(t, "ar", r.FormValue("language_code"))
		require.Equal(t, "2", r.FormValue("num_speakers"))
		require.Equal(t, "true", r.FormValue("diarize"))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"words": []map[string]interface{}{
				{"text": "Hello", "start": 0.0, "end": 0.4, "type": "word", "speaker_id": "speaker_0"},
				{"text": " ", "start": 0.4, "end": 0.5, "type": "spacing", "speaker_id": "speaker_0"},
				{"text": "there", "start": 0.5, "end": 0.9, "type": "word", "speaker_id": "speaker_0"},
				{"text": "Hi", "start": 1.2, "end": 1.4, "type": "word", "speaker_id": "speaker_1"},
				{"text": "back", "start": 1.5, "end": 1.8, "type": "word", "speaker_id": "speaker_1"},
				{"text": "Great", "start": 2.0, "end": 2.3, "type": "word", "speaker_id": "speaker_0"},
			},
		})
	}))
	defer server.Close()

	service := NewService("test-key", server.URL, slog.Default())
	segments, err := service.Transcribe(context.Background(), "call.mp3", []byte("audio-bytes"), "ar", 2)
	require.NoError(t, err)
	require.Len(t, segments, 3)

	require.Equal(t, "Speaker 0", segments[0].Speaker)
	require.Equal(t, "Hello there", segments[0].Text)
	require.Equal(t, 0.0, segments[0].StartTime)
	require.Equal(t, 0.9, segments[0].EndTime)

	require.Equal(t, "Speaker 1", segments[1].Speaker)
	require.Equal(t, "Hi back", segments[1].Text)

	require.Equal(t, "Speaker 0", segments[2].Speaker)
	require.Equal(t, "Great", segments[2].Text)
}

func TestTranscribeDefaultsLanguageAndSpeakers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(32<<20))
		require.Equal(t, "en", r.FormValue("language_code"))
		require.Equal(t, "2", r.FormValue("num_speakers"))
		json.NewEncoder(w).Encode(map[string]interface{}{"words": []interface{}{}})
	}))
	defer server.Close()

	service := NewService("test-key", server.URL, slog.Default())
	segments, err := service.Transcribe(context.Background(), "call.wav", []byte("audio"), "", 0)
	require.NoError(t, err)
	require.Empty(t, segments)
}

func TestTranscribeClientErrorDoesNotRetry(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	service := NewService("test-key", server.URL, slog.Default())
	_, err := service.Transcribe(context.Background(), "call.mp3", []byte("audio"), "en", 2)

	var tErr *TranscriptionError
	require.ErrorAs(t, err, &tErr)
	require.Equal(t, http.StatusUnprocessableEntity, tErr.StatusCode)
	require.Equal(t, 1, calls, "4xx must not be retried")
}

func TestTranscribeMissingKey(t *testing.T) {
	service := NewService("", "http://unused", slog.Default())
	_, err := service.Transcribe(context.Background(), "call.mp3", []byte("audio"), "en", 2)

	var tErr *TranscriptionError
	require.ErrorAs(t, err, &tErr)
}

func TestMergeWordsEmptyInput(t *testing.T) {
	segments := mergeWords(nil)
	require.NotNil(t, segments)
	require.Empty(t, segments)
}

package models

import "time"

// DocumentMetadata describes one uploaded source document. Title, FileSize and
// Category are known at upload time; TotalPages stays nil for formats without
// page structure.
type DocumentMetadata struct {
	Title         string    `json:"title"`
	FileType      string    `json:"file_type"`
	TotalPages    *int      `json:"total_pages,omitempty"`
	FileSize      int64     `json:"file_size"`
	SourceURL     string    `json:"source_url"`
	Category      string    `json:"category"`
	Summary       string    `json:"summary,omitempty"`
	Tags          []string  `json:"tags,omitempty"`
	AISuggestion  string    `json:"ai_suggestion,omitempty"`
	HelpfulRating int       `json:"helpful_rating"`
	UseCount      int       `json:"use_count"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// DocumentChunk is one contiguous slice of a document's extracted text.
// Source carries the owning document's title as a denormalized label.
// ChunkNumber is 1-based and strictly increasing within one document.
type DocumentChunk struct {
	Content     string `json:"content"`
	Source      string `json:"source"`
	PageNumber  *int   `json:"page_number,omitempty"`
	ChunkNumber int    `json:"chunk_number"`
}

// RetrievedChunk is the ephemeral query-time projection of a chunk joined
// with its parent document's title and a similarity score.
type RetrievedChunk struct {
	Content    string  `json:"content"`
	Source     string  `json:"source"`
	PageNumber *int    `json:"page_number,omitempty"`
	Similarity float64 `json:"similarity"`
}

// RAGAnswer is the result of a grounded question-answering call. Sources are
// listed in the same order they were presented to the generation model.
type RAGAnswer struct {
	Answer  string           `json:"answer"`
	Sources []RetrievedChunk `json:"sources"`
}

// TranscriptSegment is one speaker-attributed slice of a call transcript.
type TranscriptSegment struct {
	StartTime     float64 `json:"startTime"`
	EndTime       float64 `json:"endTime"`
	Text          string  `json:"text"`
	Speaker       string  `json:"speaker,omitempty"`
	Channel       int     `json:"channel,omitempty"`
	Sentiment     string  `json:"sentiment,omitempty"`
	Label         *string `json:"label,omitempty"`
	ChecklistItem *string `json:"checklist_item,omitempty"`
}

// KeyEvent is one significant action identified in a conversation.
type KeyEvent struct {
	Actor     string  `json:"actor"`
	Action    string  `json:"action"`
	Timestamp float64 `json:"timestamp"`
}

// LabelDefinition names one label a segment may be tagged with.
type LabelDefinition struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ProcessingStats records per-stage timings for a document ingestion.
type ProcessingStats struct {
	ExtractionTime float64 `json:"extraction_time"`
	EmbeddingTime  float64 `json:"embedding_time"`
	StorageTime    float64 `json:"storage_time"`
}

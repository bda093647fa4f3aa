package rag_service

import "fmt"

// UnsupportedFormatError rejects uploads whose extension is outside the
// supported set. This is a user input problem, not a provider failure.
type UnsupportedFormatError struct {
	Extension string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file type: %s", e.Extension)
}

// ExtractionError reports a provider or parse failure while extracting text.
// Ingestion must abort with no partial persistence.
type ExtractionError struct {
	Filename string
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("text extraction failed for %s: %v", e.Filename, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// EmbeddingProviderError reports a failure from the embedding provider.
type EmbeddingProviderError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *EmbeddingProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("embedding provider error (HTTP %d): %s", e.StatusCode, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("embedding provider error: %v", e.Err)
	}
	return fmt.Sprintf("embedding provider error: %s", e.Message)
}

func (e *EmbeddingProviderError) Unwrap() error { return e.Err }

// StorageError means the document is not guaranteed stored.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// InvalidQueryError rejects a bad match_count/max_chunks before any network call.
type InvalidQueryError struct {
	Reason string
}

func (e *InvalidQueryError) Error() string {
	return fmt.Sprintf("invalid query: %s", e.Reason)
}

// AnsweringError wraps whatever failed while answering a question. The
// operation is all-or-nothing; no partial result accompanies it.
type AnsweringError struct {
	Step string
	Err  error
}

func (e *AnsweringError) Error() string {
	return fmt.Sprintf("answering failed at %s: %v", e.Step, e.Err)
}

func (e *AnsweringError) Unwrap() error { return e.Err }

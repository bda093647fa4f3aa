package rag_service

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer turns text into an ordered token stream and back. Splitting the
// same text twice must yield the same tokens; the chunker relies on that for
// reproducible chunk boundaries.
type Tokenizer interface {
	Name() string
	Split(text string) []string
	Join(tokens []string) string
}

// NewTokenizer resolves the configured tokenizer once at startup.
func NewTokenizer(name string) (Tokenizer, error) {
	switch name {
	case "word", "":
		return &WordTokenizer{}, nil
	case "cl100k_base":
		return NewTiktokenTokenizer("cl100k_base")
	default:
		return nil, fmt.Errorf("unknown tokenizer: %s", name)
	}
}

// WordTokenizer splits on whitespace. Joining normalizes runs of whitespace
// to single spaces, which is acceptable for chunk reconstruction.
type WordTokenizer struct{}

func (t *WordTokenizer) Name() string { return "word" }

func (t *WordTokenizer) Split(text string) []string {
	return strings.Fields(text)
}

func (t *WordTokenizer) Join(tokens []string) string {
	return strings.Join(tokens, " ")
}

// TiktokenTokenizer splits with a BPE encoding so chunk sizes line up with
// the embedding provider's token accounting.
type TiktokenTokenizer struct {
	encoding string
	enc      *tiktoken.Tiktoken
}

func NewTiktokenTokenizer(encoding string) (*TiktokenTokenizer, error) {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s encoding: %w", encoding, err)
	}
	return &TiktokenTokenizer{encoding: encoding, enc: enc}, nil
}

func (t *TiktokenTokenizer) Name() string { return t.encoding }

func (t *TiktokenTokenizer) Split(text string) []string {
	ids := t.enc.Encode(text, nil, nil)
	tokens := make([]string, len(ids))
	for i, id := range ids {
		tokens[i] = t.enc.Decode([]int{id})
	}
	return tokens
}

func (t *TiktokenTokenizer) Join(tokens []string) string {
	return strings.Join(tokens, "")
}

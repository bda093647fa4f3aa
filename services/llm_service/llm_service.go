package llm_service

import "context"

// Message is one role-tagged entry of a chat prompt.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// LLMService generates free-form text from a chat prompt.
type LLMService interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}

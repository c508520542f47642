// Package interfaces provides service interfaces for dependency injection.
package interfaces

import "context"

// Message represents a single turn in a model conversation.
type Message struct {
	Role    string `json:"role"`    // "user" or "assistant"
	Content string `json:"content"` // message text
}

// LLMService provides text completion against a hosted model provider.
//
// Implementations wrap a single provider (Anthropic, Gemini) behind a
// uniform completion call so callers never touch provider SDK types.
type LLMService interface {
	// Complete sends the conversation to the model and returns the
	// assistant's reply text.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - messages: Conversation history, oldest first
	//
	// Returns:
	//   - string: The model's response text
	//   - error: Provider or transport error
	Complete(ctx context.Context, messages []Message) (string, error)

	// Provider returns the provider name ("claude", "gemini").
	Provider() string

	// Model returns the configured model identifier.
	Model() string

	// Close releases provider client resources.
	Close() error
}

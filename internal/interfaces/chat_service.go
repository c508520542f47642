package interfaces

import (
	"context"

	"github.com/ternarybob/insightx/internal/models"
)

// ChatRequest represents a conversational question about analytics topics.
type ChatRequest struct {
	// User's message
	Message string `json:"message"`

	// Session to continue (optional, new session created when empty)
	SessionID string `json:"session_id,omitempty"`

	// Response language (optional, defaults to English)
	Language string `json:"language,omitempty"`
}

// ChatResponse is the assistant reply plus session bookkeeping.
type ChatResponse struct {
	SessionID string          `json:"session_id"`
	Reply     string          `json:"reply"`
	Language  models.Language `json:"language"`
	Refused   bool            `json:"refused,omitempty"`
}

// ChatService manages multi-turn conversations scoped to analytics topics.
type ChatService interface {
	// Ask answers a user message within a session, creating the session
	// when no ID is supplied. Off-topic questions are refused without an
	// external model call.
	Ask(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// GetSession returns a session with its turn history.
	GetSession(ctx context.Context, id string) (*models.ChatSession, error)
}

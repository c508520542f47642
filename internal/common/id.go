package common

import (
	"github.com/google/uuid"
)

// NewBundleID generates a unique analysis result ID with the "an_" prefix
// Format: an_<uuid>
func NewBundleID() string {
	return "an_" + uuid.New().String()
}

// NewSessionID generates a unique chat session ID with the "chat_" prefix
// Format: chat_<uuid>
func NewSessionID() string {
	return "chat_" + uuid.New().String()
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// Session represents one conversation session for a user. At most one session
// per user is active at a time; Sequence increases monotonically per user.
type Session struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Sequence  int        `json:"sequence"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	Active    bool       `json:"active"`
	Summary   *string    `json:"summary,omitempty"`
}

// MessageRole identifies who produced a message
type MessageRole string

const (
	// RoleUser marks a message sent by the user
	RoleUser MessageRole = "user"
	// RoleAssistant marks a message produced by the assistant
	RoleAssistant MessageRole = "assistant"
)

// Message is a single turn within a session. Messages are immutable once
// created and ordered by CreatedAt within their session.
type Message struct {
	ID        uuid.UUID      `json:"id"`
	SessionID uuid.UUID      `json:"session_id"`
	UserID    uuid.UUID      `json:"user_id"`
	Role      MessageRole    `json:"role"`
	Text      string         `json:"text"`
	Context   map[string]any `json:"context,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

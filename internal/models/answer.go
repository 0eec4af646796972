package models

import (
	"github.com/google/uuid"
)

// UserContext is the immutable per-turn snapshot of everything the engine
// knows about a user. It is constructed once per turn (possibly from cache)
// and threaded through prompt composition.
type UserContext struct {
	User          *User
	Profile       *UserProfile
	RecentTurns   []Message
	SessionNumber int
}

// AnswerResult is the engine's response for a single turn.
type AnswerResult struct {
	Success        bool      `json:"success"`
	Response       string    `json:"response"`
	Sources        []string  `json:"sources,omitempty"`
	Category       Category  `json:"category"`
	ModelUsed      string    `json:"model_used,omitempty"`
	SessionID      uuid.UUID `json:"session_id,omitempty"`
	ResponseTimeMs int64     `json:"response_time_ms"`
	Cached         bool      `json:"cached"`

	// ErrorDetail carries the underlying failure cause for logs and
	// metadata. It is never used as the user-facing response text.
	ErrorDetail string `json:"-"`
}

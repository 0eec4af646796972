package ai

import (
	"context"

	"github.com/fitmind/assistant/internal/selector"
)

// ChatMessage represents a message in a chat conversation
type ChatMessage struct {
	Role    string `json:"role"` // "system", "user" or "assistant"
	Content string `json:"content"`
}

// CompletionRequest carries one LLM call.
type CompletionRequest struct {
	Messages    []ChatMessage
	Tier        selector.Tier
	Temperature float64
	MaxTokens   int
}

// Completer is the interface for LLM providers. Implementations are
// stateless and safe for concurrent use; at least two tiers must be
// selectable through the request's Tier field.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	// ModelForTier reports the concrete model name a tier maps to, for
	// result metadata.
	ModelForTier(tier selector.Tier) string
}

// Embedder generates embedding vectors from text. The implementation is
// loaded once per process and shared read-only across requests.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

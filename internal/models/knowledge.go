package models

import (
	"time"

	"github.com/google/uuid"
)

// Category is a coarse topic label used to route retrieval and model
// selection.
type Category string

const (
	// CategoryExercise covers workouts, training, and physical activity
	CategoryExercise Category = "exercise"
	// CategoryNutrition covers food, diet, and eating habits
	CategoryNutrition Category = "nutrition"
	// CategoryHealth covers medical and health topics
	CategoryHealth Category = "health"
	// CategoryGeneral is the generic category for uncategorized content
	CategoryGeneral Category = "general"
	// CategoryNone means no category matched
	CategoryNone Category = ""
)

// KnowledgeDocument is an immutable reference snippet in the knowledge index.
// Documents are created at index-build time and read-only at query time.
type KnowledgeDocument struct {
	ID        uuid.UUID `json:"id"`
	Text      string    `json:"text"`
	SourceTag string    `json:"source_tag"`
	Category  Category  `json:"category"`
	Embedding []float32 `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// ScoredDocument is a retrieval result: a document plus its distance score.
// Lower distance means more similar.
type ScoredDocument struct {
	Text      string   `json:"text"`
	SourceTag string   `json:"source_tag"`
	Category  Category `json:"category"`
	Distance  float64  `json:"distance"`
}

// LongTermMemory is a compaction artifact: a summary of older conversation
// with its embedding and the session range it covers.
type LongTermMemory struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	Summary       string    `json:"summary"`
	Embedding     []float32 `json:"-"`
	FirstSequence int       `json:"first_sequence"`
	LastSequence  int       `json:"last_sequence"`
	Topics        []string  `json:"topics,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

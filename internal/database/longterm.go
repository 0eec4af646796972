package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fitmind/assistant/internal/models"
)

// LongTermMemoryRepository stores compaction artifacts: vectorized summaries
// of older conversation.
type LongTermMemoryRepository struct {
	db *DB
}

// NewLongTermMemoryRepository creates a new long-term memory repository
func NewLongTermMemoryRepository(db *DB) *LongTermMemoryRepository {
	return &LongTermMemoryRepository{db: db}
}

// Create inserts a long-term memory record.
func (r *LongTermMemoryRepository) Create(ctx context.Context, record *models.LongTermMemory) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	embedding, err := json.Marshal(record.Embedding)
	if err != nil {
		return fmt.Errorf("failed to encode embedding: %w", err)
	}
	topics := record.Topics
	if topics == nil {
		topics = []string{}
	}
	topicsJSON, err := json.Marshal(topics)
	if err != nil {
		return fmt.Errorf("failed to encode topics: %w", err)
	}

	err = r.db.QueryRowContext(ctx, `
		INSERT INTO long_term_memories
			(id, user_id, summary, embedding, first_sequence, last_sequence, topics, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`,
		record.ID,
		record.UserID,
		record.Summary,
		embedding,
		record.FirstSequence,
		record.LastSequence,
		topicsJSON,
		time.Now(),
	).Scan(&record.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create long-term memory: %w", err)
	}
	return nil
}

// GetLatestByUser returns the user's most recent record, or nil when the
// user has never been compacted.
func (r *LongTermMemoryRepository) GetLatestByUser(ctx context.Context, userID uuid.UUID) (*models.LongTermMemory, error) {
	record := &models.LongTermMemory{}
	var embedding, topics []byte

	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, summary, embedding, first_sequence, last_sequence, topics, created_at
		FROM long_term_memories
		WHERE user_id = $1
		ORDER BY last_sequence DESC
		LIMIT 1
	`, userID).Scan(
		&record.ID,
		&record.UserID,
		&record.Summary,
		&embedding,
		&record.FirstSequence,
		&record.LastSequence,
		&topics,
		&record.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get long-term memory: %w", err)
	}

	if err := json.Unmarshal(embedding, &record.Embedding); err != nil {
		return nil, fmt.Errorf("failed to decode embedding: %w", err)
	}
	if err := json.Unmarshal(topics, &record.Topics); err != nil {
		return nil, fmt.Errorf("failed to decode topics: %w", err)
	}

	return record, nil
}

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

// MessageRepository handles message database operations. Messages are
// immutable once created.
type MessageRepository struct {
	db *DB
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create inserts a message.
func (r *MessageRepository) Create(ctx context.Context, msg *models.Message) error {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}

	var contextJSON []byte
	if msg.Context != nil {
		raw, err := json.Marshal(msg.Context)
		if err != nil {
			return fmt.Errorf("failed to encode message context: %w", err)
		}
		contextJSON = raw
	}

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO messages (id, session_id, user_id, role, text, context, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`,
		msg.ID,
		msg.SessionID,
		msg.UserID,
		msg.Role,
		msg.Text,
		contextJSON,
		time.Now(),
	).Scan(&msg.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// GetRecentBySession returns the session's latest messages in chronological
// order, at most limit of them.
func (r *MessageRepository) GetRecentBySession(ctx context.Context, sessionID uuid.UUID, limit int) ([]models.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session_id, user_id, role, text, context, created_at
		FROM (
			SELECT id, session_id, user_id, role, text, context, created_at
			FROM messages
			WHERE session_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		) recent
		ORDER BY created_at ASC
	`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanMessages(rows)
}

// GetHistoryByUser returns the user's latest turns across sessions, newest
// first, at most limit of them.
func (r *MessageRepository) GetHistoryByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session_id, user_id, role, text, context, created_at
		FROM messages
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get message history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanMessages(rows)
}

// GetBySequenceRange returns all of the user's messages from sessions within
// the given sequence range, in chronological order. Used by compaction.
func (r *MessageRepository) GetBySequenceRange(ctx context.Context, userID uuid.UUID, firstSeq, lastSeq int) ([]models.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT m.id, m.session_id, m.user_id, m.role, m.text, m.context, m.created_at
		FROM messages m
		JOIN sessions s ON s.id = m.session_id
		WHERE m.user_id = $1 AND s.sequence BETWEEN $2 AND $3
		ORDER BY m.created_at ASC
	`, userID, firstSeq, lastSeq)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages by sequence range: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanMessages(rows)
}

func scanMessages(rows *sql.Rows) ([]models.Message, error) {
	var messages []models.Message
	for rows.Next() {
		var msg models.Message
		var contextJSON []byte
		err := rows.Scan(
			&msg.ID,
			&msg.SessionID,
			&msg.UserID,
			&msg.Role,
			&msg.Text,
			&contextJSON,
			&msg.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		if len(contextJSON) > 0 {
			if err := json.Unmarshal(contextJSON, &msg.Context); err != nil {
				return nil, fmt.Errorf("failed to decode message context: %w", err)
			}
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}
	return messages, nil
}

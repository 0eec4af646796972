package database

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/google/uuid"

	"github.com/fitmind/assistant/internal/models"
)

// SessionRepository owns the conversation session lifecycle: creation,
// idle-timeout rollover, and termination.
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// GetOrCreateActive returns the user's active session, rolling it over when
// its last message is older than idleTimeout. Sequence assignment happens
// under a per-user advisory lock, so concurrent first messages cannot mint
// two sessions with the same sequence.
func (r *SessionRepository) GetOrCreateActive(ctx context.Context, userID uuid.UUID, idleTimeout time.Duration) (*models.Session, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, userLockKey(userID)); err != nil {
		return nil, fmt.Errorf("failed to take user lock: %w", err)
	}

	session, err := scanSession(tx.QueryRowContext(ctx, `
		SELECT id, user_id, sequence, started_at, ended_at, active, summary
		FROM sessions
		WHERE user_id = $1 AND active
	`, userID))
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get active session: %w", err)
	}

	now := time.Now()
	if session != nil {
		stale, err := r.isIdle(ctx, tx, session, idleTimeout, now)
		if err != nil {
			return nil, err
		}
		if !stale {
			if err := tx.Commit(); err != nil {
				return nil, fmt.Errorf("failed to commit: %w", err)
			}
			return session, nil
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE sessions SET active = FALSE, ended_at = $2 WHERE id = $1
		`, session.ID, now); err != nil {
			return nil, fmt.Errorf("failed to close idle session: %w", err)
		}
	}

	next := &models.Session{
		ID:        uuid.New(),
		UserID:    userID,
		StartedAt: now,
		Active:    true,
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO sessions (id, user_id, sequence, started_at, active)
		VALUES ($1, $2, (SELECT COALESCE(MAX(sequence), 0) + 1 FROM sessions WHERE user_id = $2), $3, TRUE)
		RETURNING sequence
	`, next.ID, userID, now).Scan(&next.Sequence)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return next, nil
}

// isIdle reports whether the session's last activity predates the timeout.
// A session with no messages yet is judged by its start time.
func (r *SessionRepository) isIdle(ctx context.Context, tx *sql.Tx, session *models.Session, idleTimeout time.Duration, now time.Time) (bool, error) {
	var lastActivity time.Time
	err := tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(created_at), $2)
		FROM messages
		WHERE session_id = $1
	`, session.ID, session.StartedAt).Scan(&lastActivity)
	if err != nil {
		return false, fmt.Errorf("failed to check session activity: %w", err)
	}
	return now.Sub(lastActivity) > idleTimeout, nil
}

// Close ends a session. Idempotent: closing an already-closed session keeps
// its original end timestamp.
func (r *SessionRepository) Close(ctx context.Context, sessionID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET active = FALSE, ended_at = NOW()
		WHERE id = $1 AND active
	`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to close session: %w", err)
	}
	if _, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("failed to close session: %w", err)
	}
	return nil
}

// SetSummary records a compaction summary on a session.
func (r *SessionRepository) SetSummary(ctx context.Context, sessionID uuid.UUID, summary string) error {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET summary = $2 WHERE id = $1
	`, sessionID, summary); err != nil {
		return fmt.Errorf("failed to set session summary: %w", err)
	}
	return nil
}

// GetByID retrieves a session by ID
func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	session, err := scanSession(r.db.QueryRowContext(ctx, `
		SELECT id, user_id, sequence, started_at, ended_at, active, summary
		FROM sessions
		WHERE id = $1
	`, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// MaxSequence returns the user's highest session sequence, 0 when none.
func (r *SessionRepository) MaxSequence(ctx context.Context, userID uuid.UUID) (int, error) {
	var max int
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(sequence), 0) FROM sessions WHERE user_id = $1
	`, userID).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("failed to get max sequence: %w", err)
	}
	return max, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*models.Session, error) {
	session := &models.Session{}
	err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.Sequence,
		&session.StartedAt,
		&session.EndedAt,
		&session.Active,
		&session.Summary,
	)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// userLockKey derives a stable advisory-lock key from a user ID.
func userLockKey(userID uuid.UUID) int64 {
	h := fnv.New64a()
	_, _ = h.Write(userID[:])
	return int64(h.Sum64())
}

// Package database provides PostgreSQL-backed repositories for users,
// profiles, sessions, messages, and long-term memory records.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// Register the postgres driver
	_ "github.com/lib/pq"
)

// DB wraps the sql.DB connection pool
type DB struct {
	*sql.DB
}

// New opens a PostgreSQL connection pool and verifies connectivity
func New(databaseURL string) (*DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db}, nil
}

// Migrate creates the schema if it does not exist yet.
func (db *DB) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			name TEXT,
			language TEXT NOT NULL DEFAULT 'en',
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS user_profiles (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
			age INT,
			height_cm DOUBLE PRECISION,
			weight_kg DOUBLE PRECISION,
			gender TEXT NOT NULL DEFAULT 'unspecified',
			diseases JSONB NOT NULL DEFAULT '[]',
			allergies JSONB NOT NULL DEFAULT '[]',
			liked_foods JSONB NOT NULL DEFAULT '[]',
			disliked_foods JSONB NOT NULL DEFAULT '[]',
			liked_exercises JSONB NOT NULL DEFAULT '[]',
			disliked_exercises JSONB NOT NULL DEFAULT '[]',
			facts JSONB NOT NULL DEFAULT '[]',
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			sequence INT NOT NULL,
			started_at TIMESTAMPTZ NOT NULL,
			ended_at TIMESTAMPTZ,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			summary TEXT,
			UNIQUE (user_id, sequence)
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS sessions_one_active_per_user
			ON sessions (user_id) WHERE active`,
		`CREATE TABLE IF NOT EXISTS messages (
			id UUID PRIMARY KEY,
			session_id UUID NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			role TEXT NOT NULL,
			text TEXT NOT NULL,
			context JSONB,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS messages_session_created
			ON messages (session_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS messages_user_created
			ON messages (user_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS long_term_memories (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			summary TEXT NOT NULL,
			embedding JSONB NOT NULL,
			first_sequence INT NOT NULL,
			last_sequence INT NOT NULL,
			topics JSONB NOT NULL DEFAULT '[]',
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS long_term_memories_user
			ON long_term_memories (user_id, last_sequence DESC)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}
	return nil
}

package database

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fitmind/assistant/internal/models"
)

// UserRepositoryInterface defines the interface for user repository operations
// This interface enables better testability by allowing mock implementations
type UserRepositoryInterface interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
}

// ProfileRepositoryInterface defines the interface for profile repository operations
type ProfileRepositoryInterface interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error)
	Upsert(ctx context.Context, profile *models.UserProfile) error
	Update(ctx context.Context, userID uuid.UUID, mutate func(*models.UserProfile) (bool, error)) (bool, error)
}

// SessionRepositoryInterface defines the interface for session repository operations
type SessionRepositoryInterface interface {
	GetOrCreateActive(ctx context.Context, userID uuid.UUID, idleTimeout time.Duration) (*models.Session, error)
	Close(ctx context.Context, sessionID uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error)
	SetSummary(ctx context.Context, sessionID uuid.UUID, summary string) error
	MaxSequence(ctx context.Context, userID uuid.UUID) (int, error)
}

// MessageRepositoryInterface defines the interface for message repository operations
type MessageRepositoryInterface interface {
	Create(ctx context.Context, msg *models.Message) error
	GetRecentBySession(ctx context.Context, sessionID uuid.UUID, limit int) ([]models.Message, error)
	GetHistoryByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Message, error)
	GetBySequenceRange(ctx context.Context, userID uuid.UUID, firstSeq, lastSeq int) ([]models.Message, error)
}

// LongTermMemoryRepositoryInterface defines the interface for long-term memory repository operations
type LongTermMemoryRepositoryInterface interface {
	Create(ctx context.Context, record *models.LongTermMemory) error
	GetLatestByUser(ctx context.Context, userID uuid.UUID) (*models.LongTermMemory, error)
}

// Ensure concrete types implement the interfaces
var (
	_ UserRepositoryInterface           = (*UserRepository)(nil)
	_ ProfileRepositoryInterface        = (*ProfileRepository)(nil)
	_ SessionRepositoryInterface        = (*SessionRepository)(nil)
	_ MessageRepositoryInterface        = (*MessageRepository)(nil)
	_ LongTermMemoryRepositoryInterface = (*LongTermMemoryRepository)(nil)
)

package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fitmind/assistant/internal/models"
)

// ProfileStore is the slice of the profile repository the service needs.
// Update must serialize concurrent mutations of one user's profile across
// processes; the database implementation holds a per-user advisory lock for
// the duration of the read-modify-write.
type ProfileStore interface {
	Update(ctx context.Context, userID uuid.UUID, mutate func(*models.UserProfile) (bool, error)) (bool, error)
}

// Invalidator clears a user's derived cache entries after a profile change.
type Invalidator interface {
	InvalidateUser(ctx context.Context, userID uuid.UUID) error
}

// Service owns profile mutation. The store's Update runs the read-modify-
// write as one locked unit, so a delta from the user's own message and one
// from background reply extraction cannot interleave and lose set-membership
// updates, even when server and worker run as separate processes.
type Service struct {
	profiles    ProfileStore
	invalidator Invalidator
	logger      *zap.Logger
}

// NewService creates a memory service.
func NewService(profiles ProfileStore, invalidator Invalidator, logger *zap.Logger) *Service {
	return &Service{
		profiles:    profiles,
		invalidator: invalidator,
		logger:      logger,
	}
}

// ExtractAndApply runs extraction over text and, when the delta is non-empty,
// folds it into the user's stored profile and invalidates the user's cached
// prompt and context entries. Returns whether the profile changed.
func (s *Service) ExtractAndApply(ctx context.Context, userID uuid.UUID, text string) (bool, error) {
	delta := Extract(text)
	if delta.IsEmpty() {
		return false, nil
	}
	return s.ApplyDelta(ctx, userID, delta)
}

// ApplyDelta folds a precomputed delta into the stored profile.
func (s *Service) ApplyDelta(ctx context.Context, userID uuid.UUID, delta Delta) (bool, error) {
	changed, err := s.profiles.Update(ctx, userID, func(profile *models.UserProfile) (bool, error) {
		return Apply(profile, delta), nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to update profile: %w", err)
	}
	if !changed {
		return false, nil
	}

	if s.invalidator != nil {
		if err := s.invalidator.InvalidateUser(ctx, userID); err != nil {
			// Stale cache self-heals via TTL; the profile write is the
			// source of truth, so log and continue.
			s.logger.Warn("failed_to_invalidate_user_cache",
				zap.String("user_id", userID.String()),
				zap.Error(err),
			)
		}
	}

	s.logger.Debug("profile_updated_from_conversation",
		zap.String("user_id", userID.String()),
		zap.Int("liked_foods", len(delta.LikedFoods)),
		zap.Int("disliked_foods", len(delta.DislikedFoods)),
		zap.Int("liked_exercises", len(delta.LikedExercises)),
		zap.Int("disliked_exercises", len(delta.DislikedExercises)),
		zap.Int("facts", len(delta.Facts)),
	)

	return true, nil
}

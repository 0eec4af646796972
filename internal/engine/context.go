package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fitmind/assistant/internal/cache"
	"github.com/fitmind/assistant/internal/models"
)

// contextSnapshot is the cacheable slice of UserContext: the user row and
// profile. Recent turns are session-bound and always loaded fresh.
type contextSnapshot struct {
	User    *models.User        `json:"user"`
	Profile *models.UserProfile `json:"profile"`
}

// loadUserContext builds the per-turn UserContext, consulting the snapshot
// cache for user and profile.
func (e *Engine) loadUserContext(ctx context.Context, userID uuid.UUID, session *models.Session) (*models.UserContext, error) {
	key := cache.NewKey(cache.NamespaceUserContext).User(userID)

	var snap contextSnapshot
	err := e.cache.GetJSON(ctx, key, &snap)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			e.logger.Warn("context_cache_read_failed", zap.Error(err))
		}

		user, err := e.userRepo.GetByID(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to load user: %w", err)
		}
		profile, err := e.profileRepo.GetByUserID(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to load profile: %w", err)
		}
		snap = contextSnapshot{User: user, Profile: profile}

		if err := e.cache.SetJSON(ctx, key, snap); err != nil {
			e.logger.Warn("context_cache_write_failed", zap.Error(err))
		}
	}

	turns, err := e.messageRepo.GetRecentBySession(ctx, session.ID, e.recentTurnsWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent turns: %w", err)
	}

	return &models.UserContext{
		User:          snap.User,
		Profile:       snap.Profile,
		RecentTurns:   turns,
		SessionNumber: session.Sequence,
	}, nil
}

// Package cache provides the engine's time-bounded response cache: memoized
// retrieval results, per-user system prompts, and user-context snapshots.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// TTLs holds the per-namespace expiry configuration.
type TTLs struct {
	Knowledge    time.Duration
	SystemPrompt time.Duration
	UserContext  time.Duration
}

// DefaultTTLs mirror the production tuning: retrieval results are stable for
// half an hour, prompts for most of an hour, context snapshots only briefly.
func DefaultTTLs() TTLs {
	return TTLs{
		Knowledge:    30 * time.Minute,
		SystemPrompt: 45 * time.Minute,
		UserContext:  5 * time.Minute,
	}
}

// Cache couples a Store with per-namespace TTLs and the user-invalidation
// contract: profile mutations must clear that user's prompt and context
// entries rather than waiting for expiry.
type Cache struct {
	store Store
	ttls  TTLs
}

// New creates a Cache over the given store.
func New(store Store, ttls TTLs) *Cache {
	return &Cache{store: store, ttls: ttls}
}

// Store returns the underlying store.
func (c *Cache) Store() Store {
	return c.store
}

// TTL returns the configured TTL for a namespace.
func (c *Cache) TTL(ns Namespace) time.Duration {
	switch ns {
	case NamespaceKnowledge:
		return c.ttls.Knowledge
	case NamespaceSystemPrompt:
		return c.ttls.SystemPrompt
	case NamespaceUserContext:
		return c.ttls.UserContext
	default:
		return time.Minute
	}
}

// GetJSON reads a namespaced key into v.
func (c *Cache) GetJSON(ctx context.Context, key Key, v any) error {
	return GetJSON(ctx, c.store, key.String(), v)
}

// SetJSON stores v under a namespaced key with the namespace's TTL.
func (c *Cache) SetJSON(ctx context.Context, key Key, v any) error {
	ns := key.ns
	return SetJSON(ctx, c.store, key.String(), v, c.TTL(ns))
}

// InvalidateUser removes the user's system-prompt and user-context entries.
// Called whenever memory extraction mutates the profile, so personalization
// never lags behind a stated preference within the TTL window.
func (c *Cache) InvalidateUser(ctx context.Context, userID uuid.UUID) error {
	errPrompt := c.store.DeletePrefix(ctx, UserPrefix(NamespaceSystemPrompt, userID))
	errContext := c.store.DeletePrefix(ctx, UserPrefix(NamespaceUserContext, userID))
	return errors.Join(errPrompt, errContext)
}

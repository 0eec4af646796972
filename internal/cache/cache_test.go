package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestMemoryStore_GetSetExpiry(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	// Empty cache is a miss
	if _, err := store.Get(ctx, "k"); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss on empty cache, got %v", err)
	}

	// Immediately after set, get returns the value
	if err := store.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	val, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if val != "v" {
		t.Errorf("expected %q, got %q", "v", val)
	}

	// After the TTL has elapsed, it is a miss again
	now := time.Now()
	store.SetClock(func() time.Time { return now.Add(2 * time.Minute) })
	if _, err := store.Get(ctx, "k"); !errors.Is(err, ErrMiss) {
		t.Errorf("expected ErrMiss after TTL elapsed, got %v", err)
	}
}

func TestMemoryStore_NoExpiry(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Set(ctx, "k", "v", 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	now := time.Now()
	store.SetClock(func() time.Time { return now.Add(24 * time.Hour) })
	if _, err := store.Get(ctx, "k"); err != nil {
		t.Errorf("expected zero-TTL entry to survive, got %v", err)
	}
}

func TestKey_DeterministicAndNamespaced(t *testing.T) {
	t.Parallel()

	k1 := NewKey(NamespaceKnowledge).Text("What is HIIT?").Part("exercise")
	k2 := NewKey(NamespaceKnowledge).Text("  what is hiit?  ").Part("exercise")
	if k1.String() != k2.String() {
		t.Errorf("normalized queries should produce identical keys: %q vs %q", k1, k2)
	}

	k3 := NewKey(NamespaceSystemPrompt).Text("What is HIIT?").Part("exercise")
	if k1.String() == k3.String() {
		t.Error("same components in different namespaces must not collide")
	}
}

func TestKey_UserAndDay(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	day := time.Date(2025, 3, 14, 23, 59, 0, 0, time.UTC)
	key := NewKey(NamespaceSystemPrompt).User(userID).Day(day).Part("ko")

	want := "sysprompt:" + userID.String() + ":2025-03-14:ko"
	if key.String() != want {
		t.Errorf("expected %q, got %q", want, key.String())
	}
}

func TestCache_InvalidateUser(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	c := New(store, DefaultTTLs())
	ctx := context.Background()
	userID := uuid.New()
	otherID := uuid.New()

	promptKey := NewKey(NamespaceSystemPrompt).User(userID).Day(time.Now()).Part("en")
	contextKey := NewKey(NamespaceUserContext).User(userID)
	otherKey := NewKey(NamespaceUserContext).User(otherID)
	knowledgeKey := NewKey(NamespaceKnowledge).Text("protein intake")

	for _, k := range []Key{promptKey, contextKey, otherKey, knowledgeKey} {
		if err := c.SetJSON(ctx, k, "cached"); err != nil {
			t.Fatalf("SetJSON failed: %v", err)
		}
	}

	if err := c.InvalidateUser(ctx, userID); err != nil {
		t.Fatalf("InvalidateUser failed: %v", err)
	}

	var v string
	if err := c.GetJSON(ctx, promptKey, &v); !errors.Is(err, ErrMiss) {
		t.Error("expected user's system prompt entry to be invalidated")
	}
	if err := c.GetJSON(ctx, contextKey, &v); !errors.Is(err, ErrMiss) {
		t.Error("expected user's context entry to be invalidated")
	}
	if err := c.GetJSON(ctx, otherKey, &v); err != nil {
		t.Errorf("other user's entries must survive: %v", err)
	}
	if err := c.GetJSON(ctx, knowledgeKey, &v); err != nil {
		t.Errorf("knowledge entries are not user-scoped and must survive: %v", err)
	}
}

func TestCache_TTLPerNamespace(t *testing.T) {
	t.Parallel()

	c := New(NewMemoryStore(), TTLs{
		Knowledge:    30 * time.Minute,
		SystemPrompt: 45 * time.Minute,
		UserContext:  5 * time.Minute,
	})

	if got := c.TTL(NamespaceKnowledge); got != 30*time.Minute {
		t.Errorf("knowledge TTL: expected 30m, got %v", got)
	}
	if got := c.TTL(NamespaceUserContext); got != 5*time.Minute {
		t.Errorf("user context TTL: expected 5m, got %v", got)
	}
}

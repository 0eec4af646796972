package database

import (
	"testing"

	"github.com/google/uuid"
)

// Note: full integration testing of GetOrCreateActive requires a database.
// This test focuses on the advisory-lock key derivation.
func TestUserLockKey(t *testing.T) {
	t.Parallel()

	userA := uuid.New()
	userB := uuid.New()

	if userLockKey(userA) != userLockKey(userA) {
		t.Error("Expected lock key to be stable for the same user")
	}

	if userLockKey(userA) == userLockKey(userB) {
		t.Error("Expected different users to map to different lock keys")
	}
}

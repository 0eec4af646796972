package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Namespace partitions cache entries by what derived them. Entries are pure
// derived data in every namespace: deleting one can only force recomputation.
type Namespace string

const (
	// NamespaceKnowledge memoizes knowledge-search results (~30 min)
	NamespaceKnowledge Namespace = "knowledge"
	// NamespaceSystemPrompt memoizes composed system prompts per user+day
	NamespaceSystemPrompt Namespace = "sysprompt"
	// NamespaceUserContext memoizes per-user context snapshots (~5 min)
	NamespaceUserContext Namespace = "usercontext"
)

// Key is a typed cache key: a namespace plus ordered components, joined with
// an unambiguous separator. Building keys through this type instead of ad-hoc
// string concatenation avoids collision bugs between namespaces.
type Key struct {
	ns    Namespace
	parts []string
}

// NewKey starts a key in the given namespace.
func NewKey(ns Namespace) Key {
	return Key{ns: ns}
}

// Text appends a normalized (lowercased, trimmed, hashed) text component.
// Hashing keeps arbitrary user text out of key space and bounds key length.
func (k Key) Text(text string) Key {
	normalized := strings.ToLower(strings.TrimSpace(text))
	sum := sha256.Sum256([]byte(normalized))
	k.parts = append(k.parts, hex.EncodeToString(sum[:])[:16])
	return k
}

// User appends a user ID component.
func (k Key) User(id uuid.UUID) Key {
	k.parts = append(k.parts, id.String())
	return k
}

// Part appends a literal component.
func (k Key) Part(s string) Key {
	k.parts = append(k.parts, s)
	return k
}

// Day appends the calendar day of t in UTC.
func (k Key) Day(t time.Time) Key {
	k.parts = append(k.parts, t.UTC().Format("2006-01-02"))
	return k
}

// String renders the full key, namespace first.
func (k Key) String() string {
	elems := make([]string, 0, len(k.parts)+1)
	elems = append(elems, string(k.ns))
	elems = append(elems, k.parts...)
	return strings.Join(elems, ":")
}

// UserPrefix returns the key prefix covering every entry in ns that belongs
// to the given user. Used for proactive invalidation on profile mutation.
func UserPrefix(ns Namespace, id uuid.UUID) string {
	return string(ns) + ":" + id.String()
}

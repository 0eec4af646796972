package knowledge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fitmind/assistant/internal/cache"
	"github.com/fitmind/assistant/internal/models"
)

func TestShouldRetrieve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		text     string
		category models.Category
		want     bool
	}{
		{"categorized text", "how do I squat", models.CategoryExercise, true},
		{"uncategorized small talk", "how was your day", models.CategoryNone, false},
		{"trigger word without category", "any good Protein sources?", models.CategoryNone, true},
		{"korean trigger word", "단백질 보충제 어때", models.CategoryNone, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ShouldRetrieve(tt.text, tt.category); got != tt.want {
				t.Errorf("ShouldRetrieve() = %v, want %v", got, tt.want)
			}
		})
	}
}

func newTestCache() *cache.Cache {
	return cache.New(cache.NewMemoryStore(), cache.DefaultTTLs())
}

func TestRetrieverCachesResults(t *testing.T) {
	t.Parallel()

	embedder := &stubEmbedder{vec: []float32{1, 0}}
	ix := NewIndex(embedder, 0.8, nil)
	if err := ix.Add(doc(models.CategoryExercise, []float32{1, 0})); err != nil {
		t.Fatalf("Add() error: %v", err)
	}

	r := NewRetriever(ix, newTestCache(), time.Second, nil)
	ctx := context.Background()

	first := r.Search(ctx, "squat depth", 3, models.CategoryExercise)
	if len(first) != 1 {
		t.Fatalf("first search got %d documents, want 1", len(first))
	}

	// Break the embedder; a cached result must still come back.
	embedder.err = errors.New("embedding service down")
	embedder.vec = nil

	second := r.Search(ctx, "squat depth", 3, models.CategoryExercise)
	if len(second) != 1 {
		t.Fatalf("cached search got %d documents, want 1", len(second))
	}
}

func TestRetrieverDegradesOnFailure(t *testing.T) {
	t.Parallel()

	ix := NewIndex(&stubEmbedder{err: errors.New("embedding service down")}, 0.8, nil)
	r := NewRetriever(ix, newTestCache(), time.Second, nil)

	got := r.Search(context.Background(), "squat depth", 3, models.CategoryExercise)
	if got == nil || len(got) != 0 {
		t.Fatalf("degraded search = %v, want empty non-nil slice", got)
	}
}

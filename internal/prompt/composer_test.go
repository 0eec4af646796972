package prompt

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/fitmind/assistant/internal/cache"
	"github.com/fitmind/assistant/internal/models"
)

func ptrInt(v int) *int           { return &v }
func ptrFloat(v float64) *float64 { return &v }

func testProfile() *models.UserProfile {
	return &models.UserProfile{
		ID:                uuid.New(),
		UserID:            uuid.New(),
		Age:               ptrInt(32),
		HeightCm:          ptrFloat(170),
		WeightKg:          ptrFloat(70),
		Gender:            models.GenderFemale,
		Allergies:         []string{"peanuts"},
		LikedFoods:        []string{"spicy food"},
		DislikedExercises: []string{"running"},
	}
}

func TestBasePrompt(t *testing.T) {
	t.Parallel()

	got := BasePrompt(testProfile(), "ko")

	for _, want := range []string{
		"BMI: 24.2",
		"Age: 32",
		"Height: 170 cm",
		"peanuts",
		"spicy food",
		"running",
		"recall and restate",
		"respond in Korean",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q:\n%s", want, got)
		}
	}
}

func TestBasePromptOmitsUnknownFacts(t *testing.T) {
	t.Parallel()

	got := BasePrompt(&models.UserProfile{Gender: models.GenderUnspecified}, "en")
	for _, absent := range []string{"BMI", "Age:", "Gender:", "Diseases:"} {
		if strings.Contains(got, absent) {
			t.Errorf("prompt should not contain %q without data:\n%s", absent, got)
		}
	}
	if !strings.Contains(got, "respond in English") {
		t.Error("language pin missing")
	}
}

func TestKnowledgeSection(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("protein intake guidance ", 20) // > SnippetBudget
	docs := []models.ScoredDocument{
		{Text: "Snippet one.", SourceTag: "who", Category: models.CategoryExercise},
		{Text: long, SourceTag: "rda", Category: models.CategoryNutrition},
		{Text: "Snippet three, dropped.", Category: models.CategoryGeneral},
	}

	got := KnowledgeSection(docs)
	if strings.Contains(got, "dropped") {
		t.Error("more than two snippets included")
	}
	if !strings.Contains(got, "[who]") {
		t.Error("source tag missing")
	}
	if !strings.Contains(got, "...") {
		t.Error("long snippet not truncated with ellipsis")
	}
	for _, line := range strings.Split(got, "\n") {
		if len([]rune(line)) > SnippetBudget+20 {
			t.Errorf("line exceeds snippet budget: %d runes", len([]rune(line)))
		}
	}

	if KnowledgeSection(nil) != "" {
		t.Error("empty doc set should produce no section")
	}
}

func TestComposeCachesBasePerUserDayLanguage(t *testing.T) {
	t.Parallel()

	c := cache.New(cache.NewMemoryStore(), cache.DefaultTTLs())
	cp := NewComposer(c, nil)
	fixed := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	cp.SetClock(func() time.Time { return fixed })

	profile := testProfile()
	userCtx := &models.UserContext{
		User:    &models.User{ID: profile.UserID},
		Profile: profile,
	}
	ctx := context.Background()

	first := cp.Compose(ctx, userCtx, nil, "en")

	// Mutate the profile without invalidating; the cached base must win
	// until invalidation or day rollover.
	profile.LikedFoods = append(profile.LikedFoods, "kimchi")
	second := cp.Compose(ctx, userCtx, nil, "en")
	if first != second {
		t.Error("expected cached base prompt within the same day")
	}

	// Explicit invalidation picks up the mutation.
	if err := c.InvalidateUser(ctx, profile.UserID); err != nil {
		t.Fatalf("InvalidateUser() error: %v", err)
	}
	third := cp.Compose(ctx, userCtx, nil, "en")
	if !strings.Contains(third, "kimchi") {
		t.Error("prompt after invalidation should include the new preference")
	}

	// A different language is a different key.
	korean := cp.Compose(ctx, userCtx, nil, "ko")
	if !strings.Contains(korean, "respond in Korean") {
		t.Error("language variant not composed separately")
	}
}

func TestComposeAppendsSnippetsUncached(t *testing.T) {
	t.Parallel()

	c := cache.New(cache.NewMemoryStore(), cache.DefaultTTLs())
	cp := NewComposer(c, nil)

	profile := testProfile()
	userCtx := &models.UserContext{
		User:    &models.User{ID: profile.UserID},
		Profile: profile,
	}
	ctx := context.Background()

	plain := cp.Compose(ctx, userCtx, nil, "en")
	grounded := cp.Compose(ctx, userCtx, []models.ScoredDocument{
		{Text: "Aim for 150 minutes of aerobic activity weekly.", SourceTag: "who"},
	}, "en")

	if plain == grounded {
		t.Error("snippets must vary the prompt even with a cached base")
	}
	if !strings.Contains(grounded, "Reference material") {
		t.Error("knowledge section missing")
	}
}

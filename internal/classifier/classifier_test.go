package classifier

import (
	"testing"

	"github.com/fitmind/assistant/internal/models"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	c := New()

	tests := []struct {
		name     string
		text     string
		expected models.Category
	}{
		{
			name:     "exercise keywords",
			text:     "What workout should I do at the gym today?",
			expected: models.CategoryExercise,
		},
		{
			name:     "nutrition keywords",
			text:     "How much protein should I eat per meal?",
			expected: models.CategoryNutrition,
		},
		{
			name:     "health keywords",
			text:     "I have high blood pressure, what should I watch for?",
			expected: models.CategoryHealth,
		},
		{
			name:     "korean exercise keywords",
			text:     "오늘 어떤 운동을 하면 좋을까요?",
			expected: models.CategoryExercise,
		},
		{
			name:     "korean nutrition keywords",
			text:     "단백질은 얼마나 먹어야 하나요?",
			expected: models.CategoryNutrition,
		},
		{
			name:     "no keywords",
			text:     "Tell me a joke",
			expected: models.CategoryNone,
		},
		{
			name:     "empty text",
			text:     "",
			expected: models.CategoryNone,
		},
		{
			name:     "higher count wins",
			text:     "I eat food and snack on protein but mostly I think about my workout",
			expected: models.CategoryNutrition,
		},
		{
			name:     "tie goes to first registered category",
			text:     "exercise food",
			expected: models.CategoryExercise,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := c.Classify(tt.text); got != tt.expected {
				t.Errorf("Classify(%q) = %q, expected %q", tt.text, got, tt.expected)
			}
		})
	}
}

func TestClassify_Deterministic(t *testing.T) {
	t.Parallel()

	c := New()
	text := "protein shake after a gym workout"

	first := c.Classify(text)
	for i := 0; i < 10; i++ {
		if got := c.Classify(text); got != first {
			t.Fatalf("Classify is not deterministic: got %q then %q", first, got)
		}
	}
}

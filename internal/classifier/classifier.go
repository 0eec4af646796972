// Package classifier maps free text to a coarse topic category by keyword
// scoring. It is pure and cheap enough to run on every turn.
package classifier

import (
	"strings"

	"github.com/fitmind/assistant/internal/models"
)

// categoryKeywords pairs a category with its keyword set. Order matters:
// ties are broken in favor of the earlier-registered category.
type categoryKeywords struct {
	category models.Category
	keywords []string
}

// Classifier scores text against configured keyword sets.
type Classifier struct {
	categories []categoryKeywords
}

// New creates a classifier with the default health-domain categories.
func New() *Classifier {
	return &Classifier{
		categories: []categoryKeywords{
			{
				category: models.CategoryExercise,
				keywords: []string{
					"workout", "exercise", "training", "gym", "run", "running",
					"squat", "push-up", "pushup", "cardio", "stretch", "yoga",
					"muscle", "strength", "hiit", "pilates",
					"운동", "헬스", "스쿼트", "근육", "스트레칭", "유산소",
				},
			},
			{
				category: models.CategoryNutrition,
				keywords: []string{
					"food", "eat", "eating", "meal", "diet", "calorie", "calories",
					"protein", "carb", "carbs", "vitamin", "nutrition", "snack",
					"breakfast", "lunch", "dinner", "recipe",
					"음식", "식단", "먹", "칼로리", "단백질", "영양", "식사",
				},
			},
			{
				category: models.CategoryHealth,
				keywords: []string{
					"health", "disease", "symptom", "pain", "doctor", "medicine",
					"medication", "blood", "pressure", "diabetes", "allergy",
					"sleep", "stress", "injury", "treatment",
					"건강", "질병", "증상", "통증", "병원", "약", "혈압", "당뇨", "수면",
				},
			},
		},
	}
}

// Classify returns the category with the strictly highest non-zero keyword
// score, ties broken by registration order, or CategoryNone when nothing
// matches. Deterministic for a given input.
func (c *Classifier) Classify(text string) models.Category {
	lowered := strings.ToLower(text)

	best := models.CategoryNone
	bestScore := 0
	for _, entry := range c.categories {
		score := 0
		for _, kw := range entry.keywords {
			score += strings.Count(lowered, kw)
		}
		if score > bestScore {
			best = entry.category
			bestScore = score
		}
	}
	return best
}

package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/fitmind/assistant/internal/models"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

var supportedLanguages = map[string]bool{
	"en": true,
	"ko": true,
	"ja": true,
	"zh": true,
	"es": true,
}

func init() {
	Validate = validator.New()

	// Register custom validators for enums
	// These should never fail in normal operation, but log if they do
	if err := Validate.RegisterValidation("language_code", validateLanguageCode); err != nil {
		panic(fmt.Sprintf("failed to register language_code validator: %v", err))
	}
	if err := Validate.RegisterValidation("category", validateCategory); err != nil {
		panic(fmt.Sprintf("failed to register category validator: %v", err))
	}
}

// validateLanguageCode validates that a string is a supported language code.
// Empty values pass so the field can default to the user's language.
func validateLanguageCode(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return supportedLanguages[value]
}

// validateCategory validates that a string is a valid Category enum value
func validateCategory(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	switch models.Category(value) {
	case models.CategoryExercise, models.CategoryNutrition, models.CategoryHealth, models.CategoryGeneral:
		return true
	default:
		return false
	}
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	// Trim whitespace
	text = strings.TrimSpace(text)

	// Remove control characters except newline and tab
	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidateCategory validates a Category string value
func ValidateCategory(value string) error {
	switch models.Category(value) {
	case models.CategoryExercise, models.CategoryNutrition, models.CategoryHealth, models.CategoryGeneral:
		return nil
	default:
		return fmt.Errorf("invalid category: %s (must be 'exercise', 'nutrition', 'health', or 'general')", value)
	}
}

// Package prompt assembles per-user system prompts from profile facts,
// extracted memory, and retrieved knowledge snippets.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fitmind/assistant/internal/cache"
	"github.com/fitmind/assistant/internal/models"
)

const (
	// MaxSnippets is the most knowledge snippets a prompt may carry.
	MaxSnippets = 2
	// SnippetBudget is the character cap per snippet before truncation.
	SnippetBudget = 240
	// PromptBudget is the hard character cap on the composed prompt.
	PromptBudget = 4000
)

var languageNames = map[string]string{
	"en": "English",
	"ko": "Korean",
	"ja": "Japanese",
	"zh": "Chinese",
	"es": "Spanish",
}

// Composer builds system prompts and memoizes the profile-derived base per
// user, calendar day, and language. Snippet sections vary per turn and are
// never cached.
type Composer struct {
	cache  *cache.Cache
	logger *zap.Logger
	now    func() time.Time
}

// NewComposer creates a Composer over c.
func NewComposer(c *cache.Cache, logger *zap.Logger) *Composer {
	return &Composer{
		cache:  c,
		logger: logger,
		now:    time.Now,
	}
}

// SetClock overrides the clock, for tests.
func (cp *Composer) SetClock(now func() time.Time) {
	cp.now = now
}

// Compose returns the full system prompt for one turn.
func (cp *Composer) Compose(ctx context.Context, userCtx *models.UserContext, docs []models.ScoredDocument, language string) string {
	base := cp.basePrompt(ctx, userCtx, language)

	section := KnowledgeSection(docs)
	if section == "" {
		return clamp(base, PromptBudget)
	}
	return clamp(base+"\n\n"+section, PromptBudget)
}

// basePrompt returns the profile-derived prompt text, cached per
// (user, calendar day, language).
func (cp *Composer) basePrompt(ctx context.Context, userCtx *models.UserContext, language string) string {
	key := cache.NewKey(cache.NamespaceSystemPrompt).
		User(userCtx.User.ID).
		Day(cp.now()).
		Part(language)

	var cached string
	if err := cp.cache.GetJSON(ctx, key, &cached); err == nil {
		return cached
	} else if !errors.Is(err, cache.ErrMiss) && cp.logger != nil {
		cp.logger.Warn("prompt_cache_read_failed", zap.Error(err))
	}

	base := BasePrompt(userCtx.Profile, language)
	if err := cp.cache.SetJSON(ctx, key, base); err != nil && cp.logger != nil {
		cp.logger.Warn("prompt_cache_write_failed", zap.Error(err))
	}
	return base
}

// BasePrompt renders the profile-derived portion of the system prompt. It is
// deterministic for a given profile and language.
func BasePrompt(profile *models.UserProfile, language string) string {
	var b strings.Builder
	b.WriteString("You are a personal health and fitness assistant. ")
	b.WriteString("Give practical, evidence-based advice tailored to the user below. ")
	b.WriteString("For medical concerns, recommend consulting a professional.\n")

	b.WriteString("\nUser profile:\n")
	if profile != nil {
		if profile.Age != nil {
			fmt.Fprintf(&b, "- Age: %d\n", *profile.Age)
		}
		if profile.Gender != "" && profile.Gender != models.GenderUnspecified {
			fmt.Fprintf(&b, "- Gender: %s\n", profile.Gender)
		}
		if profile.HeightCm != nil {
			fmt.Fprintf(&b, "- Height: %.0f cm\n", *profile.HeightCm)
		}
		if profile.WeightKg != nil {
			fmt.Fprintf(&b, "- Weight: %.0f kg\n", *profile.WeightKg)
		}
		if bmi, ok := profile.BMI(); ok {
			fmt.Fprintf(&b, "- BMI: %.1f\n", bmi)
		}
		writeList(&b, "Diseases", profile.Diseases)
		writeList(&b, "Allergies", profile.Allergies)
		writeList(&b, "Liked foods", profile.LikedFoods)
		writeList(&b, "Disliked foods", profile.DislikedFoods)
		writeList(&b, "Liked exercises", profile.LikedExercises)
		writeList(&b, "Disliked exercises", profile.DislikedExercises)
		writeList(&b, "Notes", profile.Facts)
	}

	b.WriteString("\nWhen the user asks what they like, dislike, or previously told you, ")
	b.WriteString("recall and restate the preferences listed above instead of saying you do not know.\n")

	name := languageNames[strings.ToLower(language)]
	if name == "" {
		name = language
	}
	if name != "" {
		fmt.Fprintf(&b, "\nAlways respond in %s.\n", name)
	}
	return b.String()
}

// writeList appends a labeled, comma-joined bullet for items, or nothing
// when the list is empty.
func writeList(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "- %s: %s\n", label, strings.Join(items, ", "))
}

// KnowledgeSection renders up to MaxSnippets retrieved snippets, each
// truncated to SnippetBudget characters.
func KnowledgeSection(docs []models.ScoredDocument) string {
	if len(docs) == 0 {
		return ""
	}
	if len(docs) > MaxSnippets {
		docs = docs[:MaxSnippets]
	}

	var b strings.Builder
	b.WriteString("Reference material (use when relevant, do not quote verbatim):\n")
	for _, doc := range docs {
		fmt.Fprintf(&b, "- %s", clamp(doc.Text, SnippetBudget))
		if doc.SourceTag != "" {
			fmt.Fprintf(&b, " [%s]", doc.SourceTag)
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

// clamp truncates s to limit runes, appending an ellipsis when it cut.
func clamp(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

// Package selector decides which LLM tier a turn should use. The decision is
// pure and stateless: category, message length, and a few complexity
// patterns.
package selector

import (
	"regexp"
	"strings"

	"github.com/fitmind/assistant/internal/models"
)

// Tier identifies an LLM capability tier.
type Tier string

const (
	// TierFast is the cheaper, lower-latency tier
	TierFast Tier = "fast"
	// TierSmart is the higher-capability tier
	TierSmart Tier = "smart"
)

// DefaultWordThreshold is the word count above which the smart tier is used.
const DefaultWordThreshold = 20

// complexPatterns match question shapes that need the stronger model:
// comparative reasoning, cause-and-effect phrasing, treatment vocabulary.
var complexPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(compare|versus|vs\.?|better than|difference between)\b`),
	regexp.MustCompile(`(?i)\bwhy\b.*\bhow\b`),
	regexp.MustCompile(`(?i)\b(treatment|diagnosis|prescription|side effects?)\b`),
	regexp.MustCompile(`비교|차이점|치료|처방|부작용`),
}

// Selector selects LLM tiers per turn.
type Selector struct {
	wordThreshold int
}

// New creates a selector with the default word threshold.
func New() *Selector {
	return &Selector{wordThreshold: DefaultWordThreshold}
}

// NewWithThreshold creates a selector with a custom word threshold.
func NewWithThreshold(threshold int) *Selector {
	if threshold <= 0 {
		threshold = DefaultWordThreshold
	}
	return &Selector{wordThreshold: threshold}
}

// Select returns the tier for a message: smart when the category is
// health/medical, the message is long, or a complexity pattern matches;
// fast otherwise.
func (s *Selector) Select(text string, category models.Category) Tier {
	if category == models.CategoryHealth {
		return TierSmart
	}
	if len(strings.Fields(text)) > s.wordThreshold {
		return TierSmart
	}
	for _, p := range complexPatterns {
		if p.MatchString(text) {
			return TierSmart
		}
	}
	return TierFast
}

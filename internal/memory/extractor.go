package memory

import (
	"strings"

	"github.com/fitmind/assistant/internal/models"
)

// Delta is the result of extraction: additions to the four preference lists
// plus free-text facts. Extraction never removes anything directly; removals
// happen only as the move half of Apply's move semantics.
type Delta struct {
	LikedFoods        []string
	DislikedFoods     []string
	LikedExercises    []string
	DislikedExercises []string
	Facts             []string
}

// IsEmpty reports whether the delta carries no changes.
func (d Delta) IsEmpty() bool {
	return len(d.LikedFoods) == 0 && len(d.DislikedFoods) == 0 &&
		len(d.LikedExercises) == 0 && len(d.DislikedExercises) == 0 &&
		len(d.Facts) == 0
}

// Extract scans text for preference cues and returns the delta they imply.
// Best effort: missed preferences are acceptable, invented ones are not, so
// only items recognized by a lexicon are ever emitted.
func Extract(text string) Delta {
	var d Delta
	if strings.TrimSpace(text) == "" {
		return d
	}

	for _, rule := range cueRules {
		for _, match := range rule.pattern.FindAllStringSubmatch(text, -1) {
			phrase := strings.ToLower(strings.TrimSpace(match[1]))
			if phrase == "" {
				continue
			}
			d.addPhrase(phrase, rule.polarity)
		}
	}

	for _, p := range factPatterns {
		for _, match := range p.FindAllStringSubmatch(text, -1) {
			fact := strings.TrimSpace(match[0])
			if fact != "" && !contains(d.Facts, fact) {
				d.Facts = append(d.Facts, fact)
			}
		}
	}

	return d
}

// addPhrase resolves the object phrase of a cue against the facet lexicons
// and records every recognized item under the cue's polarity.
func (d *Delta) addPhrase(phrase string, polarity Polarity) {
	for _, item := range foodLexicon {
		if containsItem(phrase, item) {
			d.addItem(models.FacetFood, polarity, item)
		}
	}
	for _, item := range exerciseLexicon {
		if containsItem(phrase, item) {
			d.addItem(models.FacetExercise, polarity, item)
		}
	}
	for _, attr := range tasteLexicon {
		if containsItem(phrase, attr) {
			d.addItem(models.FacetFood, polarity, tasteItem(attr))
		}
	}
}

func (d *Delta) addItem(facet models.PreferenceFacet, polarity Polarity, item string) {
	var list *[]string
	switch {
	case facet == models.FacetFood && polarity == Like:
		list = &d.LikedFoods
	case facet == models.FacetFood && polarity == Dislike:
		list = &d.DislikedFoods
	case facet == models.FacetExercise && polarity == Like:
		list = &d.LikedExercises
	default:
		list = &d.DislikedExercises
	}
	if !contains(*list, item) {
		*list = append(*list, item)
	}
}

// containsItem matches a lexicon item inside a phrase. ASCII items require
// word boundaries so "rice" does not match inside "price"; Hangul items use
// substring matching since Korean particles attach directly to the noun.
func containsItem(phrase, item string) bool {
	idx := strings.Index(phrase, item)
	if idx < 0 {
		return false
	}
	if item[0] < 0x80 {
		before := idx - 1
		after := idx + len(item)
		if before >= 0 && isWordByte(phrase[before]) {
			return false
		}
		if after < len(phrase) && isWordByte(phrase[after]) {
			return false
		}
	}
	return true
}

func isWordByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func contains(list []string, item string) bool {
	for _, v := range list {
		if v == item {
			return true
		}
	}
	return false
}

// Package memory derives durable user preference facts from conversation
// text and folds them into the stored profile. Extraction is a pure function
// from text to a delta; applying the delta is the only code path that
// mutates a UserProfile.
package memory

import (
	"regexp"
)

// Polarity says whether a cue expresses liking or disliking.
type Polarity int

const (
	// Like marks a positive preference cue
	Like Polarity = iota
	// Dislike marks a negative preference cue
	Dislike
)

// cueRule is one row of the declarative extraction table: a pattern whose
// first capture group is the object phrase, plus the polarity it expresses.
// New cues are added here without touching the extraction control flow.
type cueRule struct {
	pattern  *regexp.Regexp
	polarity Polarity
}

// The object phrase capture is deliberately loose; the lexicons below decide
// what inside the phrase is actually a food, exercise, or taste attribute.
var cueRules = []cueRule{
	// English, positive
	{regexp.MustCompile(`(?i)\bi (?:really |absolutely )?(?:like|love|enjoy|prefer)\s+([\p{L} '-]{2,60})`), Like},
	{regexp.MustCompile(`(?i)\bi often (?:eat|have|do|drink)\s+([\p{L} '-]{2,60})`), Like},
	{regexp.MustCompile(`(?i)\bmy favou?rite [\p{L}]+ is\s+([\p{L} '-]{2,60})`), Like},
	// English, negative
	{regexp.MustCompile(`(?i)\bi (?:really )?(?:dislike|hate|avoid)\s+([\p{L} '-]{2,60})`), Dislike},
	{regexp.MustCompile(`(?i)\bi (?:can't|cannot|don't|do not) (?:eat|stand|do)\s+([\p{L} '-]{2,60})`), Dislike},
	{regexp.MustCompile(`(?i)\bi rarely (?:eat|have|do|drink)\s+([\p{L} '-]{2,60})`), Dislike},
	// Korean, positive: "~을/를 좋아해요", "~ 자주 먹어요"
	{regexp.MustCompile(`([\p{Hangul}\p{L} ]{1,30}?)(?:을|를|이|가)?\s*(?:정말 |너무 )?좋아(?:해|합니다|해요|함)`), Like},
	{regexp.MustCompile(`([\p{Hangul}\p{L} ]{1,30}?)(?:을|를)?\s*자주 (?:먹|마셔|해)`), Like},
	// Korean, negative: "~을/를 싫어해요", "~ 못 먹어요"
	{regexp.MustCompile(`([\p{Hangul}\p{L} ]{1,30}?)(?:을|를|이|가)?\s*(?:정말 |너무 )?싫어(?:해|합니다|해요|함)`), Dislike},
	{regexp.MustCompile(`([\p{Hangul}\p{L} ]{1,30}?)(?:을|를)?\s*못 먹`), Dislike},
}

// facetLexicons map recognized items inside an object phrase to their facet.
// Taste attributes are folded into the food facet as "<attribute> food".
var foodLexicon = []string{
	"chicken", "beef", "pork", "fish", "salmon", "tuna", "egg", "eggs",
	"rice", "bread", "pasta", "noodles", "ramen", "pizza", "salad",
	"vegetables", "broccoli", "carrots", "tofu", "beans", "nuts", "cheese",
	"milk", "yogurt", "fruit", "apples", "bananas", "berries", "coffee",
	"tea", "chocolate", "seafood", "shrimp", "kimchi", "bibimbap",
	"치킨", "닭가슴살", "소고기", "돼지고기", "생선", "계란", "밥", "빵",
	"파스타", "라면", "피자", "샐러드", "야채", "채소", "두부", "콩",
	"견과류", "치즈", "우유", "요거트", "과일", "사과", "바나나", "커피",
	"김치", "비빔밥", "해산물",
}

var exerciseLexicon = []string{
	"running", "jogging", "swimming", "cycling", "walking", "hiking",
	"yoga", "pilates", "weightlifting", "lifting", "squats", "push-ups",
	"pushups", "planks", "hiit", "crossfit", "boxing", "climbing",
	"stretching", "cardio", "tennis", "basketball", "soccer",
	"달리기", "조깅", "수영", "자전거", "걷기", "등산", "요가", "필라테스",
	"웨이트", "스쿼트", "푸쉬업", "플랭크", "복싱", "클라이밍", "스트레칭",
	"테니스", "농구", "축구", "운동",
}

var tasteLexicon = []string{
	"spicy", "sweet", "salty", "sour", "bitter", "greasy", "oily",
	"매운", "매콤한", "달콤한", "짭짤한", "기름진",
}

// factPatterns capture standalone facts worth keeping verbatim, such as
// allergies and diagnosed conditions mentioned in passing.
var factPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bi(?:'m| am) allergic to\s+([\p{L} '-]{2,60})`),
	regexp.MustCompile(`(?i)\bi have (?:been diagnosed with\s+)?(diabetes|hypertension|asthma|anemia|arthritis)\b`),
	regexp.MustCompile(`([\p{Hangul} ]{1,20}?)\s*알레르기가? 있`),
	regexp.MustCompile(`(당뇨|고혈압|천식|빈혈|관절염)(?:병|이|가)?\s*있`),
}

// tasteItem renders a taste attribute as a food-facet preference item.
func tasteItem(attribute string) string {
	return attribute + " food"
}

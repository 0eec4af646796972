package engine

import (
	"strings"
	"unicode"
)

// cannedKind groups trivial inputs that short-circuit the turn.
type cannedKind int

const (
	cannedGreeting cannedKind = iota
	cannedThanks
	cannedFarewell
)

// cannedInputs maps normalized trivial phrases to their kind. Matching is
// exact after normalization; anything longer goes through the full pipeline.
var cannedInputs = map[string]cannedKind{
	"hi":           cannedGreeting,
	"hello":        cannedGreeting,
	"hey":          cannedGreeting,
	"good morning": cannedGreeting,
	"good evening": cannedGreeting,
	"안녕":           cannedGreeting,
	"안녕하세요":        cannedGreeting,
	"하이":           cannedGreeting,

	"thanks":    cannedThanks,
	"thank you": cannedThanks,
	"thx":       cannedThanks,
	"고마워":       cannedThanks,
	"고마워요":      cannedThanks,
	"감사합니다":     cannedThanks,
	"감사해요":      cannedThanks,

	"bye":       cannedFarewell,
	"goodbye":   cannedFarewell,
	"good bye":  cannedFarewell,
	"see you":   cannedFarewell,
	"잘가":        cannedFarewell,
	"잘 가":       cannedFarewell,
	"안녕히 계세요":   cannedFarewell,
	"다음에 봐요":    cannedFarewell,
}

var cannedReplies = map[cannedKind]map[string]string{
	cannedGreeting: {
		"en": "Hello! How can I help you with your health and fitness today?",
		"ko": "안녕하세요! 오늘 건강이나 운동에 대해 무엇을 도와드릴까요?",
	},
	cannedThanks: {
		"en": "You're welcome! Let me know if there's anything else.",
		"ko": "천만에요! 더 궁금한 것이 있으면 말씀해 주세요.",
	},
	cannedFarewell: {
		"en": "Take care! Keep up the good work.",
		"ko": "안녕히 가세요! 건강 잘 챙기세요.",
	},
}

// CheckCanned returns a fixed reply for trivial greeting, thanks, and
// farewell inputs, bypassing retrieval and the LLM entirely.
func CheckCanned(text, language string) (string, bool) {
	kind, ok := cannedInputs[normalizeCanned(text)]
	if !ok {
		return "", false
	}

	replies := cannedReplies[kind]
	lang := strings.ToLower(language)
	if reply, ok := replies[lang]; ok {
		return reply, true
	}
	return replies["en"], true
}

// normalizeCanned lowercases, trims, and strips trailing punctuation so
// "Hello!!" and "hello" hit the same entry.
func normalizeCanned(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = strings.TrimRightFunc(s, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
	return strings.TrimSpace(s)
}

package ai

import "strings"

const (
	previewLength      = 100
	debugPreviewLength = 300
)

// SanitizePrompt returns a truncated single-line preview of a prompt safe
// for logging. Full prompts carry user health data and never hit the logs;
// debug mode allows a longer preview.
func SanitizePrompt(prompt string, debugMode bool) string {
	limit := previewLength
	if debugMode {
		limit = debugPreviewLength
	}
	return preview(prompt, limit)
}

// SanitizeResponse returns a truncated single-line preview of a model
// response safe for logging.
func SanitizeResponse(response string, debugMode bool) string {
	limit := previewLength
	if debugMode {
		limit = debugPreviewLength
	}
	return preview(response, limit)
}

func preview(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}

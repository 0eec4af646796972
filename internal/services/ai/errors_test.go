package ai

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestIsRateLimitError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"plain error", errors.New("connection refused"), false},
		{"429 in message", errors.New("request failed with status 429"), true},
		{"rate limit text", errors.New("rate limit exceeded"), true},
		{
			"wrapped api error",
			fmt.Errorf("failed to complete: %w", &APIError{StatusCode: 429, Type: "rate_limit_error"}),
			true,
		},
		{
			"quota api error is permanent, not rate limit",
			fmt.Errorf("failed to complete: %w", &APIError{StatusCode: 429, Code: "insufficient_quota", IsPermanent: true}),
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsRateLimitError(tt.err); got != tt.want {
				t.Errorf("IsRateLimitError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsQuotaError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"plain error", errors.New("timeout"), false},
		{"quota text", errors.New("you exceeded your current quota"), true},
		{
			"wrapped api error",
			fmt.Errorf("failed to embed: %w", &APIError{StatusCode: 429, Code: "insufficient_quota", IsPermanent: true}),
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsQuotaError(tt.err); got != tt.want {
				t.Errorf("IsQuotaError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtractAPIError(t *testing.T) {
	t.Parallel()

	t.Run("non-429 returns nil", func(t *testing.T) {
		t.Parallel()
		if got := ExtractAPIError(errors.New("500 internal server error")); got != nil {
			t.Errorf("expected nil, got %+v", got)
		}
	})

	t.Run("quota error body", func(t *testing.T) {
		t.Parallel()
		err := errors.New(`POST "https://api.openai.com/v1/chat/completions": 429 Too Many Requests {"message": "You exceeded your current quota.", "type": "insufficient_quota", "code": "insufficient_quota"}`)
		apiErr := ExtractAPIError(err)
		if apiErr == nil {
			t.Fatal("expected API error")
		}
		if !apiErr.IsPermanent {
			t.Error("quota errors should be permanent")
		}
		if apiErr.Code != "insufficient_quota" {
			t.Errorf("Code = %q, want insufficient_quota", apiErr.Code)
		}
		if apiErr.RetryAfter == nil || *apiErr.RetryAfter != time.Hour {
			t.Errorf("RetryAfter = %v, want 1h", apiErr.RetryAfter)
		}
	})

	t.Run("transient rate limit body", func(t *testing.T) {
		t.Parallel()
		err := errors.New(`429 Too Many Requests {"message": "Rate limit reached.", "type": "requests", "code": "rate_limit_exceeded"}`)
		apiErr := ExtractAPIError(err)
		if apiErr == nil {
			t.Fatal("expected API error")
		}
		if apiErr.IsPermanent {
			t.Error("transient rate limits should not be permanent")
		}
	})
}

func TestGetRetryDelay(t *testing.T) {
	t.Parallel()

	rateLimit := &APIError{StatusCode: 429, Type: "rate_limit_error"}
	quota := &APIError{StatusCode: 429, Code: "insufficient_quota", IsPermanent: true}

	tests := []struct {
		name    string
		err     error
		attempt int
		want    time.Duration
	}{
		{"generic first attempt", errors.New("timeout"), 0, 5 * time.Second},
		{"generic backoff", errors.New("timeout"), 2, 20 * time.Second},
		{"generic capped", errors.New("timeout"), 10, 5 * time.Minute},
		{"rate limit first attempt", rateLimit, 0, 60 * time.Second},
		{"rate limit capped", rateLimit, 6, 15 * time.Minute},
		{"quota first attempt", quota, 0, time.Hour},
		{"quota capped", quota, 8, 24 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := GetRetryDelay(tt.err, tt.attempt); got != tt.want {
				t.Errorf("GetRetryDelay() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSanitizePrompt(t *testing.T) {
	t.Parallel()

	long := ""
	for i := 0; i < 50; i++ {
		long += "sentence "
	}

	if got := SanitizePrompt("hello\nworld", false); got != "hello world" {
		t.Errorf("SanitizePrompt() = %q, want single line", got)
	}
	if got := SanitizePrompt(long, false); len(got) != previewLength+3 {
		t.Errorf("preview length = %d, want %d", len(got), previewLength+3)
	}
	if got := SanitizePrompt(long, true); len(got) != debugPreviewLength+3 {
		t.Errorf("debug preview length = %d, want %d", len(got), debugPreviewLength+3)
	}
}

package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fitmind/assistant/internal/models"
	"github.com/fitmind/assistant/internal/request"
)

func authedRequest(method, target string, body []byte) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	user := &models.User{ID: uuid.New(), Email: "user@example.com", Language: "en"}
	return req.WithContext(request.WithUser(req.Context(), user))
}

func TestAssistantHandler_Answer_Unauthorized(t *testing.T) {
	t.Parallel()

	handler := NewAssistantHandler(nil, zap.NewNop())

	req := httptest.NewRequest("POST", "/assistant/answer", bytes.NewReader([]byte(`{"message":"hi"}`)))
	w := httptest.NewRecorder()

	handler.Answer(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", w.Code)
	}
}

func TestAssistantHandler_Answer_BadRequests(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{
			name: "invalid JSON",
			body: `{"message":`,
		},
		{
			name: "missing message",
			body: `{}`,
		},
		{
			name: "whitespace-only message",
			body: `{"message":"   "}`,
		},
		{
			name: "unsupported language",
			body: `{"message":"hello","language":"xx"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := NewAssistantHandler(nil, zap.NewNop())

			req := authedRequest("POST", "/assistant/answer", []byte(tt.body))
			w := httptest.NewRecorder()

			handler.Answer(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", w.Code)
			}
		})
	}
}

func TestAssistantHandler_History_BadLimit(t *testing.T) {
	t.Parallel()

	handler := NewAssistantHandler(nil, zap.NewNop())

	req := authedRequest("GET", "/assistant/history?limit=abc", nil)
	w := httptest.NewRecorder()

	handler.History(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

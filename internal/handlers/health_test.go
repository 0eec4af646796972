package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubPinger struct {
	err error
}

func (s *stubPinger) Ping(ctx context.Context) error {
	return s.err
}

type stubHealthQueue struct {
	err error
}

func (s *stubHealthQueue) HealthCheck(ctx context.Context) error {
	return s.err
}

func TestHealthChecker_BasicMode(t *testing.T) {
	t.Parallel()

	checker := NewHealthChecker(nil, nil, nil)

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()

	checker.HealthCheck(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var body HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if body.Status != "healthy" {
		t.Errorf("Expected status 'healthy', got '%s'", body.Status)
	}
	if body.Checks != nil {
		t.Errorf("Expected no checks in basic mode, got %v", body.Checks)
	}
}

func TestHealthChecker_ExtendedMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		cacheErr   error
		queueErr   error
		wantStatus int
		wantState  string
	}{
		{
			name:       "all healthy",
			wantStatus: http.StatusOK,
			wantState:  "healthy",
		},
		{
			name:       "cache down",
			cacheErr:   fmt.Errorf("connection refused"),
			wantStatus: http.StatusServiceUnavailable,
			wantState:  "unhealthy",
		},
		{
			name:       "queue down",
			queueErr:   fmt.Errorf("channel closed"),
			wantStatus: http.StatusServiceUnavailable,
			wantState:  "unhealthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			checker := NewHealthChecker(nil, &stubPinger{err: tt.cacheErr}, &stubHealthQueue{err: tt.queueErr})

			req := httptest.NewRequest("GET", "/healthz?mode=extended", nil)
			w := httptest.NewRecorder()

			checker.HealthCheck(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}

			var body HealthResponse
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}

			if body.Status != tt.wantState {
				t.Errorf("Expected status '%s', got '%s'", tt.wantState, body.Status)
			}
			if _, ok := body.Checks["cache"]; !ok {
				t.Error("Expected cache check to be present")
			}
			if _, ok := body.Checks["queue"]; !ok {
				t.Error("Expected queue check to be present")
			}
		})
	}
}

package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fitmind/assistant/internal/models"
	"github.com/fitmind/assistant/internal/request"
)

type stubUserLoader struct {
	users map[uuid.UUID]*models.User
}

func (s *stubUserLoader) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user not found: %s", id)
	}
	return u, nil
}

func TestIdentity(t *testing.T) {
	t.Parallel()

	known := &models.User{ID: uuid.New(), Email: "user@example.com", Language: "en"}
	loader := &stubUserLoader{users: map[uuid.UUID]*models.User{known.ID: known}}

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantUser   bool
	}{
		{
			name:       "known user",
			header:     known.ID.String(),
			wantStatus: http.StatusOK,
			wantUser:   true,
		},
		{
			name:       "missing header",
			header:     "",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "malformed ID",
			header:     "not-a-uuid",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "unknown user",
			header:     uuid.New().String(),
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var gotUser *models.User
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser = request.UserFromContext(r)
				w.WriteHeader(http.StatusOK)
			})

			middleware := Identity(loader, zap.NewNop())(handler)

			req := httptest.NewRequest("GET", "/test", nil)
			if tt.header != "" {
				req.Header.Set(UserIDHeader, tt.header)
			}
			w := httptest.NewRecorder()

			middleware.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if tt.wantUser && (gotUser == nil || gotUser.ID != known.ID) {
				t.Errorf("Expected user %s in context, got %v", known.ID, gotUser)
			}
		})
	}
}

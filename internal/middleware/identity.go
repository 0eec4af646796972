package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fitmind/assistant/internal/database"
	"github.com/fitmind/assistant/internal/models"
	"github.com/fitmind/assistant/internal/request"
)

// UserIDHeader carries the authenticated user ID set by the upstream gateway.
const UserIDHeader = "X-User-ID"

// UserLoader resolves a user record by ID.
type UserLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Identity resolves the gateway-authenticated user and attaches it to the
// request context. Requests without a valid user ID are rejected.
func Identity(users UserLoader, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(UserIDHeader)
			if raw == "" {
				respondErrorJSON(w, r, http.StatusUnauthorized, "Unauthorized", "Missing user identity", logger)
				return
			}

			userID, err := uuid.Parse(raw)
			if err != nil {
				respondErrorJSON(w, r, http.StatusUnauthorized, "Unauthorized", "Invalid user identity", logger)
				return
			}

			user, err := users.GetByID(r.Context(), userID)
			if err != nil {
				logger.Warn("identity_lookup_failed",
					zap.String("user_id", userID.String()),
					zap.Error(err),
				)
				respondErrorJSON(w, r, http.StatusUnauthorized, "Unauthorized", "Unknown user", logger)
				return
			}

			next.ServeHTTP(w, r.WithContext(request.WithUser(r.Context(), user)))
		})
	}
}

var _ UserLoader = (database.UserRepositoryInterface)(nil)

package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS builds the cross-origin middleware from a list of allowed origins.
// An empty list disables cross-origin access entirely.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Accept", UserIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	})
	return c.Handler
}

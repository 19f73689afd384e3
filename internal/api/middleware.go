package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/bobarin/voiceclone/internal/logger"
	"github.com/bobarin/voiceclone/internal/models"
)

// APIKeyAuth is middleware that validates requests against a backend API key.
// It checks the X-API-Key header first, then falls back to Authorization: Bearer <key>.
// Failed attempts are logged with the request ID, never with the key.
func APIKeyAuth(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Try X-API-Key header first (preferred for backend-to-backend calls)
			key := r.Header.Get("X-API-Key")

			// Fall back to Authorization: Bearer <key>
			if key == "" {
				authHeader := r.Header.Get("Authorization")
				if strings.HasPrefix(authHeader, "Bearer ") {
					key = strings.TrimPrefix(authHeader, "Bearer ")
				}
			}

			if key == "" {
				logger.Warnf("[API] %s %s rejected: missing API key (req %s)", r.Method, r.URL.Path, middleware.GetReqID(r.Context()))
				respondJSON(w, http.StatusUnauthorized, models.ErrorResponse{
					Error: "Missing API key. Provide X-API-Key header or Authorization: Bearer <key>",
				})
				return
			}

			// Constant-time comparison to prevent timing attacks
			if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
				logger.Warnf("[API] %s %s rejected: invalid API key (req %s)", r.Method, r.URL.Path, middleware.GetReqID(r.Context()))
				respondJSON(w, http.StatusForbidden, models.ErrorResponse{
					Error: "Invalid API key",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

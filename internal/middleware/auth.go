package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"couple-journal-backend/internal/identity"
	"couple-journal-backend/internal/models"

	"github.com/rs/zerolog/log"
)

// TokenValidator turns a bearer token into a session
type TokenValidator interface {
	ValidateJWT(ctx context.Context, token string) (*identity.Session, error)
}

// AuthMiddleware creates a middleware for JWT authentication. The session is
// stored in the request context for identity.SessionFrom.
func AuthMiddleware(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondError(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				respondError(w, "Invalid authorization header format", http.StatusUnauthorized)
				return
			}

			session, err := validator.ValidateJWT(r.Context(), parts[1])
			if err != nil {
				if !models.HasCode(err, models.CodeNotAuthenticated) {
					log.Error().Err(err).Msg("Failed to validate token")
					respondError(w, "Internal server error", http.StatusInternalServerError)
					return
				}
				respondError(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(identity.WithSession(r.Context(), session)))
		})
	}
}

// GetUserID extracts the session subject from context
func GetUserID(ctx context.Context) string {
	session := identity.SessionFrom(ctx)
	if session == nil {
		return ""
	}
	return session.Subject
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	code := models.CodeNotAuthenticated
	if statusCode != http.StatusUnauthorized {
		code = models.CodeInternal
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message, "code": code})
}

// ValidateWebSocketToken validates JWT token from WebSocket query parameter
func ValidateWebSocketToken(ctx context.Context, token string, validator TokenValidator) (*identity.Session, error) {
	if token == "" {
		return nil, models.NewNotAuthenticatedError("token required")
	}
	return validator.ValidateJWT(ctx, token)
}

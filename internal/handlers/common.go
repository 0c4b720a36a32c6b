package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"couple-journal-backend/internal/identity"
	"couple-journal-backend/internal/middleware"
	"couple-journal-backend/internal/models"
	"couple-journal-backend/internal/scope"

	"github.com/rs/zerolog/log"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// StatusFor maps an error code to its HTTP status
func StatusFor(code string) int {
	switch code {
	case models.CodeNotAuthenticated, models.CodeProfileMissing:
		return http.StatusUnauthorized
	case models.CodeValidation:
		return http.StatusBadRequest
	case models.CodeOwnershipViolation:
		return http.StatusForbidden
	case models.CodeNotFound:
		return http.StatusNotFound
	case models.CodeConflict:
		return http.StatusConflict
	case models.CodeTransientFetch:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}

// respondAppError maps err onto the error taxonomy. Internal errors are logged
// and their details withheld.
func respondAppError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *models.AppError
	if !errors.As(err, &appErr) || appErr.Code == models.CodeInternal {
		log.Error().
			Err(err).
			Str("user_id", middleware.GetUserID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("Request failed")
		respondJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal server error", Code: models.CodeInternal})
		return
	}

	status := StatusFor(appErr.Code)
	if status >= http.StatusInternalServerError {
		log.Warn().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	}
	respondJSON(w, status, ErrorResponse{Error: appErr.Message, Code: appErr.Code})
}

// respondJSON sends v as a JSON response
func respondJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

// decodeJSON reads the request body into v
func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return models.NewValidationError("Invalid request body")
	}
	return nil
}

// IDsRequest is the body of the mark-read endpoints
type IDsRequest struct {
	IDs []string `json:"ids"`
}

// CountResponse reports how many rows an action touched
type CountResponse struct {
	Count int `json:"count"`
}

// callerResolver resolves the identity of authenticated requests
type callerResolver struct {
	resolver *identity.Resolver
}

// caller resolves the request's identity, writing the error response when it cannot
func (c callerResolver) caller(w http.ResponseWriter, r *http.Request) (identity.Identity, bool) {
	id, err := c.resolver.ResolveContext(r.Context())
	if err != nil {
		respondAppError(w, r, err)
		return identity.Identity{}, false
	}
	return id, true
}

// audience parses the audience query parameter, writing the error response when invalid
func audience(w http.ResponseWriter, r *http.Request) (scope.Audience, bool) {
	a, err := scope.ParseAudience(r.URL.Query().Get("audience"))
	if err != nil {
		respondAppError(w, r, err)
		return "", false
	}
	return a, true
}

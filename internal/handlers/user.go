package handlers

import (
	"net/http"

	"couple-journal-backend/internal/identity"
	"couple-journal-backend/internal/models"
	"couple-journal-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// UserHandler handles account and profile HTTP requests
type UserHandler struct {
	callerResolver
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService, resolver *identity.Resolver) *UserHandler {
	return &UserHandler{
		callerResolver: callerResolver{resolver: resolver},
		userService:    userService,
	}
}

// MeResponse is the caller's profile and their partner's
type MeResponse struct {
	Profile *models.Profile `json:"profile"`
	Partner *models.Profile `json:"partner,omitempty"`
}

// PushTokenRequest represents the body of PUT /api/v1/me/push-token
type PushTokenRequest struct {
	PushToken *string `json:"push_token"`
}

// SignUp handles POST /api/v1/auth/signup
func (h *UserHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req services.SignUpRequest
	if err := decodeJSON(r, &req); err != nil {
		respondAppError(w, r, err)
		return
	}

	resp, err := h.userService.SignUp(r.Context(), req)
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	log.Info().
		Str("user_id", resp.Profile.ID).
		Str("code", resp.Profile.LinkCode).
		Msg("User created")

	respondJSON(w, http.StatusCreated, resp)
}

// SignIn handles POST /api/v1/auth/signin
func (h *UserHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req services.SignInRequest
	if err := decodeJSON(r, &req); err != nil {
		respondAppError(w, r, err)
		return
	}

	resp, err := h.userService.SignIn(r.Context(), req)
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// SignOut handles POST /api/v1/auth/signout
func (h *UserHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	session := identity.SessionFrom(r.Context())
	if session == nil {
		respondAppError(w, r, models.NewNotAuthenticatedError("no session"))
		return
	}
	if err := h.userService.SignOut(r.Context(), session); err != nil {
		respondAppError(w, r, err)
		return
	}

	log.Info().Str("user_id", session.Subject).Msg("User signed out")
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/v1/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, MeResponse{Profile: caller.Self, Partner: caller.Partner})
}

// UpdatePushToken handles PUT /api/v1/me/push-token
func (h *UserHandler) UpdatePushToken(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req PushTokenRequest
	if err := decodeJSON(r, &req); err != nil {
		respondAppError(w, r, err)
		return
	}

	if err := h.userService.UpdatePushToken(r.Context(), caller.SelfID(), req.PushToken); err != nil {
		respondAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

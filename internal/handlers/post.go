package handlers

import (
	"net/http"

	"couple-journal-backend/internal/gateway"
	"couple-journal-backend/internal/identity"
	"couple-journal-backend/internal/models"
	"couple-journal-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// PostHandler handles timeline HTTP requests
type PostHandler struct {
	callerResolver
	gateway *gateway.Gateway
	feeds   *services.FeedService
}

// NewPostHandler creates a new post handler
func NewPostHandler(gw *gateway.Gateway, feeds *services.FeedService, resolver *identity.Resolver) *PostHandler {
	return &PostHandler{
		callerResolver: callerResolver{resolver: resolver},
		gateway:        gw,
		feeds:          feeds,
	}
}

// ReactionRequest represents the body of POST /api/v1/posts/{id}/reactions
type ReactionRequest struct {
	Kind models.ReactionKind `json:"kind"`
}

// ReactionResponse carries the reaction in place after a toggle, null when removed
type ReactionResponse struct {
	Reaction *models.Reaction `json:"reaction"`
}

// ListPosts handles GET /api/v1/posts
func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	a, ok := audience(w, r)
	if !ok {
		return
	}

	entries, err := h.feeds.Timeline(r.Context(), caller, a)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

// ListMemories handles GET /api/v1/posts/memories
func (h *PostHandler) ListMemories(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	a, ok := audience(w, r)
	if !ok {
		return
	}

	entries, err := h.feeds.Memories(r.Context(), caller, a)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

// CreatePost handles POST /api/v1/posts
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var in gateway.PostInput
	if err := decodeJSON(r, &in); err != nil {
		respondAppError(w, r, err)
		return
	}

	post, err := h.gateway.CreatePost(r.Context(), caller, in)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, post)
}

// UpdatePost handles PUT /api/v1/posts/{id}
func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var in gateway.PostInput
	if err := decodeJSON(r, &in); err != nil {
		respondAppError(w, r, err)
		return
	}

	post, err := h.gateway.UpdatePost(r.Context(), caller, chi.URLParam(r, "id"), in)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, post)
}

// DeletePost handles DELETE /api/v1/posts/{id}
func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	if err := h.gateway.DeletePost(r.Context(), caller, chi.URLParam(r, "id")); err != nil {
		respondAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleReaction handles POST /api/v1/posts/{id}/reactions
func (h *PostHandler) ToggleReaction(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req ReactionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondAppError(w, r, err)
		return
	}

	reaction, err := h.gateway.ToggleReaction(r.Context(), caller, chi.URLParam(r, "id"), req.Kind)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, ReactionResponse{Reaction: reaction})
}

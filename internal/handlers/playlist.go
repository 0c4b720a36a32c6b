package handlers

import (
	"net/http"

	"couple-journal-backend/internal/gateway"
	"couple-journal-backend/internal/identity"
	"couple-journal-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// PlaylistHandler handles shared playlist HTTP requests
type PlaylistHandler struct {
	callerResolver
	gateway *gateway.Gateway
	feeds   *services.FeedService
}

// NewPlaylistHandler creates a new playlist handler
func NewPlaylistHandler(gw *gateway.Gateway, feeds *services.FeedService, resolver *identity.Resolver) *PlaylistHandler {
	return &PlaylistHandler{
		callerResolver: callerResolver{resolver: resolver},
		gateway:        gw,
		feeds:          feeds,
	}
}

// ListPlaylist handles GET /api/v1/playlist
func (h *PlaylistHandler) ListPlaylist(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	a, ok := audience(w, r)
	if !ok {
		return
	}

	items, err := h.feeds.Playlist(r.Context(), caller, a)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

// AddItem handles POST /api/v1/playlist
func (h *PlaylistHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var in gateway.PlaylistInput
	if err := decodeJSON(r, &in); err != nil {
		respondAppError(w, r, err)
		return
	}

	item, err := h.gateway.AddPlaylistItem(r.Context(), caller, in)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

// UpdateItem handles PUT /api/v1/playlist/{id}
func (h *PlaylistHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var in gateway.PlaylistInput
	if err := decodeJSON(r, &in); err != nil {
		respondAppError(w, r, err)
		return
	}

	item, err := h.gateway.UpdatePlaylistItem(r.Context(), caller, chi.URLParam(r, "id"), in)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

// DeleteItem handles DELETE /api/v1/playlist/{id}
func (h *PlaylistHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	if err := h.gateway.DeletePlaylistItem(r.Context(), caller, chi.URLParam(r, "id")); err != nil {
		respondAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

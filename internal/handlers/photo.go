package handlers

import (
	"net/http"

	"couple-journal-backend/internal/gateway"
	"couple-journal-backend/internal/identity"
	"couple-journal-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// PhotoHandler handles gallery HTTP requests
type PhotoHandler struct {
	callerResolver
	gateway      *gateway.Gateway
	feeds        *services.FeedService
	photoService *services.PhotoService
}

// NewPhotoHandler creates a new photo handler
func NewPhotoHandler(gw *gateway.Gateway, feeds *services.FeedService, photoService *services.PhotoService, resolver *identity.Resolver) *PhotoHandler {
	return &PhotoHandler{
		callerResolver: callerResolver{resolver: resolver},
		gateway:        gw,
		feeds:          feeds,
		photoService:   photoService,
	}
}

// GetUploadURL handles POST /api/v1/photos/upload
func (h *PhotoHandler) GetUploadURL(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req services.UploadRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			respondAppError(w, r, err)
			return
		}
	}

	resp, err := h.photoService.GetPreSignedURL(r.Context(), caller, req.ContentType)
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	log.Info().
		Str("user_id", caller.SelfID()).
		Str("photo_id", resp.PhotoID).
		Msg("Pre-signed URL generated")

	respondJSON(w, http.StatusOK, resp)
}

// ListPhotos handles GET /api/v1/photos
func (h *PhotoHandler) ListPhotos(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	a, ok := audience(w, r)
	if !ok {
		return
	}

	photos, err := h.feeds.Photos(r.Context(), caller, a)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, photos)
}

// AddPhoto handles POST /api/v1/photos
func (h *PhotoHandler) AddPhoto(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var in gateway.PhotoInput
	if err := decodeJSON(r, &in); err != nil {
		respondAppError(w, r, err)
		return
	}

	photo, err := h.gateway.AddPhoto(r.Context(), caller, in)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, photo)
}

// UpdatePhoto handles PUT /api/v1/photos/{id}
func (h *PhotoHandler) UpdatePhoto(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var in gateway.PhotoInput
	if err := decodeJSON(r, &in); err != nil {
		respondAppError(w, r, err)
		return
	}

	photo, err := h.gateway.UpdatePhoto(r.Context(), caller, chi.URLParam(r, "id"), in)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, photo)
}

// DeletePhoto handles DELETE /api/v1/photos/{id}
func (h *PhotoHandler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	if err := h.gateway.DeletePhoto(r.Context(), caller, chi.URLParam(r, "id")); err != nil {
		respondAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

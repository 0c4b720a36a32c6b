package handlers

import (
	"net/http"
	"strconv"

	"couple-journal-backend/internal/gateway"
	"couple-journal-backend/internal/identity"
	"couple-journal-backend/internal/models"
	"couple-journal-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// DiaryHandler handles diary and mood statistics HTTP requests
type DiaryHandler struct {
	callerResolver
	gateway *gateway.Gateway
	feeds   *services.FeedService
}

// NewDiaryHandler creates a new diary handler
func NewDiaryHandler(gw *gateway.Gateway, feeds *services.FeedService, resolver *identity.Resolver) *DiaryHandler {
	return &DiaryHandler{
		callerResolver: callerResolver{resolver: resolver},
		gateway:        gw,
		feeds:          feeds,
	}
}

// DiaryRequest represents the body of PUT /api/v1/diary/{date}
type DiaryRequest struct {
	Content string      `json:"content"`
	Mood    models.Mood `json:"mood"`
}

// ListDiary handles GET /api/v1/diary
func (h *DiaryHandler) ListDiary(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	a, ok := audience(w, r)
	if !ok {
		return
	}

	entries, err := h.feeds.Diary(r.Context(), caller, a)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

// SaveDiary handles PUT /api/v1/diary/{date}
func (h *DiaryHandler) SaveDiary(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	date, err := models.ParseDay(chi.URLParam(r, "date"))
	if err != nil {
		respondAppError(w, r, models.NewValidationError("date must be formatted as YYYY-MM-DD"))
		return
	}

	var req DiaryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondAppError(w, r, err)
		return
	}

	entry, err := h.gateway.SaveDiary(r.Context(), caller, date, req.Content, req.Mood)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, entry)
}

// DeleteDiary handles DELETE /api/v1/diary/{id}
func (h *DiaryHandler) DeleteDiary(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	if err := h.gateway.DeleteDiary(r.Context(), caller, chi.URLParam(r, "id")); err != nil {
		respondAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Moods handles GET /api/v1/moods
func (h *DiaryHandler) Moods(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	a, ok := audience(w, r)
	if !ok {
		return
	}

	days := 0
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondAppError(w, r, models.NewValidationError("days must be a number"))
			return
		}
		days = n
	}

	summary, err := h.feeds.Moods(r.Context(), caller, a, days)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

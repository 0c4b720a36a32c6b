package handlers

import (
	"context"
	"net/http"

	"couple-journal-backend/internal/gateway"
	"couple-journal-backend/internal/identity"
	"couple-journal-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// QuoteHandler handles HTTP requests for quotes left between partners
type QuoteHandler struct {
	callerResolver
	gateway *gateway.Gateway
	feeds   *services.FeedService
	push    *services.PushService
}

// NewQuoteHandler creates a new quote handler
func NewQuoteHandler(gw *gateway.Gateway, feeds *services.FeedService, push *services.PushService, resolver *identity.Resolver) *QuoteHandler {
	return &QuoteHandler{
		callerResolver: callerResolver{resolver: resolver},
		gateway:        gw,
		feeds:          feeds,
		push:           push,
	}
}

// QuoteTextRequest represents the body of PUT /api/v1/quotes/{id}
type QuoteTextRequest struct {
	Text string `json:"text"`
}

// ListQuotes handles GET /api/v1/quotes
func (h *QuoteHandler) ListQuotes(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	board, err := h.feeds.Quotes(r.Context(), caller)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, board)
}

// CreateQuote handles POST /api/v1/quotes
func (h *QuoteHandler) CreateQuote(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var in gateway.QuoteInput
	if err := decodeJSON(r, &in); err != nil {
		respondAppError(w, r, err)
		return
	}

	quote, err := h.gateway.LeaveQuote(r.Context(), caller, in)
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	go h.push.NotifyPartner(context.WithoutCancel(r.Context()), caller.Partner, caller.Self.Name+" left you a quote", quote.Text)
	respondJSON(w, http.StatusCreated, quote)
}

// UpdateQuote handles PUT /api/v1/quotes/{id}
func (h *QuoteHandler) UpdateQuote(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req QuoteTextRequest
	if err := decodeJSON(r, &req); err != nil {
		respondAppError(w, r, err)
		return
	}

	quote, err := h.gateway.UpdateQuote(r.Context(), caller, chi.URLParam(r, "id"), req.Text)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, quote)
}

// DeleteQuote handles DELETE /api/v1/quotes/{id}
func (h *QuoteHandler) DeleteQuote(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	if err := h.gateway.DeleteQuote(r.Context(), caller, chi.URLParam(r, "id")); err != nil {
		respondAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MarkRead handles POST /api/v1/quotes/read
func (h *QuoteHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req IDsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondAppError(w, r, err)
		return
	}

	n, err := h.gateway.MarkQuotesRead(r.Context(), caller, req.IDs)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, CountResponse{Count: n})
}

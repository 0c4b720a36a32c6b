package handlers

import (
	"context"
	"net/http"

	"couple-journal-backend/internal/gateway"
	"couple-journal-backend/internal/identity"
	"couple-journal-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// ChatHandler handles chat HTTP requests
type ChatHandler struct {
	callerResolver
	gateway *gateway.Gateway
	feeds   *services.FeedService
	push    *services.PushService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(gw *gateway.Gateway, feeds *services.FeedService, push *services.PushService, resolver *identity.Resolver) *ChatHandler {
	return &ChatHandler{
		callerResolver: callerResolver{resolver: resolver},
		gateway:        gw,
		feeds:          feeds,
		push:           push,
	}
}

// SendMessageRequest represents the body of POST /api/v1/chat
type SendMessageRequest struct {
	Text string `json:"text"`
}

// ListMessages handles GET /api/v1/chat. Loading marks the partner's messages read.
func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	chatLog, err := h.feeds.Chat(r.Context(), caller)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, chatLog)
}

// SendMessage handles POST /api/v1/chat
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		respondAppError(w, r, err)
		return
	}

	msg, err := h.gateway.SendMessage(r.Context(), caller, req.Text)
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	go h.push.NotifyPartner(context.WithoutCancel(r.Context()), caller.Partner, caller.Self.Name, msg.Text)
	respondJSON(w, http.StatusCreated, msg)
}

// DeleteMessage handles DELETE /api/v1/chat/{id}
func (h *ChatHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	if err := h.gateway.DeleteMessage(r.Context(), caller, chi.URLParam(r, "id")); err != nil {
		respondAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MarkRead handles POST /api/v1/chat/read
func (h *ChatHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req IDsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondAppError(w, r, err)
		return
	}

	n, err := h.gateway.MarkMessagesRead(r.Context(), caller, req.IDs)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, CountResponse{Count: n})
}

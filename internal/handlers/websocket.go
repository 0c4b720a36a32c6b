package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"couple-journal-backend/internal/identity"
	"couple-journal-backend/internal/middleware"
	"couple-journal-backend/internal/models"
	"couple-journal-backend/internal/scope"
	"couple-journal-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // the token query parameter authenticates the socket
	},
}

// WebSocketHandler handles WebSocket connections
type WebSocketHandler struct {
	hub         *services.WSHub
	userService *services.UserService
	feeds       *services.FeedService
	push        *services.PushService
	resolver    *identity.Resolver
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(
	hub *services.WSHub,
	userService *services.UserService,
	feeds *services.FeedService,
	push *services.PushService,
	resolver *identity.Resolver,
) *WebSocketHandler {
	return &WebSocketHandler{
		hub:         hub,
		userService: userService,
		feeds:       feeds,
		push:        push,
		resolver:    resolver,
	}
}

// HandleWebSocket handles WebSocket connections
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	session, err := middleware.ValidateWebSocketToken(r.Context(), r.URL.Query().Get("token"), h.userService)
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	caller, err := h.resolver.Resolve(r.Context(), session)
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	userID := caller.SelfID()
	client := h.hub.Register(userID, conn)
	defer func() {
		h.hub.Unregister(client)
		h.notifyPresence(ctx, session, false)
	}()

	h.sendPairStatus(client, caller)
	h.hub.NotifyPartnerStatus(userID, caller.PartnerID(), true)

	log.Info().Str("user_id", userID).Msg("WebSocket connection established")

	for {
		_, messageBytes, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error().Err(err).Str("user_id", userID).Msg("WebSocket error")
			}
			return
		}

		var msg services.WSMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			h.sendError(client, models.NewValidationError("Invalid message format"))
			continue
		}

		if err := h.handleMessage(ctx, client, session, msg); err != nil {
			log.Debug().Err(err).Str("user_id", userID).Str("type", msg.Type).Msg("Failed to handle message")
			h.sendError(client, err)
		}
	}
}

// handleMessage processes incoming WebSocket messages
func (h *WebSocketHandler) handleMessage(ctx context.Context, client *services.Client, session *identity.Session, msg services.WSMessage) error {
	switch msg.Type {
	case "watch":
		return h.handleWatch(ctx, client, session, msg)
	case "unwatch":
		if !client.RemoveWatch(msg.WatchID) {
			return models.NewNotFoundError("watch", msg.WatchID)
		}
		return nil
	case "miss_you":
		return h.handleMissYou(ctx, session, msg)
	case "ping":
		return client.Send(services.WSMessage{Type: "pong"})
	default:
		return models.NewValidationError("Unknown message type")
	}
}

// handleWatch opens a live collection and streams its snapshots. The identity is
// resolved again because linking or unlinking changes the owner set.
func (h *WebSocketHandler) handleWatch(ctx context.Context, client *services.Client, session *identity.Session, msg services.WSMessage) error {
	if msg.WatchID == "" {
		return models.NewValidationError("watch_id is required")
	}
	audience, err := scope.ParseAudience(msg.Audience)
	if err != nil {
		return err
	}

	// A pair change after this point resets the epoch; the watch is then dropped.
	epoch := client.ScopeEpoch()
	caller, err := h.resolver.Resolve(ctx, session)
	if err != nil {
		return err
	}

	watchID := msg.WatchID
	watch, err := h.feeds.Watch(ctx, caller, msg.Collection, audience, func(u services.WatchUpdate) {
		out := services.WSMessage{
			Type:       "snapshot",
			WatchID:    watchID,
			Collection: u.Collection,
			Version:    u.Version,
			Data:       u.Data,
		}
		if u.Err != nil {
			out.Code, out.Message = publicError(u.Err)
		}
		if _, err := client.SendScoped(epoch, out); err != nil {
			log.Debug().Err(err).Str("user_id", client.UserID).Str("watch_id", watchID).Msg("Failed to send snapshot")
		}
	})
	if err != nil {
		return err
	}

	if !client.AddWatch(epoch, watchID, watch) {
		log.Debug().Str("user_id", client.UserID).Str("watch_id", watchID).Msg("Dropped watch opened under a stale scope")
	}
	return nil
}

// handleMissYou nudges the partner over the socket, or by push when they are offline
func (h *WebSocketHandler) handleMissYou(ctx context.Context, session *identity.Session, msg services.WSMessage) error {
	caller, err := h.resolver.Resolve(ctx, session)
	if err != nil {
		return err
	}
	if caller.Partner == nil {
		return models.NewValidationError("You are not in a pair")
	}

	if !h.hub.MissYou(caller.SelfID(), caller.PartnerID(), msg.Timestamp) {
		go h.push.NotifyPartner(context.WithoutCancel(ctx), caller.Partner, caller.Self.Name, "misses you")
	}
	return nil
}

func (h *WebSocketHandler) sendPairStatus(client *services.Client, caller identity.Identity) {
	data := map[string]interface{}{"has_pair": caller.Partner != nil}
	if caller.Partner != nil {
		data["partner_id"] = caller.PartnerID()
		data["partner_online"] = h.hub.IsOnline(caller.PartnerID())
	}

	if err := client.Send(services.WSMessage{Type: "pair_status", Data: data}); err != nil {
		log.Error().
			Err(err).
			Str("user_id", client.UserID).
			Msg("Failed to send pair_status message")
	}
}

// notifyPresence tells the current partner, who may have changed during the
// connection, about the user's status
func (h *WebSocketHandler) notifyPresence(ctx context.Context, session *identity.Session, online bool) {
	caller, err := h.resolver.Resolve(context.WithoutCancel(ctx), session)
	if err != nil {
		return
	}
	h.hub.NotifyPartnerStatus(caller.SelfID(), caller.PartnerID(), online)
}

// sendError sends an error message to the client
func (h *WebSocketHandler) sendError(client *services.Client, err error) {
	code, message := publicError(err)
	if code == models.CodeInternal {
		log.Error().Err(err).Str("user_id", client.UserID).Msg("WebSocket request failed")
	}
	if sendErr := client.Send(services.WSMessage{Type: "error", Code: code, Message: message}); sendErr != nil {
		log.Debug().Err(sendErr).Str("user_id", client.UserID).Msg("Failed to send error message")
	}
}

// publicError returns the code and message a client may see for err
func publicError(err error) (code, message string) {
	var appErr *models.AppError
	if !errors.As(err, &appErr) || appErr.Code == models.CodeInternal {
		return models.CodeInternal, "Internal server error"
	}
	return appErr.Code, appErr.Message
}

package services

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"couple-journal-backend/internal/observability"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type        string      `json:"type"`
	WatchID     string      `json:"watch_id,omitempty"`
	Collection  string      `json:"collection,omitempty"`
	Audience    string      `json:"audience,omitempty"`
	Version     uint64      `json:"version,omitempty"`
	Timestamp   int64       `json:"timestamp,omitempty"`
	InitiatorID string      `json:"initiator_id,omitempty"`
	Online      *bool       `json:"online,omitempty"`
	Code        string      `json:"code,omitempty"`
	Message     string      `json:"message,omitempty"`
	Data        interface{} `json:"data,omitempty"`
}

// Conn is the part of a WebSocket connection the hub writes to
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Watch is an open live view bound to a connection
type Watch interface {
	Dispose()
}

// Client is one registered WebSocket connection and the watches it opened
type Client struct {
	UserID string

	conn    Conn
	writeMu sync.Mutex
	// epoch counts scope resets; it only changes while writeMu is held
	epoch atomic.Uint64

	watchMu sync.Mutex
	watches map[string]Watch
	closed  bool
}

// ScopeEpoch identifies the client's current scope. Watches resolved under
// an older epoch are stale.
func (c *Client) ScopeEpoch() uint64 {
	return c.epoch.Load()
}

// Send writes a message to the connection. Writes are serialized.
func (c *Client) Send(message WSMessage) error {
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// SendScoped writes message only while the scope is still at epoch. A stale
// message is dropped and reported as not sent.
func (c *Client) SendScoped(epoch uint64, message WSMessage) (bool, error) {
	data, err := json.Marshal(message)
	if err != nil {
		return false, fmt.Errorf("failed to marshal message: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.epoch.Load() != epoch {
		return false, nil
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return false, fmt.Errorf("failed to send message: %w", err)
	}
	return true, nil
}

// AddWatch binds w, opened under epoch, to watchID and disposes any watch it
// replaces. A closed client or a scope reset since epoch disposes w instead,
// and AddWatch reports false.
func (c *Client) AddWatch(epoch uint64, watchID string, w Watch) bool {
	c.watchMu.Lock()
	if c.closed || c.epoch.Load() != epoch {
		c.watchMu.Unlock()
		w.Dispose()
		return false
	}
	old := c.watches[watchID]
	c.watches[watchID] = w
	c.watchMu.Unlock()

	if old != nil {
		old.Dispose()
	}
	return true
}

// RemoveWatch disposes the watch bound to watchID
func (c *Client) RemoveWatch(watchID string) bool {
	c.watchMu.Lock()
	w, ok := c.watches[watchID]
	delete(c.watches, watchID)
	c.watchMu.Unlock()

	if ok {
		w.Dispose()
	}
	return ok
}

// WatchCount returns the number of open watches
func (c *Client) WatchCount() int {
	c.watchMu.Lock()
	defer c.watchMu.Unlock()
	return len(c.watches)
}

// ResetWatches moves the client to a new scope epoch and disposes every watch
func (c *Client) ResetWatches() {
	c.writeMu.Lock()
	c.epoch.Add(1)
	c.writeMu.Unlock()

	c.watchMu.Lock()
	watches := c.watches
	c.watches = make(map[string]Watch)
	c.watchMu.Unlock()

	for _, w := range watches {
		w.Dispose()
	}
}

func (c *Client) close() {
	c.watchMu.Lock()
	c.closed = true
	c.watchMu.Unlock()

	c.ResetWatches()
	c.conn.Close()
}

// WSHub manages WebSocket connections, one per user
type WSHub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewWSHub creates a new WebSocket hub
func NewWSHub() *WSHub {
	return &WSHub{clients: make(map[string]*Client)}
}

// Register registers a new WebSocket connection for a user, replacing the previous one
func (h *WSHub) Register(userID string, conn Conn) *Client {
	client := &Client{UserID: userID, conn: conn, watches: make(map[string]Watch)}

	h.mu.Lock()
	existing := h.clients[userID]
	h.clients[userID] = client
	h.mu.Unlock()

	if existing != nil {
		existing.close()
	} else {
		observability.WebSocketConnectionsTotal.Inc()
	}

	log.Info().Str("user_id", userID).Msg("WebSocket connection registered")
	return client
}

// Unregister removes a connection. A connection already replaced by a newer one is only closed.
func (h *WSHub) Unregister(client *Client) {
	h.mu.Lock()
	current := h.clients[client.UserID] == client
	if current {
		delete(h.clients, client.UserID)
	}
	h.mu.Unlock()

	client.close()
	if current {
		observability.WebSocketConnectionsTotal.Dec()
		log.Info().Str("user_id", client.UserID).Msg("WebSocket connection unregistered")
	}
}

func (h *WSHub) client(userID string) *Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clients[userID]
}

// SendToUser sends a message to a specific user
func (h *WSHub) SendToUser(userID string, message WSMessage) error {
	client := h.client(userID)
	if client == nil {
		return fmt.Errorf("user %s is not connected", userID)
	}

	if err := client.Send(message); err != nil {
		h.Unregister(client)
		return err
	}
	return nil
}

// IsOnline checks if a user is online
func (h *WSHub) IsOnline(userID string) bool {
	return h.client(userID) != nil
}

// NotifyPartnerStatus notifies partner about online/offline status
func (h *WSHub) NotifyPartnerStatus(userID, partnerID string, online bool) {
	if partnerID == "" || !h.IsOnline(partnerID) {
		return
	}

	message := WSMessage{
		Type:   "partner_status",
		Online: &online,
	}

	if err := h.SendToUser(partnerID, message); err != nil {
		log.Error().
			Err(err).
			Str("user_id", partnerID).
			Msg("Failed to notify partner status")
	}
}

// resetScope drops every watch of userID, whose owner sets are now stale
func (h *WSHub) resetScope(userID string) {
	if client := h.client(userID); client != nil {
		client.ResetWatches()
	}
}

// NotifyPairLinked tells both members their scope changed and drops their watches
func (h *WSHub) NotifyPairLinked(aID, bID string) {
	for _, ids := range [][2]string{{aID, bID}, {bID, aID}} {
		h.resetScope(ids[0])
		if !h.IsOnline(ids[0]) {
			continue
		}
		if err := h.SendToUser(ids[0], WSMessage{Type: "pair_linked", Data: map[string]string{"partner_id": ids[1]}}); err != nil {
			log.Error().Err(err).Str("user_id", ids[0]).Msg("Failed to notify pair linked")
		}
	}
}

// NotifyPairUnlinked tells both former members their scope changed and drops their watches
func (h *WSHub) NotifyPairUnlinked(aID, bID string) {
	for _, id := range []string{aID, bID} {
		h.resetScope(id)
		if !h.IsOnline(id) {
			continue
		}
		if err := h.SendToUser(id, WSMessage{Type: "pair_unlinked"}); err != nil {
			log.Error().Err(err).Str("user_id", id).Msg("Failed to notify pair unlinked")
		}
	}
}

// MissYou delivers a miss-you nudge to the partner. It reports whether the
// partner was online to receive it.
func (h *WSHub) MissYou(initiatorID, partnerID string, timestamp int64) bool {
	if !h.IsOnline(partnerID) {
		return false
	}

	if timestamp == 0 {
		timestamp = time.Now().UnixMilli()
	}

	message := WSMessage{
		Type:        "miss_you",
		InitiatorID: initiatorID,
		Timestamp:   timestamp,
	}
	if err := h.SendToUser(partnerID, message); err != nil {
		log.Error().Err(err).Str("user_id", partnerID).Msg("Failed to send miss_you to partner")
		return false
	}

	log.Info().
		Str("initiator_id", initiatorID).
		Str("partner_id", partnerID).
		Int64("timestamp", timestamp).
		Msg("Miss-you nudge sent")
	return true
}

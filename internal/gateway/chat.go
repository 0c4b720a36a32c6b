package gateway

import (
	"context"
	"fmt"

	"couple-journal-backend/internal/identity"
	"couple-journal-backend/internal/models"
	"couple-journal-backend/internal/realtime"
	"couple-journal-backend/internal/store"
)

// SendMessage appends a chat message from the caller
func (g *Gateway) SendMessage(ctx context.Context, caller identity.Identity, text string) (*models.ChatMessage, error) {
	const c = models.CollectionChatMessages

	if err := requireText("text", text); err != nil {
		return nil, record(c, realtime.OpInsert, err)
	}

	msg := &models.ChatMessage{
		ID:       g.newID(),
		SenderID: caller.SelfID(),
		Text:     text,
		SentAt:   g.now(),
	}
	if err := g.store.Chat.Insert(ctx, msg); err != nil {
		return nil, record(c, realtime.OpInsert, fmt.Errorf("failed to send message: %w", err))
	}

	g.publish(ctx, caller, c, realtime.OpInsert, msg.ID, msg.SenderID)
	return msg, record(c, realtime.OpInsert, nil)
}

// DeleteMessage removes a message the caller sent
func (g *Gateway) DeleteMessage(ctx context.Context, caller identity.Identity, id string) error {
	return deleteOwned[*models.ChatMessage](ctx, g, caller, models.CollectionChatMessages, g.store.Chat, "chat message", id, caller.SelfID())
}

// MarkMessagesRead flags the partner's unread messages among ids as read. The
// caller's own messages and unknown ids are ignored. It returns how many were marked.
func (g *Gateway) MarkMessagesRead(ctx context.Context, caller identity.Identity, ids []string) (int, error) {
	if caller.Partner == nil {
		return 0, nil
	}
	return markRead(ctx, g, caller, models.CollectionChatMessages, g.store.Chat, ids, caller.PartnerID())
}

// markRead flips the read flag of the unread rows among ids owned by owner and
// publishes a single update for the batch
func markRead[T models.Readable](ctx context.Context, g *Gateway, caller identity.Identity, collection models.Collection, table store.ReadTable[T], ids []string, owner string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	rows, err := table.ListByOwners(ctx, []string{owner})
	if err != nil {
		return 0, record(collection, realtime.OpUpdate, fmt.Errorf("failed to load %s: %w", collection, err))
	}

	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	var marked []string
	for _, row := range rows {
		if _, ok := wanted[row.EntityID()]; ok && !row.Read() {
			marked = append(marked, row.EntityID())
		}
	}
	if len(marked) == 0 {
		return 0, nil
	}

	if err := table.MarkRead(ctx, marked); err != nil {
		return 0, record(collection, realtime.OpUpdate, fmt.Errorf("failed to mark %s read: %w", collection, err))
	}

	g.publish(ctx, caller, collection, realtime.OpUpdate, marked[0], owner)
	return len(marked), record(collection, realtime.OpUpdate, nil)
}

package gateway

import (
	"context"
	"fmt"

	"couple-journal-backend/internal/identity"
	"couple-journal-backend/internal/models"
	"couple-journal-backend/internal/realtime"
)

// QuoteInput is a note left for the caller's partner. The quote row is owned by
// its recipient; RecipientID defaults to the partner.
type QuoteInput struct {
	RecipientID string `json:"recipient_id,omitempty"`
	Text        string `json:"text"`
}

// LeaveQuote stores a quote for the caller's partner
func (g *Gateway) LeaveQuote(ctx context.Context, caller identity.Identity, in QuoteInput) (*models.Quote, error) {
	const c = models.CollectionQuotes

	if caller.Partner == nil {
		return nil, record(c, realtime.OpInsert, models.NewOwnershipError("quotes can only be left for a linked partner"))
	}
	if in.RecipientID != "" && in.RecipientID != caller.PartnerID() {
		return nil, record(c, realtime.OpInsert, models.NewOwnershipError("quotes can only be left for your partner"))
	}
	if err := requireText("text", in.Text); err != nil {
		return nil, record(c, realtime.OpInsert, err)
	}

	quote := &models.Quote{
		ID:        g.newID(),
		OwnerID:   caller.PartnerID(),
		Text:      in.Text,
		CreatedAt: g.now(),
	}
	if err := g.store.Quotes.Insert(ctx, quote); err != nil {
		return nil, record(c, realtime.OpInsert, fmt.Errorf("failed to create quote: %w", err))
	}

	g.publish(ctx, caller, c, realtime.OpInsert, quote.ID, quote.OwnerID)
	return quote, record(c, realtime.OpInsert, nil)
}

// UpdateQuote rewrites a quote the caller left for their partner
func (g *Gateway) UpdateQuote(ctx context.Context, caller identity.Identity, id, text string) (*models.Quote, error) {
	const c = models.CollectionQuotes

	if err := requireText("text", text); err != nil {
		return nil, record(c, realtime.OpUpdate, err)
	}
	if caller.Partner == nil {
		return nil, record(c, realtime.OpUpdate, models.NewNotFoundError("quote", id))
	}
	quote, err := loadWritable[*models.Quote](ctx, g.store.Quotes, "quote", id, caller.PartnerID())
	if err != nil {
		return nil, record(c, realtime.OpUpdate, err)
	}

	quote.Text = text
	if err := g.store.Quotes.Update(ctx, quote); err != nil {
		return nil, record(c, realtime.OpUpdate, fmt.Errorf("failed to update quote: %w", err))
	}

	g.publish(ctx, caller, c, realtime.OpUpdate, quote.ID, quote.OwnerID)
	return quote, record(c, realtime.OpUpdate, nil)
}

// DeleteQuote removes a quote addressed to the caller
func (g *Gateway) DeleteQuote(ctx context.Context, caller identity.Identity, id string) error {
	return deleteOwned[*models.Quote](ctx, g, caller, models.CollectionQuotes, g.store.Quotes, "quote", id, caller.SelfID())
}

// MarkQuotesRead flags the caller's unread quotes among ids as read. Ids of
// quotes addressed to someone else are ignored. It returns how many were marked.
func (g *Gateway) MarkQuotesRead(ctx context.Context, caller identity.Identity, ids []string) (int, error) {
	return markRead(ctx, g, caller, models.CollectionQuotes, g.store.Quotes, ids, caller.SelfID())
}

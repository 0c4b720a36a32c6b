// Package gateway is the single entry point for writes. It validates and
// ownership-checks every mutation, writes through the store and announces the
// change on the feed so live collections refetch.
package gateway

import (
	"context"
	"fmt"
	"time"

	"couple-journal-backend/internal/identity"
	"couple-journal-backend/internal/models"
	"couple-journal-backend/internal/observability"
	"couple-journal-backend/internal/realtime"
	"couple-journal-backend/internal/store"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Gateway writes journal rows on behalf of a resolved caller
type Gateway struct {
	store *store.Store
	pub   realtime.Publisher
	now   func() time.Time
	newID func() string
}

// New creates a new gateway
func New(st *store.Store, pub realtime.Publisher) *Gateway {
	return &Gateway{
		store: st,
		pub:   pub,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

// publish announces a committed change to everyone in the caller's pair.
// A failed publish leaves the write in place and is only logged.
func (g *Gateway) publish(ctx context.Context, caller identity.Identity, collection models.Collection, op realtime.Op, rowID, ownerID string) {
	event := realtime.Event{
		Collection: collection,
		Op:         op,
		RowID:      rowID,
		OwnerID:    ownerID,
		VisibleTo:  caller.Members(),
		At:         g.now(),
	}
	if err := g.pub.Publish(ctx, event); err != nil {
		log.Error().Err(err).
			Str("collection", string(collection)).
			Str("op", string(op)).
			Str("row_id", rowID).
			Msg("Failed to publish change event")
	}
}

// record counts a mutation outcome and passes err through
func record(collection models.Collection, op realtime.Op, err error) error {
	result := "ok"
	if err != nil {
		result = models.CodeOf(err)
	}
	observability.MutationsTotal.WithLabelValues(string(collection), string(op), result).Inc()
	return err
}

func requireText(field, value string) error {
	if models.Blank(value) {
		return models.NewValidationError(fmt.Sprintf("%s is required", field))
	}
	return nil
}

func requireMood(mood models.Mood) error {
	if !mood.Valid() {
		return models.NewValidationError(fmt.Sprintf("unknown mood %q", mood))
	}
	return nil
}

// requireSelf rejects an explicit owner field that names someone other than the caller
func requireSelf(caller identity.Identity, ownerID string) error {
	if ownerID != "" && ownerID != caller.SelfID() {
		return models.NewOwnershipError("rows can only be created for yourself")
	}
	return nil
}

// loadWritable fetches a row for an update. A row the writer may not change
// is reported exactly like a missing one.
func loadWritable[T models.Entity](ctx context.Context, table store.Table[T], resource, id, writer string) (T, error) {
	row, err := table.GetByID(ctx, id)
	if err != nil {
		var zero T
		return zero, err
	}
	if row.EntityOwner() != writer {
		var zero T
		return zero, models.NewNotFoundError(resource, id)
	}
	return row, nil
}

// loadDeletable fetches a row for a delete: missing is NotFound, foreign is an ownership violation
func loadDeletable[T models.Entity](ctx context.Context, table store.Table[T], resource, id, writer string) (T, error) {
	row, err := table.GetByID(ctx, id)
	if err != nil {
		var zero T
		return zero, err
	}
	if writer == "" || row.EntityOwner() != writer {
		var zero T
		return zero, models.NewOwnershipError(fmt.Sprintf("%s %s belongs to someone else", resource, id))
	}
	return row, nil
}

// deleteOwned is the shared delete path of tables without dependent rows
func deleteOwned[T models.Entity](ctx context.Context, g *Gateway, caller identity.Identity, collection models.Collection, table store.Table[T], resource, id, writer string) error {
	row, err := loadDeletable(ctx, table, resource, id, writer)
	if err != nil {
		return record(collection, realtime.OpDelete, err)
	}
	if err := table.Delete(ctx, id); err != nil {
		return record(collection, realtime.OpDelete, err)
	}
	g.publish(ctx, caller, collection, realtime.OpDelete, id, row.EntityOwner())
	return record(collection, realtime.OpDelete, nil)
}

// Package realtime carries row change events from writers to live collections.
package realtime

import (
	"context"
	"slices"
	"time"

	"couple-journal-backend/internal/models"
)

// Op is the kind of row change
type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Event is a trigger-only change notification. Payload diffing is never needed:
// consumers refetch on any event.
type Event struct {
	Collection models.Collection `json:"collection"`
	Op         Op                `json:"op"`
	RowID      string            `json:"row_id"`
	OwnerID    string            `json:"owner_id"`
	VisibleTo  []string          `json:"visible_to"`
	At         time.Time         `json:"at"`
}

// Filter selects the events one subscriber receives
type Filter struct {
	Collection models.Collection
	Viewer     string
	Owners     []string
}

// Matches reports whether e concerns a row the viewer can see and the owner set covers
func (f Filter) Matches(e Event) bool {
	if e.Collection != f.Collection {
		return false
	}
	if !slices.Contains(e.VisibleTo, f.Viewer) {
		return false
	}
	return slices.Contains(f.Owners, e.OwnerID)
}

// Subscription is the handle returned by Subscribe. Unsubscribe is idempotent.
type Subscription interface {
	Unsubscribe()
}

// Feed delivers matching events to a handler. Handlers must not block.
type Feed interface {
	Subscribe(filter Filter, handler func(Event)) Subscription
}

// Publisher announces a committed change
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Package live keeps a partner-scoped collection current by refetching on change events.
package live

import (
	"context"
	"sort"

	"couple-journal-backend/internal/models"
	"couple-journal-backend/internal/scope"
	"couple-journal-backend/internal/store"
)

// Order is the sort direction of a source's timestamp key
type Order int

const (
	NewestFirst Order = iota
	OldestFirst
)

// FetchFunc reads every row owned by one of owners
type FetchFunc[T models.Entity] func(ctx context.Context, owners scope.OwnerSet) ([]T, error)

// Source describes one watchable collection: what to fetch and how to order it
type Source[T models.Entity] struct {
	Collection models.Collection
	Fetch      FetchFunc[T]
	Order      Order
}

// TableSource watches every row of table owned by the scoped owners
func TableSource[T models.Entity](collection models.Collection, table store.Table[T], order Order) Source[T] {
	return Source[T]{
		Collection: collection,
		Order:      order,
		Fetch: func(ctx context.Context, owners scope.OwnerSet) ([]T, error) {
			return table.ListByOwners(ctx, owners)
		},
	}
}

// Load fetches once and sorts. An empty owner set yields no rows without fetching.
func Load[T models.Entity](ctx context.Context, src Source[T], owners scope.OwnerSet) ([]T, error) {
	if owners.Empty() {
		return []T{}, nil
	}
	items, err := src.Fetch(ctx, owners)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	Sort(items, src.Order)
	return items, nil
}

// Sort orders items by their timestamp key, ties broken by id ascending
func Sort[T models.Entity](items []T, order Order) {
	sort.SliceStable(items, func(i, j int) bool {
		ti, tj := items[i].SortTime(), items[j].SortTime()
		if !ti.Equal(tj) {
			if order == OldestFirst {
				return ti.Before(tj)
			}
			return ti.After(tj)
		}
		return items[i].EntityID() < items[j].EntityID()
	})
}

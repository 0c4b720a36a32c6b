// Package testutil provides an in-memory store.Store for package tests.
package testutil

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"couple-journal-backend/internal/models"
)

// Table is an in-memory store.Table. Rows are copied in and out.
type Table[T models.Entity] struct {
	mu      sync.RWMutex
	name    string
	rows    map[string]T
	clone   func(T) T
	unique  func(T) string
	listErr error
}

// NewTable creates an empty table whose rows are copied with clone
func NewTable[T models.Entity](name string, clone func(T) T) *Table[T] {
	return &Table[T]{name: name, rows: make(map[string]T), clone: clone}
}

// Unique adds a secondary unique key, enforced on Insert
func (t *Table[T]) Unique(key func(T) string) *Table[T] {
	t.unique = key
	return t
}

// FailListing makes ListByOwners return err until called again with nil
func (t *Table[T]) FailListing(err error) {
	t.mu.Lock()
	t.listErr = err
	t.mu.Unlock()
}

// Len returns the number of stored rows
func (t *Table[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

// All returns a copy of every row, ordered by id
func (t *Table[T]) All() []T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.collect(func(T) bool { return true })
}

func (t *Table[T]) collect(keep func(T) bool) []T {
	var out []T
	for _, row := range t.rows {
		if keep(row) {
			out = append(out, t.clone(row))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntityID() < out[j].EntityID() })
	return out
}

func (t *Table[T]) ListByOwners(_ context.Context, ownerIDs []string) ([]T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.listErr != nil {
		return nil, t.listErr
	}
	return t.collect(func(row T) bool { return slices.Contains(ownerIDs, row.EntityOwner()) }), nil
}

func (t *Table[T]) GetByID(_ context.Context, id string) (T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	row, ok := t.rows[id]
	if !ok {
		var zero T
		return zero, models.NewNotFoundError(t.name, id)
	}
	return t.clone(row), nil
}

func (t *Table[T]) Insert(_ context.Context, row T) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[row.EntityID()]; ok {
		return models.NewConflictError(t.name + " already exists")
	}
	if t.unique != nil {
		key := t.unique(row)
		for _, existing := range t.rows {
			if t.unique(existing) == key {
				return models.NewConflictError(t.name + " already exists")
			}
		}
	}
	t.rows[row.EntityID()] = t.clone(row)
	return nil
}

func (t *Table[T]) Update(_ context.Context, row T) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[row.EntityID()]; !ok {
		return models.NewNotFoundError(t.name, row.EntityID())
	}
	t.rows[row.EntityID()] = t.clone(row)
	return nil
}

func (t *Table[T]) Delete(_ context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[id]; !ok {
		return models.NewNotFoundError(t.name, id)
	}
	delete(t.rows, id)
	return nil
}

func (t *Table[T]) find(keep func(T) bool) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, row := range t.rows {
		if keep(row) {
			return t.clone(row), true
		}
	}
	var zero T
	return zero, false
}

// Reactions is the in-memory store.ReactionTable
type Reactions struct {
	*Table[*models.Reaction]
}

func (r Reactions) FindByPostAndOwner(_ context.Context, postID, ownerID string) (*models.Reaction, error) {
	re, ok := r.find(func(re *models.Reaction) bool { return re.PostID == postID && re.OwnerID == ownerID })
	if !ok {
		return nil, nil
	}
	return re, nil
}

func (r Reactions) CountByPost(_ context.Context, postID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, re := range r.rows {
		if re.PostID == postID {
			n++
		}
	}
	return n, nil
}

func (r Reactions) DeleteByPost(_ context.Context, postID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, re := range r.rows {
		if re.PostID == postID {
			delete(r.rows, id)
		}
	}
	return nil
}

// Diary is the in-memory store.DiaryTable
type Diary struct {
	*Table[*models.DiaryEntry]
}

func (d Diary) FindByOwnerAndDate(_ context.Context, ownerID string, date time.Time) (*models.DiaryEntry, error) {
	day := models.Day(date)
	entry, ok := d.find(func(e *models.DiaryEntry) bool { return e.OwnerID == ownerID && e.Date.Equal(day) })
	if !ok {
		return nil, nil
	}
	return entry, nil
}

// ReadTable is the in-memory store.ReadTable
type ReadTable[T models.Readable] struct {
	*Table[T]
	markRead func(T) T
}

func (r ReadTable[T]) MarkRead(_ context.Context, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		if row, ok := r.rows[id]; ok {
			r.rows[id] = r.markRead(r.clone(row))
		}
	}
	return nil
}

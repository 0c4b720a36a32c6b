package gateway

import (
	"context"
	"fmt"
	"time"

	"couple-journal-backend/internal/identity"
	"couple-journal-backend/internal/models"
	"couple-journal-backend/internal/realtime"
)

// SaveDiary writes the caller's entry for a calendar day, updating the existing
// entry for that day when there is one
func (g *Gateway) SaveDiary(ctx context.Context, caller identity.Identity, date time.Time, content string, mood models.Mood) (*models.DiaryEntry, error) {
	const c = models.CollectionDiaryEntries

	if err := requireText("content", content); err != nil {
		return nil, record(c, realtime.OpUpdate, err)
	}
	if err := requireMood(mood); err != nil {
		return nil, record(c, realtime.OpUpdate, err)
	}

	day := models.Day(date)
	var (
		entry *models.DiaryEntry
		op    realtime.Op
		err   error
	)
	// A concurrent first save of the same day wins the insert; the loser
	// finds that entry on the second pass and updates it.
	for attempt := 0; attempt < 2; attempt++ {
		entry, op, err = g.writeDiary(ctx, caller, day, content, mood)
		if !(op == realtime.OpInsert && models.HasCode(err, models.CodeConflict)) {
			break
		}
	}
	if err != nil {
		return nil, record(c, op, err)
	}

	g.publish(ctx, caller, c, op, entry.ID, entry.OwnerID)
	return entry, record(c, op, nil)
}

func (g *Gateway) writeDiary(ctx context.Context, caller identity.Identity, day time.Time, content string, mood models.Mood) (*models.DiaryEntry, realtime.Op, error) {
	entry, err := g.store.Diary.FindByOwnerAndDate(ctx, caller.SelfID(), day)
	if err != nil {
		return nil, realtime.OpUpdate, fmt.Errorf("failed to look up diary entry: %w", err)
	}

	now := g.now()
	op := realtime.OpUpdate
	if entry == nil {
		op = realtime.OpInsert
		entry = &models.DiaryEntry{
			ID:        g.newID(),
			OwnerID:   caller.SelfID(),
			Date:      day,
			CreatedAt: now,
		}
	}
	entry.Content = content
	entry.Mood = mood
	entry.UpdatedAt = now

	if op == realtime.OpInsert {
		err = g.store.Diary.Insert(ctx, entry)
	} else {
		err = g.store.Diary.Update(ctx, entry)
	}
	if err != nil {
		return nil, op, fmt.Errorf("failed to save diary entry: %w", err)
	}
	return entry, op, nil
}

// DeleteDiary removes one of the caller's diary entries
func (g *Gateway) DeleteDiary(ctx context.Context, caller identity.Identity, id string) error {
	return deleteOwned[*models.DiaryEntry](ctx, g, caller, models.CollectionDiaryEntries, g.store.Diary, "diary entry", id, caller.SelfID())
}

package stats

import (
	"fmt"
	"time"

	"couple-journal-backend/internal/models"
)

const (
	day   = 24 * time.Hour
	month = 30 * day
	year  = 365 * day

	memoryLookback = 30
)

// BucketByRecency labels ts relative to now: "Today", "N days ago", "N months ago"
// or "N years ago". The largest whole unit wins.
func BucketByRecency(ts, now time.Time) string {
	elapsed := now.Sub(ts)
	if elapsed < 0 {
		elapsed = 0
	}

	switch {
	case elapsed >= year:
		return ago(int(elapsed/year), "year")
	case elapsed >= month:
		return ago(int(elapsed/month), "month")
	case elapsed >= day:
		return ago(int(elapsed/day), "day")
	default:
		return "Today"
	}
}

func ago(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

// MemoryDay is the calendar day memories are drawn from: exactly 30 days before now.
func MemoryDay(now time.Time) time.Time {
	return models.Day(now).AddDate(0, 0, -memoryLookback)
}

// MemoriesFrom keeps the items whose timestamp falls on MemoryDay(now).
// The window is that single day, not the month leading up to it.
func MemoriesFrom[T models.Entity](items []T, now time.Time) []T {
	target := MemoryDay(now)
	out := []T{}
	for _, item := range items {
		if models.Day(item.SortTime()).Equal(target) {
			out = append(out, item)
		}
	}
	return out
}

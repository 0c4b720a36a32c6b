// Package stats holds pure aggregations over fetched collections. Nothing here does I/O.
package stats

import (
	"sort"
	"time"

	"couple-journal-backend/internal/models"
)

// MoodCount is one bar of a mood histogram
type MoodCount struct {
	Mood       models.Mood `json:"mood"`
	Count      int         `json:"count"`
	Percentage float64     `json:"percentage"`
}

// MoodHistogram tallies moods, most frequent first. Ties keep first-encountered order.
func MoodHistogram(moods []models.Mood) []MoodCount {
	if len(moods) == 0 {
		return []MoodCount{}
	}

	index := make(map[models.Mood]int)
	var counts []MoodCount
	for _, m := range moods {
		i, ok := index[m]
		if !ok {
			i = len(counts)
			index[m] = i
			counts = append(counts, MoodCount{Mood: m})
		}
		counts[i].Count++
	}

	total := float64(len(moods))
	for i := range counts {
		counts[i].Percentage = float64(counts[i].Count) / total * 100
	}

	sort.SliceStable(counts, func(i, j int) bool { return counts[i].Count > counts[j].Count })
	return counts
}

// MoodSample is a mood observed at some instant. It is derived, never stored.
type MoodSample struct {
	Mood models.Mood `json:"mood"`
	At   time.Time   `json:"at"`
}

// MoodSamples merges post and diary moods in chronological order
func MoodSamples(posts []*models.Post, entries []*models.DiaryEntry) []MoodSample {
	samples := make([]MoodSample, 0, len(posts)+len(entries))
	for _, p := range posts {
		samples = append(samples, MoodSample{Mood: p.Mood, At: p.CreatedAt})
	}
	for _, e := range entries {
		samples = append(samples, MoodSample{Mood: e.Mood, At: e.Date})
	}
	sort.SliceStable(samples, func(i, j int) bool { return samples[i].At.Before(samples[j].At) })
	return samples
}

// MoodsWithin returns the moods of samples taken in [from, to]
func MoodsWithin(samples []MoodSample, from, to time.Time) []models.Mood {
	var moods []models.Mood
	for _, s := range samples {
		if s.At.Before(from) || s.At.After(to) {
			continue
		}
		moods = append(moods, s.Mood)
	}
	return moods
}

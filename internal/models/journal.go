package models

import "time"

// DiaryEntry is a daily diary entry. One per owner and calendar day.
type DiaryEntry struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Date      time.Time `json:"date"`
	Content   string    `json:"content"`
	Mood      Mood      `json:"mood"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (d *DiaryEntry) EntityID() string { return d.ID }
func (d *DiaryEntry) EntityOwner() string { return d.OwnerID }
func (d *DiaryEntry) SortTime() time.Time { return d.Date }

// Day truncates t to its calendar day in UTC
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD calendar day
func ParseDay(s string) (time.Time, error) {
	return time.ParseInLocation(time.DateOnly, s, time.UTC)
}

// Quote is a love note left by a partner. OwnerID is the recipient.
type Quote struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Text      string    `json:"text"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

func (q *Quote) EntityID() string { return q.ID }
func (q *Quote) EntityOwner() string { return q.OwnerID }
func (q *Quote) SortTime() time.Time { return q.CreatedAt }
func (q *Quote) Read() bool { return q.IsRead }

// ChatMessage is a message between partners
type ChatMessage struct {
	ID       string    `json:"id"`
	SenderID string    `json:"sender_id"`
	Text     string    `json:"text"`
	IsRead   bool      `json:"is_read"`
	SentAt   time.Time `json:"sent_at"`
}

func (c *ChatMessage) EntityID() string { return c.ID }
func (c *ChatMessage) EntityOwner() string { return c.SenderID }
func (c *ChatMessage) SortTime() time.Time { return c.SentAt }
func (c *ChatMessage) Read() bool { return c.IsRead }

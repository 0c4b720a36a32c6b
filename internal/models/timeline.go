package models

import "time"

// Mood is the feeling attached to posts and diary entries
type Mood string

const (
	MoodHappy    Mood = "happy"
	MoodLoved    Mood = "loved"
	MoodExcited  Mood = "excited"
	MoodCalm     Mood = "calm"
	MoodGrateful Mood = "grateful"
	MoodTired    Mood = "tired"
	MoodSad      Mood = "sad"
	MoodAnxious  Mood = "anxious"
	MoodAngry    Mood = "angry"
)

var moods = map[Mood]struct{}{
	MoodHappy: {}, MoodLoved: {}, MoodExcited: {}, MoodCalm: {}, MoodGrateful: {},
	MoodTired: {}, MoodSad: {}, MoodAnxious: {}, MoodAngry: {},
}

// Valid reports whether m is a known mood
func (m Mood) Valid() bool {
	_, ok := moods[m]
	return ok
}

// ReactionKind is one of the reactions a partner can leave on a post
type ReactionKind string

const (
	ReactionLove  ReactionKind = "love"
	ReactionHug   ReactionKind = "hug"
	ReactionSmile ReactionKind = "smile"
)

// ReactionKinds lists every kind in display order
var ReactionKinds = []ReactionKind{ReactionLove, ReactionHug, ReactionSmile}

// Valid reports whether k is a known reaction kind
func (k ReactionKind) Valid() bool {
	return k == ReactionLove || k == ReactionHug || k == ReactionSmile
}

// Post represents a timeline post
type Post struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Content   string    `json:"content"`
	Mood      Mood      `json:"mood"`
	ImageURL  *string   `json:"image_url,omitempty"`
	SongLink  *string   `json:"song_link,omitempty"`
	IsMissYou bool      `json:"is_miss_you"`
	CreatedAt time.Time `json:"created_at"`
}

func (p *Post) EntityID() string { return p.ID }
func (p *Post) EntityOwner() string { return p.OwnerID }
func (p *Post) SortTime() time.Time { return p.CreatedAt }

// Reaction represents a partner's reaction to a post
type Reaction struct {
	ID        string       `json:"id"`
	PostID    string       `json:"post_id"`
	OwnerID   string       `json:"owner_id"`
	Kind      ReactionKind `json:"kind"`
	CreatedAt time.Time    `json:"created_at"`
}

func (r *Reaction) EntityID() string { return r.ID }
func (r *Reaction) EntityOwner() string { return r.OwnerID }
func (r *Reaction) SortTime() time.Time { return r.CreatedAt }

package models

import "time"

// Photo represents a photo shared with the partner
type Photo struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"owner_id"`
	URL        string    `json:"url"`
	Caption    *string   `json:"caption,omitempty"`
	UploadedAt time.Time `json:"uploaded_at"`
}

func (p *Photo) EntityID() string { return p.ID }
func (p *Photo) EntityOwner() string { return p.OwnerID }
func (p *Photo) SortTime() time.Time { return p.UploadedAt }

// PlaylistItem is a song on the shared playlist
type PlaylistItem struct {
	ID      string    `json:"id"`
	OwnerID string    `json:"owner_id"`
	Title   string    `json:"title"`
	URL     string    `json:"url"`
	AddedAt time.Time `json:"added_at"`
}

func (p *PlaylistItem) EntityID() string { return p.ID }
func (p *PlaylistItem) EntityOwner() string { return p.OwnerID }
func (p *PlaylistItem) SortTime() time.Time { return p.AddedAt }

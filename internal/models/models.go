package models

import (
	"strings"
	"time"
)

// Collection names a row collection watched by the change feed
type Collection string

const (
	CollectionProfiles      Collection = "profiles"
	CollectionPosts         Collection = "posts"
	CollectionReactions     Collection = "reactions"
	CollectionPhotos        Collection = "photos"
	CollectionPlaylistItems Collection = "playlist_items"
	CollectionDiaryEntries  Collection = "diary_entries"
	CollectionQuotes        Collection = "quotes"
	CollectionChatMessages  Collection = "chat_messages"
)

// Entity is a row anchored to a single owner.
// For chat messages the owner is the sender, for quotes the recipient.
type Entity interface {
	EntityID() string
	EntityOwner() string
	SortTime() time.Time
}

// Readable is an entity carrying a read flag
type Readable interface {
	Entity
	Read() bool
}

// Profile represents a user of the journal
type Profile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	PartnerID *string   `json:"partner_id,omitempty"`
	LinkCode  string    `json:"link_code"`
	PushToken *string   `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// HasPartner reports whether the profile is linked
func (p *Profile) HasPartner() bool {
	return p.PartnerID != nil && *p.PartnerID != ""
}

// Account holds the credentials behind a profile. ID equals the profile ID.
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// NormalizeEmail lower-cases and trims an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Blank reports whether s is empty or whitespace only
func Blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

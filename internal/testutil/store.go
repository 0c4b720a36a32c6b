package testutil

import (
	"strings"
	"time"

	"couple-journal-backend/internal/models"
	"couple-journal-backend/internal/store"
)

// Mem is an in-memory journal. Its tables are exposed for assertions.
type Mem struct {
	Profiles  *Profiles
	Posts     *Table[*models.Post]
	Reactions Reactions
	Diary     Diary
	Playlist  *Table[*models.PlaylistItem]
	Photos    *Table[*models.Photo]
	Quotes    ReadTable[*models.Quote]
	Chat      ReadTable[*models.ChatMessage]
}

func reactionKey(r *models.Reaction) string { return r.PostID + "/" + r.OwnerID }

func diaryKey(d *models.DiaryEntry) string {
	return d.OwnerID + "/" + models.Day(d.Date).Format(time.DateOnly)
}

// NewMem creates an empty in-memory journal
func NewMem() *Mem {
	return &Mem{
		Profiles:  NewProfiles(),
		Posts:     NewTable("post", func(p *models.Post) *models.Post { c := *p; return &c }),
		Reactions: Reactions{NewTable("reaction", func(r *models.Reaction) *models.Reaction { c := *r; return &c }).Unique(reactionKey)},
		Diary:     Diary{NewTable("diary entry", func(d *models.DiaryEntry) *models.DiaryEntry { c := *d; return &c }).Unique(diaryKey)},
		Playlist:  NewTable("playlist item", func(p *models.PlaylistItem) *models.PlaylistItem { c := *p; return &c }),
		Photos:    NewTable("photo", func(p *models.Photo) *models.Photo { c := *p; return &c }),
		Quotes: ReadTable[*models.Quote]{
			Table:    NewTable("quote", func(q *models.Quote) *models.Quote { c := *q; return &c }),
			markRead: func(q *models.Quote) *models.Quote { q.IsRead = true; return q },
		},
		Chat: ReadTable[*models.ChatMessage]{
			Table:    NewTable("chat message", func(m *models.ChatMessage) *models.ChatMessage { c := *m; return &c }),
			markRead: func(m *models.ChatMessage) *models.ChatMessage { m.IsRead = true; return m },
		},
	}
}

// Store exposes the journal through the store contracts
func (m *Mem) Store() *store.Store {
	return &store.Store{
		Accounts:  m.Profiles,
		Profiles:  m.Profiles,
		Posts:     m.Posts,
		Reactions: m.Reactions,
		Diary:     m.Diary,
		Playlist:  m.Playlist,
		Photos:    m.Photos,
		Quotes:    m.Quotes,
		Chat:      m.Chat,
	}
}

// AddProfile stores a profile with the given id and name. Its link code is
// the upper-cased id padded with zeros to six characters.
func (m *Mem) AddProfile(id, name string) *models.Profile {
	p := &models.Profile{
		ID:        id,
		Name:      name,
		LinkCode:  strings.ToUpper(id + "000000")[:6],
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	m.Profiles.Put(p)
	return p
}

// AddCouple stores two profiles linked to each other
func (m *Mem) AddCouple(aID, bID string) (*models.Profile, *models.Profile) {
	a := m.AddProfile(aID, "Partner "+aID)
	b := m.AddProfile(bID, "Partner "+bID)
	a.PartnerID, b.PartnerID = &b.ID, &a.ID
	m.Profiles.Put(a)
	m.Profiles.Put(b)
	return a, b
}

var (
	_ store.AccountTable                   = (*Profiles)(nil)
	_ store.ProfileTable                   = (*Profiles)(nil)
	_ store.ReactionTable                  = Reactions{}
	_ store.DiaryTable                     = Diary{}
	_ store.ReadTable[*models.Quote]       = ReadTable[*models.Quote]{}
	_ store.ReadTable[*models.ChatMessage] = ReadTable[*models.ChatMessage]{}
)

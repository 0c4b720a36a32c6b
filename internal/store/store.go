// Package store declares the table contracts the journal reads and writes through.
// repository provides the PostgreSQL implementation, testutil an in-memory one.
package store

import (
	"context"
	"time"

	"couple-journal-backend/internal/models"
)

// Table is the owner-scoped contract every entity table satisfies.
// GetByID returns a NOT_FOUND AppError when the row is absent.
type Table[T models.Entity] interface {
	ListByOwners(ctx context.Context, ownerIDs []string) ([]T, error)
	GetByID(ctx context.Context, id string) (T, error)
	Insert(ctx context.Context, row T) error
	Update(ctx context.Context, row T) error
	Delete(ctx context.Context, id string) error
}

// ReactionTable adds the (post, owner) lookups reactions need.
// FindByPostAndOwner returns nil, nil when no reaction exists.
type ReactionTable interface {
	Table[*models.Reaction]
	FindByPostAndOwner(ctx context.Context, postID, ownerID string) (*models.Reaction, error)
	CountByPost(ctx context.Context, postID string) (int, error)
	DeleteByPost(ctx context.Context, postID string) error
}

// DiaryTable adds the (owner, day) lookup used for upserts.
// FindByOwnerAndDate returns nil, nil when no entry exists.
type DiaryTable interface {
	Table[*models.DiaryEntry]
	FindByOwnerAndDate(ctx context.Context, ownerID string, date time.Time) (*models.DiaryEntry, error)
}

// ReadTable is a table whose rows carry a read flag
type ReadTable[T models.Readable] interface {
	Table[T]
	MarkRead(ctx context.Context, ids []string) error
}

// ProfileTable holds profiles and the partner link between them
type ProfileTable interface {
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	GetByLinkCode(ctx context.Context, code string) (*models.Profile, error)
	LinkCodeExists(ctx context.Context, code string) (bool, error)
	Link(ctx context.Context, aID, bID string) error
	Unlink(ctx context.Context, aID, bID string) error
	UpdatePushToken(ctx context.Context, id string, pushToken *string) error
}

// AccountTable holds credentials. Create stores the account and its profile together.
type AccountTable interface {
	Create(ctx context.Context, account *models.Account, profile *models.Profile) error
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
}

// Store groups every table of the journal
type Store struct {
	Accounts  AccountTable
	Profiles  ProfileTable
	Posts     Table[*models.Post]
	Reactions ReactionTable
	Diary     DiaryTable
	Playlist  Table[*models.PlaylistItem]
	Photos    Table[*models.Photo]
	Quotes    ReadTable[*models.Quote]
	Chat      ReadTable[*models.ChatMessage]
}

package repository

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"couple-journal-backend/internal/models"
	"couple-journal-backend/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema string

// NewStore wires every PostgreSQL table into a store.Store
func NewStore(db *pgxpool.Pool) *store.Store {
	return &store.Store{
		Accounts:  NewAccountRepository(db),
		Profiles:  NewProfileRepository(db),
		Posts:     NewPostRepository(db),
		Reactions: NewReactionRepository(db),
		Diary:     NewDiaryRepository(db),
		Playlist:  NewPlaylistRepository(db),
		Photos:    NewPhotoRepository(db),
		Quotes:    NewQuoteRepository(db),
		Chat:      NewChatRepository(db),
	}
}

// Migrate applies the embedded schema. Statements are idempotent.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// notFound maps pgx.ErrNoRows to a NOT_FOUND AppError
func notFound(err error, resource, id string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return models.NewNotFoundError(resource, id)
	}
	return fmt.Errorf("failed to get %s: %w", resource, err)
}

// insertFailed maps a unique violation to a CONFLICT AppError
func insertFailed(err error, resource string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return models.NewConflictError(resource + " already exists")
	}
	return fmt.Errorf("failed to create %s: %w", resource, err)
}

// execOne runs a statement that must touch exactly one row
func execOne(ctx context.Context, db *pgxpool.Pool, resource, id, query string, args ...any) error {
	result, err := db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", resource, err)
	}
	if result.RowsAffected() == 0 {
		return models.NewNotFoundError(resource, id)
	}
	return nil
}

var (
	_ store.AccountTable                   = (*AccountRepository)(nil)
	_ store.ProfileTable                   = (*ProfileRepository)(nil)
	_ store.Table[*models.Post]            = (*PostRepository)(nil)
	_ store.ReactionTable                  = (*ReactionRepository)(nil)
	_ store.DiaryTable                     = (*DiaryRepository)(nil)
	_ store.Table[*models.PlaylistItem]    = (*PlaylistRepository)(nil)
	_ store.Table[*models.Photo]           = (*PhotoRepository)(nil)
	_ store.ReadTable[*models.Quote]       = (*QuoteRepository)(nil)
	_ store.ReadTable[*models.ChatMessage] = (*ChatRepository)(nil)
)

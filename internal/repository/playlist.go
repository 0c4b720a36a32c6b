package repository

import (
	"context"
	"fmt"

	"couple-journal-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const playlistColumns = `id, owner_id, title, url, added_at`

// PlaylistRepository handles database operations for the shared playlist
type PlaylistRepository struct {
	db *pgxpool.Pool
}

// NewPlaylistRepository creates a new playlist repository
func NewPlaylistRepository(db *pgxpool.Pool) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

func scanPlaylistItem(row pgx.Row) (*models.PlaylistItem, error) {
	var p models.PlaylistItem
	err := row.Scan(&p.ID, &p.OwnerID, &p.Title, &p.URL, &p.AddedAt)
	return &p, err
}

// ListByOwners retrieves songs added by any of the given owners
func (r *PlaylistRepository) ListByOwners(ctx context.Context, ownerIDs []string) ([]*models.PlaylistItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+playlistColumns+`
		FROM playlist_items
		WHERE owner_id = ANY($1)
		ORDER BY added_at DESC, id
	`, ownerIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist items: %w", err)
	}
	defer rows.Close()

	var items []*models.PlaylistItem
	for rows.Next() {
		item, err := scanPlaylistItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan playlist item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating playlist items: %w", err)
	}
	return items, nil
}

// GetByID retrieves a playlist item by ID
func (r *PlaylistRepository) GetByID(ctx context.Context, id string) (*models.PlaylistItem, error) {
	item, err := scanPlaylistItem(r.db.QueryRow(ctx, `SELECT `+playlistColumns+` FROM playlist_items WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "playlist item", id)
	}
	return item, nil
}

// Insert adds a song to the playlist
func (r *PlaylistRepository) Insert(ctx context.Context, p *models.PlaylistItem) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO playlist_items (`+playlistColumns+`)
		VALUES ($1, $2, $3, $4, $5)
	`, p.ID, p.OwnerID, p.Title, p.URL, p.AddedAt)
	if err != nil {
		return insertFailed(err, "playlist item")
	}
	return nil
}

// Update rewrites title and url of a song
func (r *PlaylistRepository) Update(ctx context.Context, p *models.PlaylistItem) error {
	return execOne(ctx, r.db, "playlist item", p.ID,
		`UPDATE playlist_items SET title = $2, url = $3 WHERE id = $1`, p.ID, p.Title, p.URL)
}

// Delete removes a song from the playlist
func (r *PlaylistRepository) Delete(ctx context.Context, id string) error {
	return execOne(ctx, r.db, "playlist item", id, `DELETE FROM playlist_items WHERE id = $1`, id)
}

package repository

import (
	"context"
	"fmt"

	"couple-journal-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PhotoRepository handles database operations for photos
type PhotoRepository struct {
	db *pgxpool.Pool
}

// NewPhotoRepository creates a new photo repository
func NewPhotoRepository(db *pgxpool.Pool) *PhotoRepository {
	return &PhotoRepository{db: db}
}

func scanPhoto(row pgx.Row) (*models.Photo, error) {
	var photo models.Photo
	err := row.Scan(&photo.ID, &photo.OwnerID, &photo.URL, &photo.Caption, &photo.UploadedAt)
	return &photo, err
}

// Insert creates a new photo
func (r *PhotoRepository) Insert(ctx context.Context, photo *models.Photo) error {
	query := `
		INSERT INTO photos (id, owner_id, url, caption, uploaded_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Exec(ctx, query, photo.ID, photo.OwnerID, photo.URL, photo.Caption, photo.UploadedAt)
	if err != nil {
		return insertFailed(err, "photo")
	}
	return nil
}

// GetByID retrieves a photo by ID
func (r *PhotoRepository) GetByID(ctx context.Context, id string) (*models.Photo, error) {
	query := `
		SELECT id, owner_id, url, caption, uploaded_at
		FROM photos
		WHERE id = $1
	`
	photo, err := scanPhoto(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "photo", id)
	}
	return photo, nil
}

// ListByOwners retrieves photos uploaded by any of the given owners
func (r *PhotoRepository) ListByOwners(ctx context.Context, ownerIDs []string) ([]*models.Photo, error) {
	query := `
		SELECT id, owner_id, url, caption, uploaded_at
		FROM photos
		WHERE owner_id = ANY($1)
		ORDER BY uploaded_at DESC, id
	`
	rows, err := r.db.Query(ctx, query, ownerIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get photos: %w", err)
	}
	defer rows.Close()

	var photos []*models.Photo
	for rows.Next() {
		photo, err := scanPhoto(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan photo: %w", err)
		}
		photos = append(photos, photo)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating photos: %w", err)
	}

	return photos, nil
}

// Update updates the url and caption of a photo
func (r *PhotoRepository) Update(ctx context.Context, photo *models.Photo) error {
	return execOne(ctx, r.db, "photo", photo.ID,
		`UPDATE photos SET url = $2, caption = $3 WHERE id = $1`, photo.ID, photo.URL, photo.Caption)
}

// Delete deletes a photo by ID
func (r *PhotoRepository) Delete(ctx context.Context, id string) error {
	return execOne(ctx, r.db, "photo", id, `DELETE FROM photos WHERE id = $1`, id)
}

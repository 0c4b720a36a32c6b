package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"couple-journal-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const diaryColumns = `id, owner_id, date, content, mood, created_at, updated_at`

// DiaryRepository handles database operations for diary entries
type DiaryRepository struct {
	db *pgxpool.Pool
}

// NewDiaryRepository creates a new diary repository
func NewDiaryRepository(db *pgxpool.Pool) *DiaryRepository {
	return &DiaryRepository{db: db}
}

func scanDiary(row pgx.Row) (*models.DiaryEntry, error) {
	var d models.DiaryEntry
	err := row.Scan(&d.ID, &d.OwnerID, &d.Date, &d.Content, &d.Mood, &d.CreatedAt, &d.UpdatedAt)
	d.Date = models.Day(d.Date)
	return &d, err
}

// ListByOwners retrieves diary entries of any of the given owners
func (r *DiaryRepository) ListByOwners(ctx context.Context, ownerIDs []string) ([]*models.DiaryEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+diaryColumns+`
		FROM diary_entries
		WHERE owner_id = ANY($1)
		ORDER BY date DESC, id
	`, ownerIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get diary entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.DiaryEntry
	for rows.Next() {
		d, err := scanDiary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan diary entry: %w", err)
		}
		entries = append(entries, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating diary entries: %w", err)
	}
	return entries, nil
}

// GetByID retrieves a diary entry by ID
func (r *DiaryRepository) GetByID(ctx context.Context, id string) (*models.DiaryEntry, error) {
	d, err := scanDiary(r.db.QueryRow(ctx, `SELECT `+diaryColumns+` FROM diary_entries WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "diary entry", id)
	}
	return d, nil
}

// FindByOwnerAndDate returns the owner's entry for a day, or nil
func (r *DiaryRepository) FindByOwnerAndDate(ctx context.Context, ownerID string, date time.Time) (*models.DiaryEntry, error) {
	d, err := scanDiary(r.db.QueryRow(ctx, `
		SELECT `+diaryColumns+`
		FROM diary_entries
		WHERE owner_id = $1 AND date = $2
	`, ownerID, models.Day(date)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get diary entry: %w", err)
	}
	return d, nil
}

// Insert creates a diary entry. The (owner_id, date) constraint makes a racing insert fail.
func (r *DiaryRepository) Insert(ctx context.Context, d *models.DiaryEntry) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO diary_entries (`+diaryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, d.ID, d.OwnerID, models.Day(d.Date), d.Content, d.Mood, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return insertFailed(err, "diary entry")
	}
	return nil
}

// Update rewrites content and mood of a diary entry
func (r *DiaryRepository) Update(ctx context.Context, d *models.DiaryEntry) error {
	return execOne(ctx, r.db, "diary entry", d.ID, `
		UPDATE diary_entries SET content = $2, mood = $3, updated_at = $4
		WHERE id = $1
	`, d.ID, d.Content, d.Mood, d.UpdatedAt)
}

// Delete deletes a diary entry by ID
func (r *DiaryRepository) Delete(ctx context.Context, id string) error {
	return execOne(ctx, r.db, "diary entry", id, `DELETE FROM diary_entries WHERE id = $1`, id)
}

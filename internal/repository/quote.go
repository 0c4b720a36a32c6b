package repository

import (
	"context"
	"fmt"

	"couple-journal-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const quoteColumns = `id, owner_id, text, is_read, created_at`

// QuoteRepository handles database operations for love-note quotes
type QuoteRepository struct {
	db *pgxpool.Pool
}

// NewQuoteRepository creates a new quote repository
func NewQuoteRepository(db *pgxpool.Pool) *QuoteRepository {
	return &QuoteRepository{db: db}
}

func scanQuote(row pgx.Row) (*models.Quote, error) {
	var q models.Quote
	err := row.Scan(&q.ID, &q.OwnerID, &q.Text, &q.IsRead, &q.CreatedAt)
	return &q, err
}

// ListByOwners retrieves quotes addressed to any of the given recipients
func (r *QuoteRepository) ListByOwners(ctx context.Context, ownerIDs []string) ([]*models.Quote, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+quoteColumns+`
		FROM quotes
		WHERE owner_id = ANY($1)
		ORDER BY created_at DESC, id
	`, ownerIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get quotes: %w", err)
	}
	defer rows.Close()

	var quotes []*models.Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quote: %w", err)
		}
		quotes = append(quotes, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating quotes: %w", err)
	}
	return quotes, nil
}

// GetByID retrieves a quote by ID
func (r *QuoteRepository) GetByID(ctx context.Context, id string) (*models.Quote, error) {
	q, err := scanQuote(r.db.QueryRow(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "quote", id)
	}
	return q, nil
}

// Insert creates a new quote
func (r *QuoteRepository) Insert(ctx context.Context, q *models.Quote) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO quotes (`+quoteColumns+`)
		VALUES ($1, $2, $3, $4, $5)
	`, q.ID, q.OwnerID, q.Text, q.IsRead, q.CreatedAt)
	if err != nil {
		return insertFailed(err, "quote")
	}
	return nil
}

// Update rewrites the text and read flag of a quote
func (r *QuoteRepository) Update(ctx context.Context, q *models.Quote) error {
	return execOne(ctx, r.db, "quote", q.ID,
		`UPDATE quotes SET text = $2, is_read = $3 WHERE id = $1`, q.ID, q.Text, q.IsRead)
}

// Delete deletes a quote by ID
func (r *QuoteRepository) Delete(ctx context.Context, id string) error {
	return execOne(ctx, r.db, "quote", id, `DELETE FROM quotes WHERE id = $1`, id)
}

// MarkRead flags the given quotes as read
func (r *QuoteRepository) MarkRead(ctx context.Context, ids []string) error {
	if _, err := r.db.Exec(ctx, `UPDATE quotes SET is_read = TRUE WHERE id = ANY($1)`, ids); err != nil {
		return fmt.Errorf("failed to mark quotes read: %w", err)
	}
	return nil
}

package repository

import (
	"context"
	"fmt"

	"couple-journal-backend/internal/models"

	"github.com/jackc/pgx/v5"
)

// Link sets partner_id on both profiles. Fails with CONFLICT if either is already linked.
func (r *ProfileRepository) Link(ctx context.Context, aID, bID string) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		query := `
			UPDATE profiles SET partner_id = $2
			WHERE id = $1 AND partner_id IS NULL
		`
		for _, ids := range [][2]string{{aID, bID}, {bID, aID}} {
			result, err := tx.Exec(ctx, query, ids[0], ids[1])
			if err != nil {
				return fmt.Errorf("failed to link profiles: %w", err)
			}
			if result.RowsAffected() == 0 {
				return models.NewConflictError("profile is already linked")
			}
		}
		return nil
	})
}

// Unlink clears partner_id on both profiles
func (r *ProfileRepository) Unlink(ctx context.Context, aID, bID string) error {
	query := `
		UPDATE profiles SET partner_id = NULL
		WHERE (id = $1 AND partner_id = $2) OR (id = $2 AND partner_id = $1)
	`
	result, err := r.db.Exec(ctx, query, aID, bID)
	if err != nil {
		return fmt.Errorf("failed to unlink profiles: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.NewNotFoundError("pair", aID)
	}
	return nil
}

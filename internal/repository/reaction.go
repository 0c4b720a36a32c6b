package repository

import (
	"context"
	"errors"
	"fmt"

	"couple-journal-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const reactionColumns = `id, post_id, owner_id, kind, created_at`

// ReactionRepository handles database operations for post reactions
type ReactionRepository struct {
	db *pgxpool.Pool
}

// NewReactionRepository creates a new reaction repository
func NewReactionRepository(db *pgxpool.Pool) *ReactionRepository {
	return &ReactionRepository{db: db}
}

func scanReaction(row pgx.Row) (*models.Reaction, error) {
	var re models.Reaction
	err := row.Scan(&re.ID, &re.PostID, &re.OwnerID, &re.Kind, &re.CreatedAt)
	return &re, err
}

// ListByOwners retrieves reactions left by any of the given owners
func (r *ReactionRepository) ListByOwners(ctx context.Context, ownerIDs []string) ([]*models.Reaction, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+reactionColumns+`
		FROM reactions
		WHERE owner_id = ANY($1)
		ORDER BY created_at DESC, id
	`, ownerIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get reactions: %w", err)
	}
	defer rows.Close()

	var reactions []*models.Reaction
	for rows.Next() {
		re, err := scanReaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reaction: %w", err)
		}
		reactions = append(reactions, re)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reactions: %w", err)
	}
	return reactions, nil
}

// GetByID retrieves a reaction by ID
func (r *ReactionRepository) GetByID(ctx context.Context, id string) (*models.Reaction, error) {
	re, err := scanReaction(r.db.QueryRow(ctx, `SELECT `+reactionColumns+` FROM reactions WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "reaction", id)
	}
	return re, nil
}

// FindByPostAndOwner returns the owner's reaction on a post, or nil
func (r *ReactionRepository) FindByPostAndOwner(ctx context.Context, postID, ownerID string) (*models.Reaction, error) {
	re, err := scanReaction(r.db.QueryRow(ctx, `
		SELECT `+reactionColumns+`
		FROM reactions
		WHERE post_id = $1 AND owner_id = $2
	`, postID, ownerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reaction: %w", err)
	}
	return re, nil
}

// CountByPost counts reactions on a post
func (r *ReactionRepository) CountByPost(ctx context.Context, postID string) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM reactions WHERE post_id = $1`, postID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count reactions: %w", err)
	}
	return n, nil
}

// Insert creates a new reaction
func (r *ReactionRepository) Insert(ctx context.Context, re *models.Reaction) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO reactions (`+reactionColumns+`)
		VALUES ($1, $2, $3, $4, $5)
	`, re.ID, re.PostID, re.OwnerID, re.Kind, re.CreatedAt)
	if err != nil {
		return insertFailed(err, "reaction")
	}
	return nil
}

// Update switches the kind of a reaction in place
func (r *ReactionRepository) Update(ctx context.Context, re *models.Reaction) error {
	return execOne(ctx, r.db, "reaction", re.ID,
		`UPDATE reactions SET kind = $2 WHERE id = $1`, re.ID, re.Kind)
}

// Delete deletes a reaction by ID
func (r *ReactionRepository) Delete(ctx context.Context, id string) error {
	return execOne(ctx, r.db, "reaction", id, `DELETE FROM reactions WHERE id = $1`, id)
}

// DeleteByPost removes every reaction on a post
func (r *ReactionRepository) DeleteByPost(ctx context.Context, postID string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM reactions WHERE post_id = $1`, postID); err != nil {
		return fmt.Errorf("failed to delete reactions: %w", err)
	}
	return nil
}

package repository

import (
	"context"
	"fmt"

	"couple-journal-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

const profileColumns = `id, name, partner_id, link_code, push_token, created_at`

// ProfileRepository handles database operations for profiles
type ProfileRepository struct {
	db *pgxpool.Pool
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetByID retrieves a profile by ID
func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	var p models.Profile
	err := r.db.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.PartnerID, &p.LinkCode, &p.PushToken, &p.CreatedAt,
	)
	if err != nil {
		return nil, notFound(err, "profile", id)
	}
	return &p, nil
}

// GetByLinkCode retrieves a profile by its link code
func (r *ProfileRepository) GetByLinkCode(ctx context.Context, code string) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE link_code = $1`
	var p models.Profile
	err := r.db.QueryRow(ctx, query, code).Scan(
		&p.ID, &p.Name, &p.PartnerID, &p.LinkCode, &p.PushToken, &p.CreatedAt,
	)
	if err != nil {
		return nil, notFound(err, "profile", code)
	}
	return &p, nil
}

// LinkCodeExists checks if a link code is taken
func (r *ProfileRepository) LinkCodeExists(ctx context.Context, code string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM profiles WHERE link_code = $1)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, code).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check link code existence: %w", err)
	}
	return exists, nil
}

// UpdatePushToken updates the APNs device token for a profile
func (r *ProfileRepository) UpdatePushToken(ctx context.Context, id string, pushToken *string) error {
	return execOne(ctx, r.db, "profile", id,
		`UPDATE profiles SET push_token = $1 WHERE id = $2`, pushToken, id)
}

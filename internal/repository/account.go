package repository

import (
	"context"
	"errors"
	"fmt"

	"couple-journal-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// AccountRepository handles database operations for credentials
type AccountRepository struct {
	db *pgxpool.Pool
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create inserts the profile and its account in one transaction
func (r *AccountRepository) Create(ctx context.Context, account *models.Account, profile *models.Profile) error {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO profiles (id, name, partner_id, link_code, push_token, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, profile.ID, profile.Name, profile.PartnerID, profile.LinkCode, profile.PushToken, profile.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create profile: %w", err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO accounts (id, email, password_hash, created_at)
			VALUES ($1, $2, $3, $4)
		`, account.ID, account.Email, account.PasswordHash, account.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create account: %w", err)
		}
		return nil
	})

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == "accounts_email_key" {
		return models.NewConflictError("email is already registered")
	}
	return err
}

// GetByEmail retrieves an account by email
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `
		SELECT id, email, password_hash, created_at
		FROM accounts
		WHERE email = $1
	`
	var a models.Account
	err := r.db.QueryRow(ctx, query, email).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.CreatedAt)
	if err != nil {
		return nil, notFound(err, "account", email)
	}
	return &a, nil
}

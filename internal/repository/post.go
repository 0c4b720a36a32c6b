package repository

import (
	"context"
	"fmt"

	"couple-journal-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postColumns = `id, owner_id, content, mood, image_url, song_link, is_miss_you, created_at`

// PostRepository handles database operations for timeline posts
type PostRepository struct {
	db *pgxpool.Pool
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *pgxpool.Pool) *PostRepository {
	return &PostRepository{db: db}
}

func scanPost(row pgx.Row) (*models.Post, error) {
	var p models.Post
	err := row.Scan(&p.ID, &p.OwnerID, &p.Content, &p.Mood, &p.ImageURL, &p.SongLink, &p.IsMissYou, &p.CreatedAt)
	return &p, err
}

// ListByOwners retrieves posts written by any of the given owners
func (r *PostRepository) ListByOwners(ctx context.Context, ownerIDs []string) ([]*models.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts
		WHERE owner_id = ANY($1)
		ORDER BY created_at DESC, id
	`
	rows, err := r.db.Query(ctx, query, ownerIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get posts: %w", err)
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating posts: %w", err)
	}
	return posts, nil
}

// GetByID retrieves a post by ID
func (r *PostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	post, err := scanPost(r.db.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "post", id)
	}
	return post, nil
}

// Insert creates a new post
func (r *PostRepository) Insert(ctx context.Context, p *models.Post) error {
	query := `
		INSERT INTO posts (` + postColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		p.ID, p.OwnerID, p.Content, p.Mood, p.ImageURL, p.SongLink, p.IsMissYou, p.CreatedAt,
	)
	if err != nil {
		return insertFailed(err, "post")
	}
	return nil
}

// Update rewrites the editable fields of a post
func (r *PostRepository) Update(ctx context.Context, p *models.Post) error {
	return execOne(ctx, r.db, "post", p.ID, `
		UPDATE posts
		SET content = $2, mood = $3, image_url = $4, song_link = $5, is_miss_you = $6
		WHERE id = $1
	`, p.ID, p.Content, p.Mood, p.ImageURL, p.SongLink, p.IsMissYou)
}

// Delete deletes a post by ID. Reactions go with it.
func (r *PostRepository) Delete(ctx context.Context, id string) error {
	return execOne(ctx, r.db, "post", id, `DELETE FROM posts WHERE id = $1`, id)
}

package repository

import (
	"context"
	"fmt"

	"couple-journal-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const chatColumns = `id, sender_id, text, is_read, sent_at`

// ChatRepository handles database operations for chat messages
type ChatRepository struct {
	db *pgxpool.Pool
}

// NewChatRepository creates a new chat repository
func NewChatRepository(db *pgxpool.Pool) *ChatRepository {
	return &ChatRepository{db: db}
}

func scanMessage(row pgx.Row) (*models.ChatMessage, error) {
	var m models.ChatMessage
	err := row.Scan(&m.ID, &m.SenderID, &m.Text, &m.IsRead, &m.SentAt)
	return &m, err
}

// ListByOwners retrieves messages sent by any of the given senders
func (r *ChatRepository) ListByOwners(ctx context.Context, senderIDs []string) ([]*models.ChatMessage, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+chatColumns+`
		FROM chat_messages
		WHERE sender_id = ANY($1)
		ORDER BY sent_at, id
	`, senderIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get chat messages: %w", err)
	}
	defer rows.Close()

	var messages []*models.ChatMessage
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chat messages: %w", err)
	}
	return messages, nil
}

// GetByID retrieves a chat message by ID
func (r *ChatRepository) GetByID(ctx context.Context, id string) (*models.ChatMessage, error) {
	m, err := scanMessage(r.db.QueryRow(ctx, `SELECT `+chatColumns+` FROM chat_messages WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "chat message", id)
	}
	return m, nil
}

// Insert stores a new chat message
func (r *ChatRepository) Insert(ctx context.Context, m *models.ChatMessage) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO chat_messages (`+chatColumns+`)
		VALUES ($1, $2, $3, $4, $5)
	`, m.ID, m.SenderID, m.Text, m.IsRead, m.SentAt)
	if err != nil {
		return insertFailed(err, "chat message")
	}
	return nil
}

// Update rewrites the text and read flag of a message
func (r *ChatRepository) Update(ctx context.Context, m *models.ChatMessage) error {
	return execOne(ctx, r.db, "chat message", m.ID,
		`UPDATE chat_messages SET text = $2, is_read = $3 WHERE id = $1`, m.ID, m.Text, m.IsRead)
}

// Delete deletes a chat message by ID
func (r *ChatRepository) Delete(ctx context.Context, id string) error {
	return execOne(ctx, r.db, "chat message", id, `DELETE FROM chat_messages WHERE id = $1`, id)
}

// MarkRead flags the given messages as read
func (r *ChatRepository) MarkRead(ctx context.Context, ids []string) error {
	if _, err := r.db.Exec(ctx, `UPDATE chat_messages SET is_read = TRUE WHERE id = ANY($1)`, ids); err != nil {
		return fmt.Errorf("failed to mark messages read: %w", err)
	}
	return nil
}

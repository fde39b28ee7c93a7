package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/akinalp/cordlite/database"
	"github.com/akinalp/cordlite/models"
	"github.com/akinalp/cordlite/pkg"
)

type sqliteMessageRepo struct {
	db database.TxQuerier
}

func NewSQLiteMessageRepo(db database.TxQuerier) MessageRepository {
	return &sqliteMessageRepo{db: db}
}

// Create stores msg with a time-ordered v7 id and a UTC timestamp and fills
// in the author's current username. The INSERT is the last statement, so an
// error is never returned for a stored row.
func (r *sqliteMessageRepo) Create(ctx context.Context, msg *models.Message) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to generate message id: %w", err)
	}

	var author string
	err = r.db.QueryRowContext(ctx, `SELECT username FROM users WHERE id = ?`, msg.UserID).Scan(&author)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: User not found", pkg.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to load message author: %w", err)
	}

	createdAt := utcNow()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO messages (id, channel_id, user_id, content, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		id.String(), msg.ChannelID, msg.UserID, msg.Content, createdAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: Channel not found", pkg.ErrNotFound)
		}
		return fmt.Errorf("failed to create message: %w", err)
	}

	msg.ID = id.String()
	msg.CreatedAt = createdAt
	msg.Author.Username = author
	return nil
}

func (r *sqliteMessageRepo) ListByChannel(ctx context.Context, channelID string) ([]models.Message, error) {
	var exists int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM channels WHERE id = ?`, channelID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: Channel not found", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check channel: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT m.id, m.channel_id, m.user_id, m.content, m.created_at, u.username
		FROM messages m
		INNER JOIN users u ON u.id = m.user_id
		WHERE m.channel_id = ?
		ORDER BY m.created_at ASC, m.id ASC`, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ChannelID, &m.UserID, &m.Content, &m.CreatedAt, &m.Author.Username); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		toUTC(&m.CreatedAt)
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

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

type sqliteChannelRepo struct {
	db database.TxQuerier
}

func NewSQLiteChannelRepo(db database.TxQuerier) ChannelRepository {
	return &sqliteChannelRepo{db: db}
}

func (r *sqliteChannelRepo) Create(ctx context.Context, ch *models.Channel) error {
	ch.ID = uuid.NewString()
	ch.CreatedAt = utcNow()
	ch.UpdatedAt = ch.CreatedAt

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO channels (id, server_id, name, type, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		ch.ID, ch.ServerID, ch.Name, ch.Type, ch.CreatedAt, ch.UpdatedAt,
	)
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err, "channels.server_id", "channels.name"):
		return fmt.Errorf("%w: Channel name already exists in this server", pkg.ErrAlreadyExists)
	case isForeignKeyViolation(err):
		return fmt.Errorf("%w: Server not found", pkg.ErrNotFound)
	default:
		return fmt.Errorf("failed to create channel: %w", err)
	}
}

func (r *sqliteChannelRepo) GetByID(ctx context.Context, id string) (*models.Channel, error) {
	ch := &models.Channel{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, server_id, name, type, created_at, updated_at
		FROM channels WHERE id = ?`, id,
	).Scan(&ch.ID, &ch.ServerID, &ch.Name, &ch.Type, &ch.CreatedAt, &ch.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: Channel not found", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get channel by id: %w", err)
	}
	toUTC(&ch.CreatedAt, &ch.UpdatedAt)
	return ch, nil
}

func (r *sqliteChannelRepo) ListByServer(ctx context.Context, serverID string) ([]models.Channel, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, server_id, name, type, created_at, updated_at
		FROM channels WHERE server_id = ?
		ORDER BY created_at ASC, id ASC`, serverID)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	defer rows.Close()

	channels := make([]models.Channel, 0)
	for rows.Next() {
		var ch models.Channel
		if err := rows.Scan(&ch.ID, &ch.ServerID, &ch.Name, &ch.Type, &ch.CreatedAt, &ch.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan channel row: %w", err)
		}
		toUTC(&ch.CreatedAt, &ch.UpdatedAt)
		channels = append(channels, ch)
	}
	return channels, rows.Err()
}

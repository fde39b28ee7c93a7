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

type sqliteServerRepo struct {
	db database.TxQuerier
}

func NewSQLiteServerRepo(db database.TxQuerier) ServerRepository {
	return &sqliteServerRepo{db: db}
}

func (r *sqliteServerRepo) Create(ctx context.Context, server *models.Server) error {
	server.ID = uuid.NewString()
	server.CreatedAt = utcNow()
	server.UpdatedAt = server.CreatedAt

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO servers (id, name, icon_url, owner_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		server.ID, server.Name, server.IconURL, server.OwnerID, server.CreatedAt, server.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: User not found", pkg.ErrNotFound)
		}
		return fmt.Errorf("failed to create server: %w", err)
	}
	return nil
}

func (r *sqliteServerRepo) GetByID(ctx context.Context, id string) (*models.Server, error) {
	s := &models.Server{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, icon_url, owner_id, created_at, updated_at
		FROM servers WHERE id = ?`, id,
	).Scan(&s.ID, &s.Name, &s.IconURL, &s.OwnerID, &s.CreatedAt, &s.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: Server not found", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get server by id: %w", err)
	}
	toUTC(&s.CreatedAt, &s.UpdatedAt)
	return s, nil
}

func (r *sqliteServerRepo) ListForUser(ctx context.Context, userID string) ([]models.ServerWithRole, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.id, s.name, s.icon_url, s.owner_id, s.created_at, s.updated_at, sm.role
		FROM servers s
		INNER JOIN server_members sm ON sm.server_id = s.id
		WHERE sm.user_id = ?
		ORDER BY s.created_at ASC, s.id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list servers for user: %w", err)
	}
	defer rows.Close()

	servers := make([]models.ServerWithRole, 0)
	for rows.Next() {
		var s models.ServerWithRole
		if err := rows.Scan(&s.ID, &s.Name, &s.IconURL, &s.OwnerID, &s.CreatedAt, &s.UpdatedAt, &s.Role); err != nil {
			return nil, fmt.Errorf("failed to scan server row: %w", err)
		}
		toUTC(&s.CreatedAt, &s.UpdatedAt)
		servers = append(servers, s)
	}
	return servers, rows.Err()
}

func (r *sqliteServerRepo) AddMember(ctx context.Context, m *models.Membership) error {
	if m.JoinedAt.IsZero() {
		m.JoinedAt = utcNow()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO server_members (user_id, server_id, role, joined_at)
		VALUES (?, ?, ?, ?)`,
		m.UserID, m.ServerID, m.Role, m.JoinedAt,
	)
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err):
		return fmt.Errorf("%w: Already a member of this server", pkg.ErrAlreadyExists)
	case isForeignKeyViolation(err):
		return fmt.Errorf("%w: Server not found", pkg.ErrNotFound)
	default:
		return fmt.Errorf("failed to add server member: %w", err)
	}
}

func (r *sqliteServerRepo) GetMembership(ctx context.Context, userID, serverID string) (*models.Membership, error) {
	m := &models.Membership{}
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, server_id, role, joined_at
		FROM server_members WHERE user_id = ? AND server_id = ?`, userID, serverID,
	).Scan(&m.UserID, &m.ServerID, &m.Role, &m.JoinedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: membership", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	toUTC(&m.JoinedAt)
	return m, nil
}

func (r *sqliteServerRepo) MemberIDs(ctx context.Context, serverID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT user_id FROM server_members WHERE server_id = ?`, serverID)
	if err != nil {
		return nil, fmt.Errorf("failed to list member ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan member id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

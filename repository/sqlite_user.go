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

const userColumns = `id, username, email, password_hash, avatar_url, created_at, updated_at`

type sqliteUserRepo struct {
	db database.TxQuerier
}

func NewSQLiteUserRepo(db database.TxQuerier) UserRepository {
	return &sqliteUserRepo{db: db}
}

func (r *sqliteUserRepo) Create(ctx context.Context, user *models.User) error {
	user.ID = uuid.NewString()
	user.CreatedAt = utcNow()
	user.UpdatedAt = user.CreatedAt

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, avatar_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Username, user.Email, user.PasswordHash, user.AvatarURL,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: Email or username already exists", pkg.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *sqliteUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return user, nil
}

func (r *sqliteUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

// Update compiles the patch into fixed CASE expressions: each column keeps
// its current value unless its flag argument is true.
func (r *sqliteUserRepo) Update(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	var avatar any
	if patch.AvatarURL.Set && !patch.ClearsAvatar() {
		avatar = patch.AvatarURL.Value
	}

	row := r.db.QueryRowContext(ctx, `
		UPDATE users SET
			username   = CASE WHEN ? THEN ? ELSE username END,
			avatar_url = CASE WHEN ? THEN ? ELSE avatar_url END,
			updated_at = ?
		WHERE id = ?
		RETURNING `+userColumns,
		patch.Username.Set, patch.Username.Value,
		patch.AvatarURL.Set, avatar,
		utcNow(), id,
	)

	user, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err, "users.username") {
			return nil, fmt.Errorf("%w: Username already exists", pkg.ErrAlreadyExists)
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// scanUser maps sql.ErrNoRows to pkg.ErrNotFound.
func scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: User not found", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	toUTC(&u.CreatedAt, &u.UpdatedAt)
	return u, nil
}

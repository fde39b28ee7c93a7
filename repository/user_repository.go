// Package repository is the persistence layer. Each store is an interface
// with a SQLite implementation that accepts database.TxQuerier, so the same
// code runs on the pool or inside database.WithTx.
package repository

import (
	"context"

	"github.com/akinalp/cordlite/models"
)

type UserRepository interface {
	// Create assigns ID and timestamps. A taken email or username yields
	// pkg.ErrAlreadyExists.
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// Update applies a partial patch in one statement and returns the
	// resulting row.
	Update(ctx context.Context, id string, patch models.UserPatch) (*models.User, error)
}

package repository

import (
	"context"

	"github.com/akinalp/cordlite/models"
)

// ServerRepository covers servers and their memberships.
type ServerRepository interface {
	Create(ctx context.Context, server *models.Server) error
	GetByID(ctx context.Context, id string) (*models.Server, error)
	// ListForUser returns the servers userID belongs to, oldest first, each
	// with that user's role.
	ListForUser(ctx context.Context, userID string) ([]models.ServerWithRole, error)

	// AddMember fails with pkg.ErrAlreadyExists when the pair is already a
	// member and pkg.ErrNotFound when the server does not exist.
	AddMember(ctx context.Context, m *models.Membership) error
	GetMembership(ctx context.Context, userID, serverID string) (*models.Membership, error)
	MemberIDs(ctx context.Context, serverID string) ([]string, error)
}

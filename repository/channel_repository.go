package repository

import (
	"context"

	"github.com/akinalp/cordlite/models"
)

type ChannelRepository interface {
	// Create fails with pkg.ErrAlreadyExists when the server already has a
	// channel of that name, compared case-insensitively.
	Create(ctx context.Context, channel *models.Channel) error
	GetByID(ctx context.Context, id string) (*models.Channel, error)
	ListByServer(ctx context.Context, serverID string) ([]models.Channel, error)
}

package repository

import (
	"context"

	"github.com/akinalp/cordlite/models"
)

// MessageRepository is append-only. Order within a channel is
// (created_at, id) ascending, both assigned by Create.
type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	// ListByChannel returns the full history, oldest first, or
	// pkg.ErrNotFound when the channel does not exist.
	ListByChannel(ctx context.Context, channelID string) ([]models.Message, error)
}

package services

import (
	"context"
	"fmt"

	"github.com/akinalp/cordlite/models"
	"github.com/akinalp/cordlite/pkg"
	"github.com/akinalp/cordlite/repository"
)

// ChannelService assumes the caller already passed the membership (and, for
// Create, the role) checks in middleware.
type ChannelService interface {
	List(ctx context.Context, serverID string) ([]models.Channel, error)
	Create(ctx context.Context, serverID string, req *models.CreateChannelRequest) (*models.Channel, error)
}

type channelService struct {
	channelRepo repository.ChannelRepository
}

func NewChannelService(channelRepo repository.ChannelRepository) ChannelService {
	return &channelService{channelRepo: channelRepo}
}

func (s *channelService) List(ctx context.Context, serverID string) ([]models.Channel, error) {
	return s.channelRepo.ListByServer(ctx, serverID)
}

func (s *channelService) Create(ctx context.Context, serverID string, req *models.CreateChannelRequest) (*models.Channel, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", pkg.ErrBadRequest, err)
	}

	ch := &models.Channel{
		ServerID: serverID,
		Name:     req.Name,
		Type:     models.ChannelType(req.Type),
	}
	if err := s.channelRepo.Create(ctx, ch); err != nil {
		return nil, err
	}
	return ch, nil
}

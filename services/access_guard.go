package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/akinalp/cordlite/models"
	"github.com/akinalp/cordlite/pkg"
	"github.com/akinalp/cordlite/repository"
)

// AccessGuard answers "may this user touch this server or channel". It reads
// the membership table on every call; a removed member loses access on the
// very next request.
type AccessGuard interface {
	// RequireMember returns the caller's membership or pkg.ErrForbidden.
	RequireMember(ctx context.Context, userID, serverID string) (*models.Membership, error)
	// RequireChannelManager additionally requires the owner or admin role.
	RequireChannelManager(ctx context.Context, userID, serverID string) (*models.Membership, error)
	// RequireChannelAccess resolves the channel (pkg.ErrNotFound if unknown)
	// and checks membership of its server.
	RequireChannelAccess(ctx context.Context, userID, channelID string) (*models.Channel, error)
}

type accessGuard struct {
	serverRepo  repository.ServerRepository
	channelRepo repository.ChannelRepository
}

func NewAccessGuard(serverRepo repository.ServerRepository, channelRepo repository.ChannelRepository) AccessGuard {
	return &accessGuard{serverRepo: serverRepo, channelRepo: channelRepo}
}

func (g *accessGuard) RequireMember(ctx context.Context, userID, serverID string) (*models.Membership, error) {
	m, err := g.serverRepo.GetMembership(ctx, userID, serverID)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: Access denied", pkg.ErrForbidden)
		}
		return nil, err
	}
	return m, nil
}

func (g *accessGuard) RequireChannelManager(ctx context.Context, userID, serverID string) (*models.Membership, error) {
	m, err := g.RequireMember(ctx, userID, serverID)
	if err != nil {
		return nil, err
	}
	if !m.Role.CanManageChannels() {
		return nil, fmt.Errorf("%w: Only server owners and admins can create channels", pkg.ErrForbidden)
	}
	return m, nil
}

func (g *accessGuard) RequireChannelAccess(ctx context.Context, userID, channelID string) (*models.Channel, error) {
	ch, err := g.channelRepo.GetByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if _, err := g.RequireMember(ctx, userID, ch.ServerID); err != nil {
		return nil, err
	}
	return ch, nil
}

package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/akinalp/cordlite/config"
	"github.com/akinalp/cordlite/models"
	"github.com/akinalp/cordlite/pkg"
	"github.com/akinalp/cordlite/pkg/logger"
	"github.com/akinalp/cordlite/repository"
	"github.com/akinalp/cordlite/ws"
)

type MessageService interface {
	// Send stores a message and then broadcasts it. Broadcast problems are
	// logged, never returned: the caller only learns whether it was stored.
	Send(ctx context.Context, userID string, req *models.CreateMessageRequest) (*models.Message, error)
	// List returns the channel history, oldest first.
	List(ctx context.Context, userID, channelID string) ([]models.Message, error)
}

type messageService struct {
	messageRepo repository.MessageRepository
	serverRepo  repository.ServerRepository
	guard       AccessGuard
	hub         ws.Broadcaster
	scope       string

	// publishMu makes store order and broadcast order the same: a message
	// is handed to the hub before the next one is stored.
	publishMu sync.Mutex
}

// NewMessageService broadcasts to the members of the channel's server, or to
// every connection when scope is config.BroadcastScopeAll.
func NewMessageService(
	messageRepo repository.MessageRepository,
	serverRepo repository.ServerRepository,
	guard AccessGuard,
	hub ws.Broadcaster,
	scope string,
) MessageService {
	return &messageService{
		messageRepo: messageRepo,
		serverRepo:  serverRepo,
		guard:       guard,
		hub:         hub,
		scope:       scope,
	}
}

func (s *messageService) Send(ctx context.Context, userID string, req *models.CreateMessageRequest) (*models.Message, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", pkg.ErrBadRequest, err)
	}

	ch, err := s.guard.RequireChannelAccess(ctx, userID, req.ChannelID)
	if err != nil {
		return nil, err
	}

	// Once access is granted the store and the fan-out run to completion
	// even if the caller goes away, so a stored message is always published.
	ctx = context.WithoutCancel(ctx)

	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	msg := &models.Message{
		ChannelID: ch.ID,
		UserID:    userID,
		Content:   req.Content,
	}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, err
	}

	s.publish(ctx, ch.ServerID, *msg)
	return msg, nil
}

func (s *messageService) publish(ctx context.Context, serverID string, msg models.Message) {
	env := ws.MessageEnvelope(msg)

	if s.scope == config.BroadcastScopeAll {
		s.hub.BroadcastToAll(env)
		return
	}

	ids, err := s.serverRepo.MemberIDs(ctx, serverID)
	if err != nil {
		logger.Log.Warnw("[message] broadcast skipped, member lookup failed",
			"message_id", msg.ID, "server_id", serverID, "error", err)
		return
	}
	s.hub.BroadcastToUsers(ids, env)
}

func (s *messageService) List(ctx context.Context, userID, channelID string) ([]models.Message, error) {
	if _, err := s.guard.RequireChannelAccess(ctx, userID, channelID); err != nil {
		return nil, err
	}
	return s.messageRepo.ListByChannel(ctx, channelID)
}

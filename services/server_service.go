package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/akinalp/cordlite/database"
	"github.com/akinalp/cordlite/models"
	"github.com/akinalp/cordlite/pkg"
	"github.com/akinalp/cordlite/repository"
)

type ServerService interface {
	// CreateServer inserts the server, the owner membership and the default
	// "general" text channel in one transaction.
	CreateServer(ctx context.Context, ownerID string, req *models.CreateServerRequest) (*CreatedServer, error)
	ListServers(ctx context.Context, userID string) ([]models.ServerWithRole, error)
	// JoinServer adds the user as a plain member. Joining twice is a
	// pkg.ErrBadRequest.
	JoinServer(ctx context.Context, userID, serverID string) (*models.Server, error)
}

type CreatedServer struct {
	Server   models.ServerWithRole `json:"server"`
	Channels []models.Channel      `json:"channels"`
}

type serverService struct {
	db         *sql.DB
	serverRepo repository.ServerRepository

	// Transaction-bound repositories are built per call.
	newServerRepo  func(database.TxQuerier) repository.ServerRepository
	newChannelRepo func(database.TxQuerier) repository.ChannelRepository
}

func NewServerService(db *sql.DB, serverRepo repository.ServerRepository) ServerService {
	return &serverService{
		db:             db,
		serverRepo:     serverRepo,
		newServerRepo:  repository.NewSQLiteServerRepo,
		newChannelRepo: repository.NewSQLiteChannelRepo,
	}
}

func (s *serverService) CreateServer(ctx context.Context, ownerID string, req *models.CreateServerRequest) (*CreatedServer, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", pkg.ErrBadRequest, err)
	}

	server := &models.Server{Name: req.Name, OwnerID: ownerID}
	if req.IconURL != "" {
		icon := req.IconURL
		server.IconURL = &icon
	}
	general := &models.Channel{Name: models.DefaultChannelName, Type: models.ChannelTypeText}

	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		servers := s.newServerRepo(tx)
		channels := s.newChannelRepo(tx)

		if err := servers.Create(ctx, server); err != nil {
			return err
		}
		if err := servers.AddMember(ctx, &models.Membership{
			UserID:   ownerID,
			ServerID: server.ID,
			Role:     models.RoleOwner,
			JoinedAt: server.CreatedAt,
		}); err != nil {
			return err
		}

		general.ServerID = server.ID
		return channels.Create(ctx, general)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	return &CreatedServer{
		Server:   models.ServerWithRole{Server: *server, Role: models.RoleOwner},
		Channels: []models.Channel{*general},
	}, nil
}

func (s *serverService) ListServers(ctx context.Context, userID string) ([]models.ServerWithRole, error) {
	return s.serverRepo.ListForUser(ctx, userID)
}

func (s *serverService) JoinServer(ctx context.Context, userID, serverID string) (*models.Server, error) {
	server, err := s.serverRepo.GetByID(ctx, serverID)
	if err != nil {
		return nil, err
	}

	err = s.serverRepo.AddMember(ctx, &models.Membership{
		UserID:   userID,
		ServerID: serverID,
		Role:     models.RoleMember,
	})
	if errors.Is(err, pkg.ErrAlreadyExists) {
		return nil, fmt.Errorf("%w: Already a member of this server", pkg.ErrBadRequest)
	}
	if err != nil {
		return nil, err
	}
	return server, nil
}

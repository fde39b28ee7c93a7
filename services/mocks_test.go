package services

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/akinalp/cordlite/models"
	"github.com/akinalp/cordlite/ws"
)

type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockUserRepo) Update(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	args := m.Called(ctx, id, patch)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

type mockServerRepo struct{ mock.Mock }

func (m *mockServerRepo) Create(ctx context.Context, server *models.Server) error {
	return m.Called(ctx, server).Error(0)
}

func (m *mockServerRepo) GetByID(ctx context.Context, id string) (*models.Server, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*models.Server)
	return s, args.Error(1)
}

func (m *mockServerRepo) ListForUser(ctx context.Context, userID string) ([]models.ServerWithRole, error) {
	args := m.Called(ctx, userID)
	s, _ := args.Get(0).([]models.ServerWithRole)
	return s, args.Error(1)
}

func (m *mockServerRepo) AddMember(ctx context.Context, mb *models.Membership) error {
	return m.Called(ctx, mb).Error(0)
}

func (m *mockServerRepo) GetMembership(ctx context.Context, userID, serverID string) (*models.Membership, error) {
	args := m.Called(ctx, userID, serverID)
	mb, _ := args.Get(0).(*models.Membership)
	return mb, args.Error(1)
}

func (m *mockServerRepo) MemberIDs(ctx context.Context, serverID string) ([]string, error) {
	args := m.Called(ctx, serverID)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

type mockChannelRepo struct{ mock.Mock }

func (m *mockChannelRepo) Create(ctx context.Context, ch *models.Channel) error {
	return m.Called(ctx, ch).Error(0)
}

func (m *mockChannelRepo) GetByID(ctx context.Context, id string) (*models.Channel, error) {
	args := m.Called(ctx, id)
	ch, _ := args.Get(0).(*models.Channel)
	return ch, args.Error(1)
}

func (m *mockChannelRepo) ListByServer(ctx context.Context, serverID string) ([]models.Channel, error) {
	args := m.Called(ctx, serverID)
	list, _ := args.Get(0).([]models.Channel)
	return list, args.Error(1)
}

type mockMessageRepo struct{ mock.Mock }

func (m *mockMessageRepo) Create(ctx context.Context, msg *models.Message) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *mockMessageRepo) ListByChannel(ctx context.Context, channelID string) ([]models.Message, error) {
	args := m.Called(ctx, channelID)
	list, _ := args.Get(0).([]models.Message)
	return list, args.Error(1)
}

type mockGuard struct{ mock.Mock }

func (m *mockGuard) RequireMember(ctx context.Context, userID, serverID string) (*models.Membership, error) {
	args := m.Called(ctx, userID, serverID)
	mb, _ := args.Get(0).(*models.Membership)
	return mb, args.Error(1)
}

func (m *mockGuard) RequireChannelManager(ctx context.Context, userID, serverID string) (*models.Membership, error) {
	args := m.Called(ctx, userID, serverID)
	mb, _ := args.Get(0).(*models.Membership)
	return mb, args.Error(1)
}

func (m *mockGuard) RequireChannelAccess(ctx context.Context, userID, channelID string) (*models.Channel, error) {
	args := m.Called(ctx, userID, channelID)
	ch, _ := args.Get(0).(*models.Channel)
	return ch, args.Error(1)
}

// recordingHub keeps every broadcast in call order.
type recordingHub struct {
	mu    sync.Mutex
	calls []broadcastCall
}

type broadcastCall struct {
	userIDs []string // nil for BroadcastToAll
	env     ws.Envelope
}

func (h *recordingHub) BroadcastToAll(env ws.Envelope) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, broadcastCall{env: env})
}

func (h *recordingHub) BroadcastToUsers(userIDs []string, env ws.Envelope) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, broadcastCall{userIDs: userIDs, env: env})
}

func (h *recordingHub) snapshot() []broadcastCall {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]broadcastCall(nil), h.calls...)
}

package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/cordlite/config"
	"github.com/akinalp/cordlite/models"
	"github.com/akinalp/cordlite/pkg"
	"github.com/akinalp/cordlite/ws"
)

var general = &models.Channel{ID: "c1", ServerID: "s1", Name: "general", Type: models.ChannelTypeText}

func TestMessageService_SendBroadcastsToMembers(t *testing.T) {
	messages := new(mockMessageRepo)
	servers := new(mockServerRepo)
	guard := new(mockGuard)
	hub := &recordingHub{}
	svc := NewMessageService(messages, servers, guard, hub, config.BroadcastScopeMembers)

	guard.On("RequireChannelAccess", mock.Anything, "u1", "c1").Return(general, nil)
	messages.On("Create", mock.Anything, mock.MatchedBy(func(m *models.Message) bool {
		return m.Content == "hello" && m.ChannelID == "c1" && m.UserID == "u1"
	})).Run(func(args mock.Arguments) {
		m := args.Get(1).(*models.Message)
		m.ID = "m1"
		m.Author.Username = "alice"
		m.CreatedAt = time.Now().UTC()
	}).Return(nil)
	servers.On("MemberIDs", mock.Anything, "s1").Return([]string{"u1", "u2"}, nil)

	msg, err := svc.Send(context.Background(), "u1", &models.CreateMessageRequest{Content: "  hello ", ChannelID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, "m1", msg.ID)

	calls := hub.snapshot()
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"u1", "u2"}, calls[0].userIDs)
	assert.Equal(t, ws.TypeMessage, calls[0].env.Type)
	assert.Equal(t, "m1", calls[0].env.Data.(models.Message).ID)
	mock.AssertExpectationsForObjects(t, messages, servers, guard)
}

func TestMessageService_SendScopeAll(t *testing.T) {
	messages := new(mockMessageRepo)
	servers := new(mockServerRepo)
	guard := new(mockGuard)
	hub := &recordingHub{}
	svc := NewMessageService(messages, servers, guard, hub, config.BroadcastScopeAll)

	guard.On("RequireChannelAccess", mock.Anything, "u1", "c1").Return(general, nil)
	messages.On("Create", mock.Anything, mock.Anything).Return(nil)

	_, err := svc.Send(context.Background(), "u1", &models.CreateMessageRequest{Content: "hi", ChannelID: "c1"})
	require.NoError(t, err)

	calls := hub.snapshot()
	require.Len(t, calls, 1)
	assert.Nil(t, calls[0].userIDs)
	servers.AssertNotCalled(t, "MemberIDs", mock.Anything, mock.Anything)
}

func TestMessageService_SendRejected(t *testing.T) {
	tests := []struct {
		name     string
		req      models.CreateMessageRequest
		guardErr error
		storeErr error
		wantErr  error
	}{
		{"empty content", models.CreateMessageRequest{Content: "   ", ChannelID: "c1"}, nil, nil, pkg.ErrBadRequest},
		{"missing channel id", models.CreateMessageRequest{Content: "hi"}, nil, nil, pkg.ErrBadRequest},
		{"not a member", models.CreateMessageRequest{Content: "hi", ChannelID: "c1"}, fmt.Errorf("%w: Access denied", pkg.ErrForbidden), nil, pkg.ErrForbidden},
		{"store failure", models.CreateMessageRequest{Content: "hi", ChannelID: "c1"}, nil, errors.New("disk full"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			messages := new(mockMessageRepo)
			guard := new(mockGuard)
			hub := &recordingHub{}
			svc := NewMessageService(messages, new(mockServerRepo), guard, hub, config.BroadcastScopeMembers)

			if tt.guardErr != nil {
				guard.On("RequireChannelAccess", mock.Anything, "u1", "c1").Return(nil, tt.guardErr)
			} else {
				guard.On("RequireChannelAccess", mock.Anything, "u1", "c1").Return(general, nil).Maybe()
			}
			messages.On("Create", mock.Anything, mock.Anything).Return(tt.storeErr).Maybe()

			req := tt.req
			_, err := svc.Send(context.Background(), "u1", &req)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.storeErr == nil {
				messages.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			}
			assert.Empty(t, hub.snapshot())
		})
	}
}

func TestMessageService_BroadcastFailureNotReported(t *testing.T) {
	messages := new(mockMessageRepo)
	servers := new(mockServerRepo)
	guard := new(mockGuard)
	hub := &recordingHub{}
	svc := NewMessageService(messages, servers, guard, hub, config.BroadcastScopeMembers)

	guard.On("RequireChannelAccess", mock.Anything, "u1", "c1").Return(general, nil)
	messages.On("Create", mock.Anything, mock.Anything).Return(nil)
	servers.On("MemberIDs", mock.Anything, "s1").Return(nil, errors.New("database is locked"))

	_, err := svc.Send(context.Background(), "u1", &models.CreateMessageRequest{Content: "hi", ChannelID: "c1"})
	assert.NoError(t, err)
	assert.Empty(t, hub.snapshot())
}

// sequencingRepo stamps messages with a strictly increasing number.
type sequencingRepo struct {
	mu  sync.Mutex
	seq int
}

func (r *sequencingRepo) Create(_ context.Context, m *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	m.ID = fmt.Sprintf("%06d", r.seq)
	return nil
}

func (r *sequencingRepo) ListByChannel(context.Context, string) ([]models.Message, error) {
	return nil, nil
}

func TestMessageService_SendSurvivesCallerCancel(t *testing.T) {
	messages := new(mockMessageRepo)
	servers := new(mockServerRepo)
	guard := new(mockGuard)
	hub := &recordingHub{}
	svc := NewMessageService(messages, servers, guard, hub, config.BroadcastScopeMembers)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	live := mock.MatchedBy(func(c context.Context) bool { return c.Err() == nil })
	guard.On("RequireChannelAccess", mock.Anything, "u1", "c1").Return(general, nil)
	messages.On("Create", live, mock.Anything).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Message).ID = "m1"
		// The client hangs up right after the row is written.
		cancel()
	}).Return(nil)
	servers.On("MemberIDs", live, "s1").Return([]string{"u1", "u2"}, nil)

	msg, err := svc.Send(ctx, "u1", &models.CreateMessageRequest{Content: "hi", ChannelID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, "m1", msg.ID)
	assert.Error(t, ctx.Err())

	calls := hub.snapshot()
	require.Len(t, calls, 1, "a stored message is always broadcast")
	assert.Equal(t, []string{"u1", "u2"}, calls[0].userIDs)
	mock.AssertExpectationsForObjects(t, messages, servers, guard)
}

func TestMessageService_BroadcastOrderMatchesStoreOrder(t *testing.T) {
	guard := new(mockGuard)
	guard.On("RequireChannelAccess", mock.Anything, mock.Anything, "c1").Return(general, nil)
	hub := &recordingHub{}
	svc := NewMessageService(&sequencingRepo{}, new(mockServerRepo), guard, hub, config.BroadcastScopeAll)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Send(context.Background(), fmt.Sprintf("u%d", i), &models.CreateMessageRequest{Content: "x", ChannelID: "c1"})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	calls := hub.snapshot()
	require.Len(t, calls, 50)
	for i, c := range calls {
		assert.Equal(t, fmt.Sprintf("%06d", i+1), c.env.Data.(models.Message).ID)
	}
}

func TestMessageService_List(t *testing.T) {
	messages := new(mockMessageRepo)
	guard := new(mockGuard)
	svc := NewMessageService(messages, new(mockServerRepo), guard, &recordingHub{}, config.BroadcastScopeMembers)

	guard.On("RequireChannelAccess", mock.Anything, "u1", "c1").Return(general, nil)
	guard.On("RequireChannelAccess", mock.Anything, "outsider", "c1").Return(nil, fmt.Errorf("%w: Access denied", pkg.ErrForbidden))
	messages.On("ListByChannel", mock.Anything, "c1").Return([]models.Message{{ID: "m1"}, {ID: "m2"}}, nil)

	list, err := svc.List(context.Background(), "u1", "c1")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = svc.List(context.Background(), "outsider", "c1")
	assert.ErrorIs(t, err, pkg.ErrForbidden)
	messages.AssertNumberOfCalls(t, "ListByChannel", 1)
}

// The store-backed path: a non-member is refused on every channel-scoped
// message operation, and a member's messages come back in append order.
func TestMessageService_WithStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	alice := store.user(t, "alice")
	mallory := store.user(t, "mallory")

	created, err := NewServerService(store.db.Conn, store.servers).
		CreateServer(ctx, alice.ID, &models.CreateServerRequest{Name: "Test"})
	require.NoError(t, err)
	channelID := created.Channels[0].ID

	hub := &recordingHub{}
	guard := NewAccessGuard(store.servers, store.channels)
	svc := NewMessageService(store.messages, store.servers, guard, hub, config.BroadcastScopeMembers)

	var ids []string
	for _, text := range []string{"one", "two", "three"} {
		m, err := svc.Send(ctx, alice.ID, &models.CreateMessageRequest{Content: text, ChannelID: channelID})
		require.NoError(t, err)
		ids = append(ids, m.ID)
	}

	list, err := svc.List(ctx, alice.ID, channelID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i, m := range list {
		assert.Equal(t, ids[i], m.ID)
		assert.Equal(t, "alice", m.Author.Username)
	}

	calls := hub.snapshot()
	require.Len(t, calls, 3)
	assert.Equal(t, []string{alice.ID}, calls[0].userIDs)

	_, err = svc.Send(ctx, mallory.ID, &models.CreateMessageRequest{Content: "hi", ChannelID: channelID})
	assert.ErrorIs(t, err, pkg.ErrForbidden)
	_, err = svc.List(ctx, mallory.ID, channelID)
	assert.ErrorIs(t, err, pkg.ErrForbidden)

	_, err = svc.List(ctx, alice.ID, "missing")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

package services

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/cordlite/config"
	"github.com/akinalp/cordlite/models"
	"github.com/akinalp/cordlite/pkg"
)

func TestChannelService_Create(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	alice := store.user(t, "alice")
	created, err := NewServerService(store.db.Conn, store.servers).
		CreateServer(ctx, alice.ID, &models.CreateServerRequest{Name: "Test"})
	require.NoError(t, err)
	serverID := created.Server.ID

	svc := NewChannelService(store.channels)

	tests := []struct {
		name     string
		req      models.CreateChannelRequest
		wantErr  error
		wantType models.ChannelType
	}{
		{"defaults to text", models.CreateChannelRequest{Name: "random"}, nil, models.ChannelTypeText},
		{"voice", models.CreateChannelRequest{Name: "lounge", Type: "voice"}, nil, models.ChannelTypeVoice},
		{"cjk name", models.CreateChannelRequest{Name: "雑談-チャット"}, nil, models.ChannelTypeText},
		{"duplicate ignoring case", models.CreateChannelRequest{Name: "General"}, pkg.ErrAlreadyExists, ""},
		{"spaces not allowed", models.CreateChannelRequest{Name: "two words"}, pkg.ErrBadRequest, ""},
		{"bad type", models.CreateChannelRequest{Name: "x", Type: "video"}, pkg.ErrBadRequest, ""},
		{"blank", models.CreateChannelRequest{Name: "  "}, pkg.ErrBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			ch, err := svc.Create(ctx, serverID, &req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, ch.Type)
			assert.Equal(t, serverID, ch.ServerID)
		})
	}

	list, err := svc.List(ctx, serverID)
	require.NoError(t, err)
	require.Len(t, list, 4)
	assert.Equal(t, "general", list[0].Name)
}

func TestVoiceService_JoinToken(t *testing.T) {
	lk := config.LiveKitConfig{URL: "wss://voice.example.com", APIKey: "key", APISecret: "secret-secret-secret-secret-secret"}
	voice := &models.Channel{ID: "v1", ServerID: "s1", Name: "lounge", Type: models.ChannelTypeVoice}
	text := &models.Channel{ID: "c1", ServerID: "s1", Name: "general", Type: models.ChannelTypeText}

	guard := new(mockGuard)
	guard.On("RequireChannelAccess", mock.Anything, "u1", "v1").Return(voice, nil)
	guard.On("RequireChannelAccess", mock.Anything, "u1", "c1").Return(text, nil)

	t.Run("not configured", func(t *testing.T) {
		_, err := NewVoiceService(guard, config.LiveKitConfig{}).JoinToken(context.Background(), "u1", "alice", "v1")
		assert.ErrorIs(t, err, pkg.ErrBadRequest)
	})

	t.Run("text channel", func(t *testing.T) {
		_, err := NewVoiceService(guard, lk).JoinToken(context.Background(), "u1", "alice", "c1")
		assert.ErrorIs(t, err, pkg.ErrBadRequest)
	})

	t.Run("voice channel", func(t *testing.T) {
		vt, err := NewVoiceService(guard, lk).JoinToken(context.Background(), "u1", "alice", "v1")
		require.NoError(t, err)
		assert.Equal(t, "wss://voice.example.com", vt.URL)
		assert.Equal(t, "v1", vt.ChannelID)

		claims := jwt.MapClaims{}
		_, _, err = jwt.NewParser().ParseUnverified(vt.Token, claims)
		require.NoError(t, err)
		assert.Equal(t, "u1", claims["sub"])
		assert.Equal(t, "key", claims["iss"])
		video, ok := claims["video"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "v1", video["room"])
		assert.Equal(t, true, video["roomJoin"])
	})
}

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/livekit/protocol/auth"

	"github.com/akinalp/cordlite/config"
	"github.com/akinalp/cordlite/models"
	"github.com/akinalp/cordlite/pkg"
)

const voiceTokenTTL = 24 * time.Hour

// VoiceService issues media room tokens for voice channels. The room name is
// the channel id.
type VoiceService interface {
	JoinToken(ctx context.Context, userID, username, channelID string) (*models.VoiceToken, error)
}

type voiceService struct {
	guard AccessGuard
	cfg   config.LiveKitConfig
}

func NewVoiceService(guard AccessGuard, cfg config.LiveKitConfig) VoiceService {
	return &voiceService{guard: guard, cfg: cfg}
}

func (s *voiceService) JoinToken(ctx context.Context, userID, username, channelID string) (*models.VoiceToken, error) {
	if !s.cfg.Enabled() {
		return nil, fmt.Errorf("%w: Voice is not configured on this server", pkg.ErrBadRequest)
	}

	ch, err := s.guard.RequireChannelAccess(ctx, userID, channelID)
	if err != nil {
		return nil, err
	}
	if ch.Type != models.ChannelTypeVoice {
		return nil, fmt.Errorf("%w: Channel is not a voice channel", pkg.ErrBadRequest)
	}

	canPublish := true
	canSubscribe := true
	canPublishData := true
	at := auth.NewAccessToken(s.cfg.APIKey, s.cfg.APISecret)
	at.AddGrant(&auth.VideoGrant{
		RoomJoin:       true,
		Room:           ch.ID,
		CanPublish:     &canPublish,
		CanSubscribe:   &canSubscribe,
		CanPublishData: &canPublishData,
	}).
		SetIdentity(userID).
		SetName(username).
		SetValidFor(voiceTokenTTL)

	token, err := at.ToJWT()
	if err != nil {
		return nil, fmt.Errorf("failed to sign voice token: %w", err)
	}

	return &models.VoiceToken{Token: token, URL: s.cfg.URL, ChannelID: ch.ID}, nil
}

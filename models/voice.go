package models

// VoiceToken lets a client join the media room of a voice channel.
type VoiceToken struct {
	Token     string `json:"token"`
	URL       string `json:"url"`
	ChannelID string `json:"channel_id"`
}

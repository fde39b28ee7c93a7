package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxMessageLength is the longest accepted message, in runes.
const MaxMessageLength = 2000

// Message is an immutable chat record. CreatedAt is assigned by the store and
// is always UTC; (CreatedAt, ID) is the ordering key within a channel.
type Message struct {
	ID        string        `json:"id"`
	Content   string        `json:"content"`
	Author    MessageAuthor `json:"author"`
	UserID    string        `json:"author_id"`
	ChannelID string        `json:"channel_id"`
	CreatedAt time.Time     `json:"created_at"`
}

// MessageAuthor is the public part of the author carried with each message.
type MessageAuthor struct {
	Username string `json:"username"`
}

// CreateMessageRequest is the body of POST /api/messages.
type CreateMessageRequest struct {
	Content   string `json:"content"`
	ChannelID string `json:"channel_id"`
}

func (r *CreateMessageRequest) Validate() error {
	r.Content = strings.TrimSpace(r.Content)
	r.ChannelID = strings.TrimSpace(r.ChannelID)
	if r.Content == "" {
		return fmt.Errorf("Content is required")
	}
	if utf8.RuneCountInString(r.Content) > MaxMessageLength {
		return fmt.Errorf("Content must be %d characters or less", MaxMessageLength)
	}
	if r.ChannelID == "" {
		return fmt.Errorf("channel_id is required")
	}
	return nil
}

package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

type ChannelType string

const (
	ChannelTypeText  ChannelType = "text"
	ChannelTypeVoice ChannelType = "voice"
)

// Channel belongs to one server. Names are unique per server, ignoring case.
type Channel struct {
	ID        string      `json:"id"`
	ServerID  string      `json:"server_id"`
	Name      string      `json:"name"`
	Type      ChannelType `json:"type"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// CreateChannelRequest is the body of POST /api/servers/{serverId}/channels.
type CreateChannelRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Validate trims the name and defaults the type to text.
func (r *CreateChannelRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return fmt.Errorf("Channel name is required")
	}
	if utf8.RuneCountInString(r.Name) > 100 {
		return fmt.Errorf("Channel name must be 100 characters or less")
	}
	for _, ch := range r.Name {
		if !isChannelNameChar(ch) {
			return fmt.Errorf("Channel name contains invalid characters")
		}
	}

	if r.Type == "" {
		r.Type = string(ChannelTypeText)
	}
	if r.Type != string(ChannelTypeText) && r.Type != string(ChannelTypeVoice) {
		return fmt.Errorf("Invalid channel type")
	}
	return nil
}

// isChannelNameChar allows ASCII letters and digits, '_' and '-', Hiragana,
// Katakana and the CJK Unified Ideographs block up to U+9FAF.
func isChannelNameChar(ch rune) bool {
	switch {
	case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
		return true
	case ch == '_' || ch == '-':
		return true
	case ch >= 0x3040 && ch <= 0x309F: // Hiragana
		return true
	case ch >= 0x30A0 && ch <= 0x30FF: // Katakana
		return true
	case ch >= 0x4E00 && ch <= 0x9FAF: // CJK
		return true
	}
	return false
}

package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultChannelName is the text channel every new server starts with.
const DefaultChannelName = "general"

// Server is a community that owns channels and memberships.
type Server struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	IconURL   *string   `json:"icon_url"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ServerWithRole is a server as seen by one member.
type ServerWithRole struct {
	Server
	Role Role `json:"role"`
}

// CreateServerRequest is the body of POST /api/servers.
type CreateServerRequest struct {
	Name    string `json:"name"`
	IconURL string `json:"icon_url"`
}

func (r *CreateServerRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return fmt.Errorf("Server name is required")
	}
	if utf8.RuneCountInString(r.Name) > 100 {
		return fmt.Errorf("Server name must be 100 characters or less")
	}
	r.IconURL = strings.TrimSpace(r.IconURL)
	return nil
}

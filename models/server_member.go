package models

import "time"

// Role is a member's rank inside one server.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// CanManageChannels reports whether the role may create channels.
func (r Role) CanManageChannels() bool {
	return r == RoleOwner || r == RoleAdmin
}

// Membership links one user to one server. There is at most one row per pair.
type Membership struct {
	UserID   string    `json:"user_id"`
	ServerID string    `json:"server_id"`
	Role     Role      `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

package models

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"
)

// User is a registered account. PasswordHash never leaves the server.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	AvatarURL    *string   `json:"avatar_url"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate trims and normalizes the request in place.
func (r *RegisterRequest) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	if err := validateUsername(r.Username); err != nil {
		return err
	}

	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	if !validEmail(r.Email) {
		return fmt.Errorf("Invalid email format")
	}

	if utf8.RuneCountInString(r.Password) < 8 {
		return fmt.Errorf("Password must be at least 8 characters")
	}
	return nil
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	if r.Email == "" || r.Password == "" {
		return fmt.Errorf("Email and password are required")
	}
	return nil
}

// UserPatch is a partial profile update. Each field is independently present
// or absent; an empty or null avatar_url clears the avatar.
type UserPatch struct {
	Username  Optional[string] `json:"username"`
	AvatarURL Optional[string] `json:"avatar_url"`
}

// IsEmpty reports whether the patch changes nothing.
func (p *UserPatch) IsEmpty() bool {
	return !p.Username.Set && !p.AvatarURL.Set
}

// ClearsAvatar reports whether the patch removes the avatar.
func (p *UserPatch) ClearsAvatar() bool {
	return p.AvatarURL.Set && (p.AvatarURL.Null || p.AvatarURL.Value == "")
}

func (p *UserPatch) Validate() error {
	if p.IsEmpty() {
		return fmt.Errorf("No fields to update")
	}
	if p.Username.Set {
		if p.Username.Null {
			return fmt.Errorf("Username cannot be null")
		}
		p.Username.Value = strings.TrimSpace(p.Username.Value)
		if err := validateUsername(p.Username.Value); err != nil {
			return err
		}
	}
	if p.AvatarURL.Set && !p.AvatarURL.Null {
		p.AvatarURL.Value = strings.TrimSpace(p.AvatarURL.Value)
		if utf8.RuneCountInString(p.AvatarURL.Value) > 2048 {
			return fmt.Errorf("Avatar URL must be 2048 characters or less")
		}
	}
	return nil
}

func validateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n < 3 || n > 50 {
		return fmt.Errorf("Username must be between 3 and 50 characters")
	}
	for _, ch := range username {
		if !isUsernameChar(ch) {
			return fmt.Errorf("Username can only contain letters, numbers, and underscores")
		}
	}
	return nil
}

func isUsernameChar(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') ||
		(ch >= 'A' && ch <= 'Z') ||
		(ch >= '0' && ch <= '9') ||
		ch == '_'
}

// validEmail accepts a bare address ("a@b.c"), not a display-name form.
func validEmail(email string) bool {
	if email == "" || len(email) > 254 {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	at := strings.LastIndex(email, "@")
	return at > 0 && strings.Contains(email[at+1:], ".")
}

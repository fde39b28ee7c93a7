package models

import "github.com/golang-jwt/jwt/v5"

// TokenClaims is the payload of a session credential.
type TokenClaims struct {
	UserID   string `json:"userId"`
	Email    string `json:"email"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

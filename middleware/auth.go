// Package middleware wraps handlers with authentication, membership checks
// and request logging.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/akinalp/cordlite/handlers"
	"github.com/akinalp/cordlite/models"
	"github.com/akinalp/cordlite/pkg"
)

type TokenValidator interface {
	ValidateToken(token string) (*models.TokenClaims, error)
}

// AuthMiddleware verifies the bearer token and puts its claims in the
// request context. Verification only needs the signing secret; nothing is
// looked up.
type AuthMiddleware struct {
	tokens TokenValidator
}

func NewAuthMiddleware(tokens TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

func (m *AuthMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(token) == "" {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "Access token required")
			return
		}

		claims, err := m.tokens.ValidateToken(strings.TrimSpace(token))
		if err != nil {
			pkg.Error(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), handlers.ClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

package middleware

import (
	"context"
	"net/http"

	"github.com/akinalp/cordlite/handlers"
	"github.com/akinalp/cordlite/models"
	"github.com/akinalp/cordlite/pkg"
	"github.com/akinalp/cordlite/services"
)

// ServerMembershipMiddleware guards /api/servers/{serverId}/... routes. It
// must run after AuthMiddleware.
type ServerMembershipMiddleware struct {
	guard services.AccessGuard
}

func NewServerMembershipMiddleware(guard services.AccessGuard) *ServerMembershipMiddleware {
	return &ServerMembershipMiddleware{guard: guard}
}

// Require admits members of the server and stores their membership in the
// context.
func (m *ServerMembershipMiddleware) Require(next http.Handler) http.Handler {
	return m.check(next, m.guard.RequireMember)
}

// RequireChannelManager admits owners and admins only.
func (m *ServerMembershipMiddleware) RequireChannelManager(next http.Handler) http.Handler {
	return m.check(next, m.guard.RequireChannelManager)
}

func (m *ServerMembershipMiddleware) check(
	next http.Handler,
	verify func(ctx context.Context, userID, serverID string) (*models.Membership, error),
) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := r.Context().Value(handlers.ClaimsContextKey).(*models.TokenClaims)
		if !ok {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "Access token required")
			return
		}

		serverID := r.PathValue("serverId")
		if serverID == "" {
			pkg.ErrorWithMessage(w, http.StatusBadRequest, "serverId is required")
			return
		}

		membership, err := verify(r.Context(), claims.UserID, serverID)
		if err != nil {
			pkg.Error(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), handlers.MembershipContextKey, membership)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

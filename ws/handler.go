package ws

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/akinalp/cordlite/models"
	"github.com/akinalp/cordlite/pkg"
	"github.com/akinalp/cordlite/pkg/logger"
)

// TokenValidator resolves the ?token= query parameter to its claims.
type TokenValidator interface {
	ValidateToken(token string) (*models.TokenClaims, error)
}

// Handler upgrades GET /ws requests and hands the connection to the hub.
type Handler struct {
	hub            *Hub
	tokenValidator TokenValidator
	upgrader       websocket.Upgrader
}

// NewHandler accepts browser origins from allowedOrigins ("*" allows any).
// Requests without an Origin header, such as non-browser clients, are always
// accepted.
func NewHandler(hub *Hub, tokenValidator TokenValidator, allowedOrigins []string) *Handler {
	return &Handler{
		hub:            hub,
		tokenValidator: tokenValidator,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}

// HandleConnection upgrades GET /ws?token=<jwt>. Browsers cannot set headers
// on a WebSocket handshake, so the token travels in the query string.
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "Access token required")
		return
	}

	claims, err := h.tokenValidator.ValidateToken(token)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Warnw("[ws] upgrade failed", "user_id", claims.UserID, "error", err)
		return
	}

	client := NewClient(h.hub, conn, claims.UserID)
	if !h.hub.Register(client) {
		_ = conn.Close()
		return
	}

	client.ReadPump()
}

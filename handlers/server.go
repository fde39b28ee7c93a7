package handlers

import (
	"net/http"

	"github.com/akinalp/cordlite/models"
	"github.com/akinalp/cordlite/pkg"
	"github.com/akinalp/cordlite/services"
)

type ServerHandler struct {
	serverService services.ServerService
}

func NewServerHandler(serverService services.ServerService) *ServerHandler {
	return &ServerHandler{serverService: serverService}
}

// List handles GET /api/servers.
func (h *ServerHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "Access token required")
		return
	}

	servers, err := h.serverService.ListServers(r.Context(), claims.UserID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]any{"servers": servers})
}

// Create handles POST /api/servers.
func (h *ServerHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "Access token required")
		return
	}

	var req models.CreateServerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	created, err := h.serverService.CreateServer(r.Context(), claims.UserID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, map[string]any{
		"message":  "Server created successfully",
		"server":   created.Server,
		"channels": created.Channels,
	})
}

// Join handles POST /api/servers/{serverId}/join.
func (h *ServerHandler) Join(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "Access token required")
		return
	}

	server, err := h.serverService.JoinServer(r.Context(), claims.UserID, r.PathValue("serverId"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]any{
		"message": "Successfully joined server",
		"server":  server,
	})
}

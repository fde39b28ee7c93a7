package handlers

import (
	"net/http"

	"github.com/akinalp/cordlite/models"
	"github.com/akinalp/cordlite/pkg"
	"github.com/akinalp/cordlite/services"
)

// ChannelHandler serves /api/servers/{serverId}/channels. Both routes sit
// behind the membership middleware; Create also behind the manager check.
type ChannelHandler struct {
	channelService services.ChannelService
}

func NewChannelHandler(channelService services.ChannelService) *ChannelHandler {
	return &ChannelHandler{channelService: channelService}
}

func (h *ChannelHandler) List(w http.ResponseWriter, r *http.Request) {
	m, ok := membershipFrom(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusForbidden, "Access denied")
		return
	}

	channels, err := h.channelService.List(r.Context(), m.ServerID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]any{"channels": channels})
}

func (h *ChannelHandler) Create(w http.ResponseWriter, r *http.Request) {
	m, ok := membershipFrom(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusForbidden, "Access denied")
		return
	}

	var req models.CreateChannelRequest
	if err := decodeJSON(w, r, &req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ch, err := h.channelService.Create(r.Context(), m.ServerID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, map[string]any{
		"message": "Channel created successfully",
		"channel": ch,
	})
}

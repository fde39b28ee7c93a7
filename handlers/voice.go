package handlers

import (
	"net/http"

	"github.com/akinalp/cordlite/pkg"
	"github.com/akinalp/cordlite/services"
)

type VoiceHandler struct {
	voiceService services.VoiceService
}

func NewVoiceHandler(voiceService services.VoiceService) *VoiceHandler {
	return &VoiceHandler{voiceService: voiceService}
}

// Token handles POST /api/channels/{channelId}/voice-token.
func (h *VoiceHandler) Token(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "Access token required")
		return
	}

	vt, err := h.voiceService.JoinToken(r.Context(), claims.UserID, claims.Username, r.PathValue("channelId"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, vt)
}

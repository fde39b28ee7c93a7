package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/akinalp/cordlite/models"
	"github.com/akinalp/cordlite/pkg"
	"github.com/akinalp/cordlite/pkg/ratelimit"
	"github.com/akinalp/cordlite/services"
)

type MessageHandler struct {
	messageService services.MessageService
	limiter        *ratelimit.MessageRateLimiter
}

// NewMessageHandler takes an optional per-user send limiter; nil disables it.
func NewMessageHandler(messageService services.MessageService, limiter *ratelimit.MessageRateLimiter) *MessageHandler {
	return &MessageHandler{messageService: messageService, limiter: limiter}
}

// List handles GET /api/messages?channel_id=.
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "Access token required")
		return
	}

	channelID := strings.TrimSpace(r.URL.Query().Get("channel_id"))
	if channelID == "" {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "channel_id is required")
		return
	}

	messages, err := h.messageService.List(r.Context(), claims.UserID, channelID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]any{"messages": messages})
}

// Create handles POST /api/messages. The sender sees its own message through
// the broadcast like everyone else; the response is only a receipt.
func (h *MessageHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "Access token required")
		return
	}

	if h.limiter != nil && !h.limiter.Allow(claims.UserID) {
		wait := h.limiter.CooldownSeconds(claims.UserID)
		w.Header().Set("Retry-After", strconv.Itoa(wait))
		pkg.ErrorWithMessage(w, http.StatusTooManyRequests,
			fmt.Sprintf("You are sending messages too fast, please wait %s", ratelimit.FormatRetryMessage(wait)))
		return
	}

	var req models.CreateMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	msg, err := h.messageService.Send(r.Context(), claims.UserID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, map[string]any{
		"message": "Message sent successfully",
		"data":    msg,
	})
}

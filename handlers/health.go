package handlers

import (
	"net/http"
	"time"

	"github.com/akinalp/cordlite/pkg"
)

// ConnectionCounter reports the number of live WebSocket connections.
type ConnectionCounter interface {
	ConnectionCount() int
}

type HealthHandler struct {
	conns ConnectionCounter
}

func NewHealthHandler(conns ConnectionCounter) *HealthHandler {
	return &HealthHandler{conns: conns}
}

// Check handles GET /health.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	pkg.JSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"connections": h.conns.ConnectionCount(),
	})
}

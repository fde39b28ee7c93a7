package main

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/akinalp/cordlite/config"
	mw "github.com/akinalp/cordlite/middleware"
	"github.com/akinalp/cordlite/pkg/logger"
)

func initRoutes(mux *http.ServeMux, h *Handlers, svcs *Services) {
	authMw := mw.NewAuthMiddleware(svcs.Auth)
	serverMw := mw.NewServerMembershipMiddleware(svcs.Guard)

	auth := func(handler http.HandlerFunc) http.Handler {
		return authMw.Require(handler)
	}
	authServer := func(handler http.HandlerFunc) http.Handler {
		return authMw.Require(serverMw.Require(handler))
	}
	authServerManager := func(handler http.HandlerFunc) http.Handler {
		return authMw.Require(serverMw.RequireChannelManager(handler))
	}

	mux.HandleFunc("GET /health", h.Health.Check)

	// Auth
	mux.HandleFunc("POST /api/auth/register", h.Auth.Register)
	mux.HandleFunc("POST /api/auth/login", h.Auth.Login)
	mux.Handle("POST /api/auth/logout", auth(h.Auth.Logout))
	mux.Handle("GET /api/auth/me", auth(h.Auth.Me))
	mux.Handle("PUT /api/auth/me", auth(h.Auth.UpdateMe))

	// Servers
	mux.Handle("GET /api/servers", auth(h.Server.List))
	mux.Handle("POST /api/servers", auth(h.Server.Create))
	mux.Handle("POST /api/servers/{serverId}/join", auth(h.Server.Join))

	// Channels
	mux.Handle("GET /api/servers/{serverId}/channels", authServer(h.Channel.List))
	mux.Handle("POST /api/servers/{serverId}/channels", authServerManager(h.Channel.Create))
	mux.Handle("POST /api/channels/{channelId}/voice-token", auth(h.Voice.Token))

	// Messages; membership is checked against the channel's server in the service.
	mux.Handle("GET /api/messages", auth(h.Message.List))
	mux.Handle("POST /api/messages", auth(h.Message.Create))

	mux.HandleFunc("GET /ws", h.WS.HandleConnection)
}

// buildHandler wraps the mux with the outer middleware, outermost first:
// panic recovery, client IP resolution (only behind a trusted proxy),
// access log, CORS.
func buildHandler(mux *http.ServeMux, cfg *config.Config) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: true,
	})

	var handler http.Handler = c.Handler(mux)
	handler = mw.Logging(logger.Log)(handler)
	if cfg.Server.TrustProxy {
		handler = middleware.RealIP(handler)
	}
	handler = middleware.Recoverer(handler)
	return handler
}

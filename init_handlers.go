package main

import (
	"github.com/akinalp/cordlite/config"
	"github.com/akinalp/cordlite/handlers"
	"github.com/akinalp/cordlite/ws"
)

type Handlers struct {
	Health  *handlers.HealthHandler
	Auth    *handlers.AuthHandler
	Server  *handlers.ServerHandler
	Channel *handlers.ChannelHandler
	Message *handlers.MessageHandler
	Voice   *handlers.VoiceHandler
	WS      *ws.Handler
}

func initHandlers(svcs *Services, limiters *Limiters, hub *ws.Hub, cfg *config.Config) *Handlers {
	return &Handlers{
		Health:  handlers.NewHealthHandler(hub),
		Auth:    handlers.NewAuthHandler(svcs.Auth, limiters.Login),
		Server:  handlers.NewServerHandler(svcs.Server),
		Channel: handlers.NewChannelHandler(svcs.Channel),
		Message: handlers.NewMessageHandler(svcs.Message, limiters.Message),
		Voice:   handlers.NewVoiceHandler(svcs.Voice),
		WS:      ws.NewHandler(hub, svcs.Auth, cfg.CORS.AllowedOrigins),
	}
}

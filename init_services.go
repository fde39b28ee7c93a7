package main

import (
	"database/sql"

	"github.com/redis/go-redis/v9"

	"github.com/akinalp/cordlite/config"
	"github.com/akinalp/cordlite/pkg/logger"
	"github.com/akinalp/cordlite/pkg/ratelimit"
	"github.com/akinalp/cordlite/services"
	"github.com/akinalp/cordlite/ws"
)

type Services struct {
	Auth    services.AuthService
	Guard   services.AccessGuard
	Server  services.ServerService
	Channel services.ChannelService
	Message services.MessageService
	Voice   services.VoiceService
}

func initServices(db *sql.DB, repos *Repositories, hub ws.Broadcaster, cfg *config.Config) *Services {
	guard := services.NewAccessGuard(repos.Server, repos.Channel)

	return &Services{
		Auth:    services.NewAuthService(repos.User, cfg.JWT.Secret, cfg.JWT.TokenTTL()),
		Guard:   guard,
		Server:  services.NewServerService(db, repos.Server),
		Channel: services.NewChannelService(repos.Channel),
		Message: services.NewMessageService(repos.Message, repos.Server, guard, hub, cfg.Broadcast.Scope),
		Voice:   services.NewVoiceService(guard, cfg.LiveKit),
	}
}

// Limiters holds the rate limiters and how to stop their background work.
type Limiters struct {
	Login   ratelimit.LoginLimiter
	Message *ratelimit.MessageRateLimiter
	stop    []func()
}

// initLimiters uses Redis for login attempts when a client is available so
// the count is shared across instances; otherwise memory.
func initLimiters(cfg config.RateLimitConfig, rdb *redis.Client) *Limiters {
	l := &Limiters{}

	if rdb != nil {
		l.Login = ratelimit.NewRedisLoginLimiter(rdb, cfg.LoginAttempts, cfg.LoginWindow)
		logger.Log.Infow("[main] login rate limiting backed by redis")
	} else {
		mem := ratelimit.NewMemoryLoginLimiter(cfg.LoginAttempts, cfg.LoginWindow)
		l.Login = mem
		l.stop = append(l.stop, mem.Stop)
	}

	l.Message = ratelimit.NewMessageRateLimiter(cfg.Messages, cfg.MessageWindow, cfg.MessageCooldown)
	l.stop = append(l.stop, l.Message.Stop)
	return l
}

func (l *Limiters) Stop() {
	for _, stop := range l.stop {
		stop()
	}
}

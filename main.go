// Package main wires the chat server together: config, database,
// repositories, the WebSocket hub, services, handlers and routes, then
// serves HTTP until SIGINT or SIGTERM.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akinalp/cordlite/config"
	"github.com/akinalp/cordlite/database"
	"github.com/akinalp/cordlite/pkg/logger"
	"github.com/akinalp/cordlite/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Initialize(cfg.Log.Level); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	log := logger.Log
	log.Infow("[main] chat server starting", "port", cfg.Server.Port, "broadcast_scope", cfg.Broadcast.Scope)

	db, err := database.New(cfg.Database.Path, database.Migrations())
	if err != nil {
		log.Fatalw("[main] failed to initialize database", "error", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient(cfg.Redis)
	if cfg.Redis.Addr != "" && rdb == nil {
		log.Warnw("[main] redis unreachable, using in-memory rate limiting", "addr", cfg.Redis.Addr)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := ws.NewHub()
	go hub.Run(ctx)

	repos := initRepositories(db.Conn)
	defer repos.Close()
	svcs := initServices(db.Conn, repos, hub, cfg)
	limiters := initLimiters(cfg.RateLimit, rdb)
	h := initHandlers(svcs, limiters, hub, cfg)

	mux := http.NewServeMux()
	initRoutes(mux, h, svcs)

	if !cfg.LiveKit.Enabled() {
		log.Infow("[main] voice tokens disabled, LIVEKIT_API_KEY/LIVEKIT_API_SECRET not set")
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      buildHandler(mux, cfg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Infow("[main] listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("[main] server error", "error", err)
		}
	}()

	<-done
	log.Infow("[main] shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := hub.Shutdown(shutdownCtx); err != nil {
		log.Warnw("[main] hub shutdown incomplete", "error", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("[main] http shutdown failed", "error", err)
	}

	limiters.Stop()
	if rdb != nil {
		_ = rdb.Close()
	}
	log.Infow("[main] stopped")
}

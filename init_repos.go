package main

import (
	"database/sql"
	"time"

	"github.com/akinalp/cordlite/repository"
)

// memberCacheTTL bounds how stale a members-scoped broadcast list can be when
// membership changes outside this process.
const memberCacheTTL = 30 * time.Second

// Repositories groups the pool-bound stores. Transaction-bound ones are
// built inside the service that needs them.
type Repositories struct {
	User    repository.UserRepository
	Server  repository.ServerRepository
	Channel repository.ChannelRepository
	Message repository.MessageRepository

	serverCache *repository.CachedServerRepo
}

func initRepositories(conn *sql.DB) *Repositories {
	servers := repository.NewCachedServerRepo(repository.NewSQLiteServerRepo(conn), memberCacheTTL)

	return &Repositories{
		User:        repository.NewSQLiteUserRepo(conn),
		Server:      servers,
		Channel:     repository.NewSQLiteChannelRepo(conn),
		Message:     repository.NewSQLiteMessageRepo(conn),
		serverCache: servers,
	}
}

func (r *Repositories) Close() {
	r.serverCache.Close()
}

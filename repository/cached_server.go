package repository

import (
	"context"
	"sync"
	"time"

	"github.com/akinalp/cordlite/models"
	"github.com/akinalp/cordlite/pkg/cache"
)

// CachedServerRepo memoizes MemberIDs, which members-scoped broadcasts call
// on every message. AddMember through this repo invalidates the server's
// entry; writes made elsewhere show up once the entry expires.
type CachedServerRepo struct {
	ServerRepository
	members *cache.TTLCache[string, []string]

	mu  sync.Mutex
	gen map[string]uint64
}

func NewCachedServerRepo(inner ServerRepository, ttl time.Duration) *CachedServerRepo {
	return &CachedServerRepo{
		ServerRepository: inner,
		members:          cache.New[string, []string](ttl, 2*ttl),
		gen:              make(map[string]uint64),
	}
}

func (r *CachedServerRepo) MemberIDs(ctx context.Context, serverID string) ([]string, error) {
	if ids, ok := r.members.Get(serverID); ok {
		return append([]string(nil), ids...), nil
	}

	r.mu.Lock()
	gen := r.gen[serverID]
	r.mu.Unlock()

	ids, err := r.ServerRepository.MemberIDs(ctx, serverID)
	if err != nil {
		return nil, err
	}

	// A join that landed during the query must not be hidden by a stale list.
	r.mu.Lock()
	if r.gen[serverID] == gen {
		r.members.Set(serverID, append([]string(nil), ids...))
	}
	r.mu.Unlock()
	return ids, nil
}

func (r *CachedServerRepo) AddMember(ctx context.Context, m *models.Membership) error {
	if err := r.ServerRepository.AddMember(ctx, m); err != nil {
		return err
	}

	r.mu.Lock()
	r.gen[m.ServerID]++
	r.members.Delete(m.ServerID)
	r.mu.Unlock()
	return nil
}

// Close stops the cache sweep.
func (r *CachedServerRepo) Close() {
	r.members.Close()
}

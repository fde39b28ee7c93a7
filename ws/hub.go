package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/akinalp/cordlite/pkg/logger"
)

// Broadcaster is what services publish through. *Hub implements it.
type Broadcaster interface {
	BroadcastToAll(env Envelope)
	BroadcastToUsers(userIDs []string, env Envelope)
}

// Hub tracks live connections by user. Registration and deregistration are
// serialized through Run; broadcasts only take the read lock and never block
// on a connection, so one stalled socket cannot hold up the others.
//
// A Hub is created once in main and handed to whoever needs it.
type Hub struct {
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
	closed  bool

	register   chan *Client
	unregister chan *Client

	quit     chan struct{}
	quitOnce sync.Once

	// writers counts running write pumps so Shutdown can wait for close
	// frames to go out.
	writers sync.WaitGroup
}

// NewHub returns an idle hub; start it with Run.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
	}
}

// Run processes registrations until ctx is cancelled or Shutdown is called,
// then closes every connection.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		h.stop()
		h.closeAll()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.quit:
			return
		case c := <-h.register:
			h.addClient(c)
		case c := <-h.unregister:
			h.removeClient(c)
		}
	}
}

// Register hands a connecting client to Run. It returns false once the hub
// is shutting down.
func (h *Hub) Register(c *Client) bool {
	select {
	case <-h.quit:
		return false
	default:
	}

	select {
	case h.register <- c:
		return true
	case <-h.quit:
		return false
	}
}

// Unregister removes c from the live set. Safe to call more than once.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.quit:
	}
}

// Shutdown stops Run, closes all connections and waits for their write pumps
// to finish or ctx to expire.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.stop()
	h.closeAll()

	done := make(chan struct{})
	go func() {
		h.writers.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) stop() {
	h.quitOnce.Do(func() { close(h.quit) })
}

// addClient queues the welcome before the client becomes visible to
// broadcasts, so it is always the first frame.
func (h *Hub) addClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		c.state.Store(int32(StateClosed))
		_ = c.conn.Close()
		return
	}

	if data, err := json.Marshal(WelcomeEnvelope()); err == nil {
		c.send <- data
	}

	if _, ok := h.clients[c.userID]; !ok {
		h.clients[c.userID] = make(map[*Client]struct{})
	}
	h.clients[c.userID][c] = struct{}{}
	c.state.Store(int32(StateOpen))

	h.writers.Add(1)
	go func() {
		defer h.writers.Done()
		c.WritePump()
	}()

	logger.Log.Infow("[ws] client connected",
		"user_id", c.userID, "conn_id", c.id, "user_connections", len(h.clients[c.userID]))
}

// removeClient is the only place besides closeAll that closes c.send; both
// hold the write lock, and every sender holds the read lock.
func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.userID]
	if !ok {
		return
	}
	if _, exists := set[c]; !exists {
		return
	}

	delete(set, c)
	c.state.Store(int32(StateClosed))
	close(c.send)

	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
	logger.Log.Infow("[ws] client disconnected", "user_id", c.userID, "conn_id", c.id)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true

	n := 0
	for _, set := range h.clients {
		for c := range set {
			c.state.Store(int32(StateClosed))
			close(c.send)
			n++
		}
	}
	h.clients = make(map[string]map[*Client]struct{})
	logger.Log.Infow("[ws] hub shut down", "closed_connections", n)
}

// BroadcastToAll delivers env to every open connection.
func (h *Hub) BroadcastToAll(env Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		logger.Log.Errorw("[ws] failed to marshal broadcast", "type", env.Type, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, set := range h.clients {
		for c := range set {
			h.deliver(c, data)
		}
	}
}

// BroadcastToUsers delivers env to every open connection of the given users.
func (h *Hub) BroadcastToUsers(userIDs []string, env Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		logger.Log.Errorw("[ws] failed to marshal broadcast", "type", env.Type, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, id := range userIDs {
		for c := range h.clients[id] {
			h.deliver(c, data)
		}
	}
}

// sendTo queues data for a single connection if it is still live.
func (h *Hub) sendTo(c *Client, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if _, ok := h.clients[c.userID][c]; ok {
		h.deliver(c, data)
	}
}

// deliver must be called with h.mu held for reading. A full queue drops the
// connection; the error is not reported to whoever triggered the broadcast.
func (h *Hub) deliver(c *Client, data []byte) {
	if c.State() != StateOpen {
		return
	}

	select {
	case c.send <- data:
	default:
		if c.state.CompareAndSwap(int32(StateOpen), int32(StateClosed)) {
			logger.Log.Warnw("[ws] send queue full, dropping connection", "user_id", c.userID, "conn_id", c.id)
			go h.Unregister(c)
		}
	}
}

// ConnectionCount returns the number of live connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

package ws

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/akinalp/cordlite/pkg/logger"
)

const (
	writeWait = 10 * time.Second

	// pongWait is three missed 30s heartbeats.
	pongWait = 90 * time.Second

	maxMessageSize = 4096

	sendBufferSize = 256
)

// ConnState is the lifecycle of one connection: Connecting until the hub
// accepts it, Open while it receives broadcasts, Closed afterwards.
type ConnState int32

const (
	StateConnecting ConnState = iota
	StateOpen
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Client is one WebSocket connection. The hub starts WritePump on
// registration; the HTTP handler goroutine runs ReadPump.
type Client struct {
	id     string
	hub    *Hub
	conn   *websocket.Conn
	userID string
	send   chan []byte
	state  atomic.Int32
	mu     sync.Mutex // guards conn writes
}

// NewClient wraps an upgraded connection for userID. It receives nothing
// until Hub.Register accepts it.
func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		id:     uuid.NewString(),
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, sendBufferSize),
	}
}

// State is the connection's current lifecycle state.
func (c *Client) State() ConnState {
	return ConnState(c.state.Load())
}

// UserID is the authenticated user the connection belongs to.
func (c *Client) UserID() string {
	return c.userID
}

// ReadPump reads until the socket fails or goes quiet for pongWait, then
// deregisters the client.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Log.Infow("[ws] unexpected close", "user_id", c.userID, "conn_id", c.id, "error", err)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			logger.Log.Debugw("[ws] ignoring malformed frame", "user_id", c.userID, "error", err)
			continue
		}

		if env.Type == TypeHeartbeat {
			if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
				return
			}
			c.sendEnvelope(Envelope{Type: TypeHeartbeatAck})
		}
	}
}

func (c *Client) sendEnvelope(env Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		return
	}
	c.hub.sendTo(c, data)
}

// WritePump drains the send queue into the socket. A closed queue means the
// hub dropped the connection: send a close frame and stop.
func (c *Client) WritePump() {
	defer func() { _ = c.conn.Close() }()

	for message := range c.send {
		if err := c.writeMessage(websocket.TextMessage, message); err != nil {
			// The read side notices the closed socket and deregisters.
			return
		}
	}
	_ = c.writeMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (c *Client) writeMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}

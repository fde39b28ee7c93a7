// Package ws holds the live connection side of the chat server: a Hub that
// owns the set of open WebSocket connections and fans every stored message
// out to them.
//
// Channel filtering is not done here. Every connection in scope receives
// every message envelope and the receiving client keeps the ones for the
// channel it is viewing.
package ws

import "github.com/akinalp/cordlite/models"

// Envelope is one frame on the wire in either direction.
type Envelope struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Server to client.
const (
	TypeWelcome      = "welcome"
	TypeMessage      = "message"
	TypeHeartbeatAck = "heartbeat_ack"
)

// Client to server.
const (
	TypeHeartbeat = "heartbeat"
)

const welcomeText = "Connected to chat server"

// WelcomeEnvelope is the first frame sent on every new connection.
func WelcomeEnvelope() Envelope {
	return Envelope{Type: TypeWelcome, Message: welcomeText}
}

// MessageEnvelope wraps a stored message for broadcast.
func MessageEnvelope(m models.Message) Envelope {
	return Envelope{Type: TypeMessage, Data: m}
}

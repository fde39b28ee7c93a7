package chatclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/akinalp/cordlite/models"
	"github.com/akinalp/cordlite/pkg/logger"
)

// ErrNoChannel is returned by Send before any channel has been activated.
var ErrNoChannel = errors.New("chatclient: no active channel")

// State is the session lifecycle: Idle until the first Activate, Loading
// while history is being fetched, Ready once it has been merged.
type State int32

const (
	StateIdle State = iota
	StateLoading
	StateReady
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Envelope is one frame from the server. Data is decoded lazily so frames of
// unknown types pass through untouched.
type Envelope struct {
	Type    string          `json:"type"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// SystemEntry is a non-message envelope kept in the side log.
type SystemEntry struct {
	Type       string
	Message    string
	ReceivedAt time.Time
}

// MessageAPI is what a Session needs from the server.
type MessageAPI interface {
	ListMessages(ctx context.Context, channelID string) ([]models.Message, error)
	SendMessage(ctx context.Context, channelID, content string) (*models.Message, error)
}

// Session holds the message list for the active channel.
//
// The hub sends every message to every connection, so the session keeps only
// envelopes whose channel_id matches the active channel and drops any id it
// already holds. Sending never appends locally; the sender's own message
// shows up when its broadcast arrives.
type Session struct {
	api MessageAPI

	mu        sync.Mutex
	state     State
	channelID string
	gen       uint64
	messages  []models.Message
	seen      map[string]struct{}
	system    []SystemEntry

	connected atomic.Bool
	updates   chan struct{}
	now       func() time.Time
}

// NewSession returns an Idle session that loads history through api.
func NewSession(api MessageAPI) *Session {
	return &Session{
		api:     api,
		seen:    make(map[string]struct{}),
		updates: make(chan struct{}, 1),
		now:     time.Now,
	}
}

// Activate switches to channelID: the current list is discarded, history is
// loaded and merged with anything that arrived live in the meantime. If a
// newer Activate starts before the load returns, the older result is dropped.
func (s *Session) Activate(ctx context.Context, channelID string) error {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.state = StateLoading
	s.channelID = channelID
	s.messages = nil
	s.seen = make(map[string]struct{})
	s.mu.Unlock()
	s.notify()

	history, err := s.api.ListMessages(ctx, channelID)

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return nil
	}
	s.state = StateReady
	if err == nil {
		s.mergeLocked(history)
	}
	s.mu.Unlock()
	s.notify()

	if err != nil {
		return fmt.Errorf("failed to load history for channel %s: %w", channelID, err)
	}
	return nil
}

// Resync reloads the active channel's history and merges it, recovering
// anything broadcast while the connection was down.
func (s *Session) Resync(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateIdle {
		s.mu.Unlock()
		return nil
	}
	gen, channelID := s.gen, s.channelID
	s.mu.Unlock()

	history, err := s.api.ListMessages(ctx, channelID)
	if err != nil {
		return fmt.Errorf("failed to resync channel %s: %w", channelID, err)
	}

	s.mu.Lock()
	if s.gen == gen {
		s.mergeLocked(history)
	}
	s.mu.Unlock()
	s.notify()
	return nil
}

// HandleEnvelope applies one frame from the live stream. It reports whether
// the visible message list changed.
func (s *Session) HandleEnvelope(env Envelope) bool {
	if env.Type != "message" {
		s.mu.Lock()
		s.system = append(s.system, SystemEntry{Type: env.Type, Message: env.Message, ReceivedAt: s.now()})
		s.mu.Unlock()
		s.notify()
		return false
	}

	var m models.Message
	if err := json.Unmarshal(env.Data, &m); err != nil || m.ID == "" {
		logger.Log.Warnw("[chatclient] malformed message envelope", "error", err)
		return false
	}

	s.mu.Lock()
	if s.state == StateIdle || m.ChannelID != s.channelID {
		s.mu.Unlock()
		return false
	}
	added := s.insertLocked(m)
	s.mu.Unlock()

	if added {
		s.notify()
	}
	return added
}

// Send posts content to the active channel.
func (s *Session) Send(ctx context.Context, content string) error {
	s.mu.Lock()
	channelID, state := s.channelID, s.state
	s.mu.Unlock()

	if state == StateIdle {
		return ErrNoChannel
	}
	if _, err := s.api.SendMessage(ctx, channelID, content); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// Messages returns a copy of the list, ordered by (created_at, id).
func (s *Session) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// SystemLog returns a copy of the local status entries, oldest first.
func (s *Session) SystemLog() []SystemEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SystemEntry, len(s.system))
	copy(out, s.system)
	return out
}

// State reports whether a channel is idle, loading or ready.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ChannelID is the currently selected channel, empty when Idle.
func (s *Session) ChannelID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channelID
}

// Connected is the connectivity indicator, maintained by Stream.
func (s *Session) Connected() bool {
	return s.connected.Load()
}

func (s *Session) setConnected(v bool) {
	if s.connected.Swap(v) != v {
		s.notify()
	}
}

// Updates signals, coalesced, whenever the list, the system log, the state or
// connectivity changes.
func (s *Session) Updates() <-chan struct{} {
	return s.updates
}

func (s *Session) notify() {
	select {
	case s.updates <- struct{}{}:
	default:
	}
}

func (s *Session) mergeLocked(batch []models.Message) {
	for _, m := range batch {
		if m.ChannelID != "" && m.ChannelID != s.channelID {
			continue
		}
		s.insertLocked(m)
	}
}

// insertLocked adds m at its ordered position unless its id is present.
// Live messages almost always belong at the end.
func (s *Session) insertLocked(m models.Message) bool {
	if _, dup := s.seen[m.ID]; dup {
		return false
	}
	s.seen[m.ID] = struct{}{}

	n := len(s.messages)
	if n == 0 || !less(m, s.messages[n-1]) {
		s.messages = append(s.messages, m)
		return true
	}

	i := sort.Search(n, func(i int) bool { return less(m, s.messages[i]) })
	s.messages = append(s.messages, models.Message{})
	copy(s.messages[i+1:], s.messages[i:])
	s.messages[i] = m
	return true
}

func less(a, b models.Message) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

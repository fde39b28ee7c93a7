package chatclient

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/akinalp/cordlite/pkg/logger"
)

const (
	defaultHeartbeat = 30 * time.Second
	writeWait        = 10 * time.Second
)

// Stream keeps a WebSocket connection to the server open and feeds every
// frame into a Session. After a drop it waits per Backoff, reconnects and
// resyncs the session's history.
type Stream struct {
	wsURL     string
	token     func() string
	session   *Session
	dialer    *websocket.Dialer
	backoff   Backoff
	heartbeat time.Duration

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
	closed  bool
}

// StreamOption configures a Stream.
type StreamOption func(*Stream)

// WithBackoff replaces DefaultBackoff as the reconnect schedule.
func WithBackoff(b Backoff) StreamOption {
	return func(s *Stream) { s.backoff = b }
}

// WithHeartbeatInterval sets how often a heartbeat is sent while connected.
func WithHeartbeatInterval(d time.Duration) StreamOption {
	return func(s *Stream) { s.heartbeat = d }
}

// WithDialer overrides websocket.DefaultDialer.
func WithDialer(d *websocket.Dialer) StreamOption {
	return func(s *Stream) { s.dialer = d }
}

// NewStream connects to wsURL (e.g. "ws://localhost:3001/ws"). token is read
// on every dial so a refreshed token is picked up on reconnect.
func NewStream(wsURL string, token func() string, session *Session, opts ...StreamOption) *Stream {
	s := &Stream{
		wsURL:     wsURL,
		token:     token,
		session:   session,
		dialer:    websocket.DefaultDialer,
		backoff:   DefaultBackoff(),
		heartbeat: defaultHeartbeat,
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run blocks until ctx is cancelled, Close is called or the backoff circuit
// opens. It returns nil after Close, ctx.Err() after cancellation and
// ErrCircuitOpen when reconnects are exhausted.
func (s *Stream) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.closed || s.running {
		s.mu.Unlock()
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true
	s.mu.Unlock()

	defer close(s.done)
	defer cancel()

	if _, err := s.dialURL(); err != nil {
		return err
	}

	wait := s.backoff.start()
	for {
		connected, err := s.connectOnce(ctx)
		if ctx.Err() != nil {
			if s.isClosed() {
				return nil
			}
			return ctx.Err()
		}

		if connected {
			wait = s.backoff.start()
			logger.Log.Infow("[chatclient] connection lost", "error", err)
		} else {
			logger.Log.Warnw("[chatclient] dial failed", "error", err)
		}

		delay, berr := wait.next()
		if berr != nil {
			return berr
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			if s.isClosed() {
				return nil
			}
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Close stops Run and waits for it to return. Safe to call before Run or
// more than once.
func (s *Stream) Close() {
	s.mu.Lock()
	s.closed = true
	cancel, running := s.cancel, s.running
	s.mu.Unlock()

	if running {
		cancel()
		<-s.done
	}
}

func (s *Stream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// connectOnce dials and pumps frames until the connection ends. connected
// reports whether the handshake succeeded. Every successful dial resyncs the
// session so messages sent while disconnected are recovered.
func (s *Stream) connectOnce(ctx context.Context) (connected bool, err error) {
	target, err := s.dialURL()
	if err != nil {
		return false, err
	}

	conn, _, err := s.dialer.DialContext(ctx, target, nil)
	if err != nil {
		return false, fmt.Errorf("dial: %w", err)
	}

	connDone := make(chan struct{})
	var wg sync.WaitGroup
	defer func() {
		close(connDone)
		_ = conn.Close()
		wg.Wait()
		s.session.setConnected(false)
	}()

	s.session.setConnected(true)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := s.session.Resync(ctx); err != nil {
			logger.Log.Warnw("[chatclient] resync failed", "error", err)
		}
	}()

	// Unblocks ReadJSON when ctx is cancelled.
	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			_ = conn.Close()
		case <-connDone:
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.heartbeatLoop(conn, connDone)
	}()

	for {
		var env Envelope
		if err := conn.ReadJSON(&env); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return true, nil
			}
			return true, err
		}
		if env.Type == "heartbeat_ack" {
			continue
		}
		s.session.HandleEnvelope(env)
	}
}

func (s *Stream) heartbeatLoop(conn *websocket.Conn, done <-chan struct{}) {
	if s.heartbeat <= 0 {
		return
	}
	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(Envelope{Type: "heartbeat"}); err != nil {
				return
			}
		}
	}
}

func (s *Stream) dialURL() (string, error) {
	u, err := url.Parse(s.wsURL)
	if err != nil {
		return "", fmt.Errorf("invalid websocket url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return "", errors.New("websocket url must use ws or wss")
	}
	if s.token != nil {
		q := u.Query()
		q.Set("token", s.token())
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

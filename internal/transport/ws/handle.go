// Package ws implements the session transport over one persistent websocket.
package ws

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"trivia-client/internal/protocol"
)

var (
	ErrNotConnected     = errors.New("transport not connected")
	ErrAlreadyConnected = errors.New("transport already connected")
	ErrSendBufferFull   = errors.New("transport send buffer full")
)

var errStopped = errors.New("transport stopped")

// Config controls dialing, keepalive and redial behaviour.
type Config struct {
	URL               string
	HandshakeTimeout  time.Duration
	WriteTimeout      time.Duration
	PongWait          time.Duration
	PingInterval      time.Duration
	ReconnectAttempts int
	ReconnectWait     time.Duration
	SendBuffer        int
	ReadLimit         int64
}

func (c Config) withDefaults() Config {
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = 10 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.PongWait <= 0 {
		c.PongWait = 60 * time.Second
	}
	if c.PingInterval <= 0 || c.PingInterval >= c.PongWait {
		c.PingInterval = (c.PongWait * 9) / 10
	}
	if c.ReconnectWait <= 0 {
		c.ReconnectWait = time.Second
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = 32
	}
	if c.ReadLimit <= 0 {
		c.ReadLimit = 64 << 10
	}
	return c
}

// Handle owns at most one live connection at a time. It is created
// disconnected; Connect opens a connection and returns the channel on which
// decoded server events are delivered until Disconnect.
type Handle struct {
	cfg    Config
	dialer *websocket.Dialer

	mu   sync.Mutex
	sess *session
}

type session struct {
	send   chan []byte
	events chan protocol.Event
	stop   chan struct{}
	done   chan struct{}
}

// New returns a disconnected handle for cfg.URL.
func New(cfg Config) *Handle {
	cfg = cfg.withDefaults()
	return &Handle{
		cfg: cfg,
		dialer: &websocket.Dialer{
			HandshakeTimeout: cfg.HandshakeTimeout,
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
		},
	}
}

// Connect dials the server. The returned channel is closed once the
// connection is torn down, either by Disconnect or after redial gives up.
func (h *Handle) Connect(ctx context.Context) (<-chan protocol.Event, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sess != nil {
		select {
		case <-h.sess.done:
		default:
			return nil, ErrAlreadyConnected
		}
	}

	conn, _, err := h.dialer.DialContext(ctx, h.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", h.cfg.URL, err)
	}

	s := &session{
		send:   make(chan []byte, h.cfg.SendBuffer),
		events: make(chan protocol.Event, 16),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	h.sess = s
	go h.run(s, conn)

	log.Debug().Str("url", h.cfg.URL).Msg("transport connected")
	return s.events, nil
}

// Emit queues cmd for sending. It never waits for the network.
func (h *Handle) Emit(cmd protocol.Command) error {
	data, err := protocol.EncodeCommand(cmd)
	if err != nil {
		return fmt.Errorf("encode %s: %w", protocol.CommandName(cmd), err)
	}

	h.mu.Lock()
	s := h.sess
	h.mu.Unlock()
	if s == nil {
		return ErrNotConnected
	}
	select {
	case <-s.done:
		return ErrNotConnected
	default:
	}

	select {
	case s.send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Disconnect closes the connection and waits for its goroutines to finish.
// It is safe to call when not connected.
func (h *Handle) Disconnect() error {
	h.mu.Lock()
	s := h.sess
	h.sess = nil
	h.mu.Unlock()
	if s == nil {
		return nil
	}
	close(s.stop)
	<-s.done
	log.Debug().Str("url", h.cfg.URL).Msg("transport disconnected")
	return nil
}

// Connected reports whether a connection is currently owned.
func (h *Handle) Connected() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sess == nil {
		return false
	}
	select {
	case <-h.sess.done:
		return false
	default:
		return true
	}
}

func (h *Handle) run(s *session, conn *websocket.Conn) {
	defer close(s.done)
	defer close(s.events)

	for {
		err := h.serve(s, conn)
		if errors.Is(err, errStopped) {
			return
		}
		log.Warn().Err(err).Str("url", h.cfg.URL).Msg("connection lost")

		conn, err = h.redial(s)
		if errors.Is(err, errStopped) {
			return
		}
		if err != nil {
			s.deliver(protocol.Disconnected{Err: err}, nil)
			return
		}
		if !s.deliver(protocol.Reconnected{}, nil) {
			_ = conn.Close()
			return
		}
	}
}

// serve pumps one connection until it fails or the session is stopped.
func (h *Handle) serve(s *session, conn *websocket.Conn) error {
	quit := make(chan struct{})
	readErr := make(chan error, 1)
	go func() {
		readErr <- h.readPump(s, conn, quit)
	}()

	ticker := time.NewTicker(h.cfg.PingInterval)
	defer ticker.Stop()

	shutdown := func() {
		close(quit)
		_ = conn.Close()
		<-readErr
	}

	for {
		select {
		case <-s.stop:
			_ = conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			h.flush(s, conn)
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			shutdown()
			return errStopped
		case err := <-readErr:
			readErr <- err
			shutdown()
			return err
		case data := <-s.send:
			_ = conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				shutdown()
				return fmt.Errorf("write: %w", err)
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				shutdown()
				return fmt.Errorf("ping: %w", err)
			}
		}
	}
}

// flush writes whatever is still queued so a final command such as
// leave-game is not lost on Disconnect.
func (h *Handle) flush(s *session, conn *websocket.Conn) {
	for {
		select {
		case data := <-s.send:
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (h *Handle) readPump(s *session, conn *websocket.Conn, quit <-chan struct{}) error {
	conn.SetReadLimit(h.cfg.ReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		ev, err := protocol.DecodeEvent(data)
		if err != nil {
			log.Warn().Err(err).Msg("dropping undecodable event")
			continue
		}
		if !s.deliver(ev, quit) {
			return errStopped
		}
	}
}

func (h *Handle) redial(s *session) (*websocket.Conn, error) {
	var lastErr error = errors.New("reconnect disabled")
	for attempt := 1; attempt <= h.cfg.ReconnectAttempts; attempt++ {
		timer := time.NewTimer(h.cfg.ReconnectWait * time.Duration(attempt))
		select {
		case <-s.stop:
			timer.Stop()
			return nil, errStopped
		case <-timer.C:
		}

		conn, _, err := h.dialer.Dial(h.cfg.URL, nil)
		if err == nil {
			log.Info().Int("attempt", attempt).Str("url", h.cfg.URL).Msg("transport reconnected")
			return conn, nil
		}
		lastErr = err
		log.Debug().Err(err).Int("attempt", attempt).Msg("redial failed")
	}
	return nil, fmt.Errorf("redial %s: %w", h.cfg.URL, lastErr)
}

func (s *session) deliver(ev protocol.Event, quit <-chan struct{}) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.stop:
		return false
	case <-quit:
		return false
	}
}

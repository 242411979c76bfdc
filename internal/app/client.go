package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"trivia-client/internal/domain"
	"trivia-client/internal/protocol"
)

// ErrClientStopped is returned by actions posted after Run has returned.
var ErrClientStopped = errors.New("session client stopped")

// Transport is the session connection used by the client.
type Transport interface {
	Connect(ctx context.Context) (<-chan protocol.Event, error)
	Emit(cmd protocol.Command) error
	Disconnect() error
}

// IdentityStore persists the session identity across restarts. Load returns
// domain.ErrIdentityNotFound when nothing is stored.
type IdentityStore interface {
	Load(ctx context.Context) (domain.Identity, error)
	Save(ctx context.Context, identity domain.Identity) error
	Clear(ctx context.Context) error
}

// ResultArchive stores finished game results.
type ResultArchive interface {
	SaveResult(ctx context.Context, result domain.GameResult) error
}

// Options tune a Client. Zero values select defaults.
type Options struct {
	Policy     Policy
	Clock      clockwork.Clock
	ResyncWait time.Duration
	Archive    ResultArchive
	NewID      func(domain.Role) string
}

// Client is the session state machine. All state is owned by the goroutine
// running Run; actions are posted to it and answered synchronously.
type Client struct {
	transport  Transport
	identities IdentityStore
	archive    ResultArchive
	clock      clockwork.Clock
	resyncWait time.Duration
	newID      func(domain.Role) string

	inbox   chan request
	stopped chan struct{}

	subMu sync.Mutex
	subs  map[chan View]struct{}
	last  View

	// loop-owned
	phase       Phase
	ident       domain.Identity
	room        domain.Room
	engine      *Engine
	score       Scoreboard
	leaderboard []domain.LeaderboardEntry
	lastErr     string
	starting    bool
	resyncing   bool
	events      <-chan protocol.Event
	ticker      clockwork.Ticker
	resyncTimer clockwork.Timer
}

// NewClient builds an idle client. Run must be started before any action.
func NewClient(transport Transport, identities IdentityStore, opts Options) *Client {
	if opts.Policy == "" {
		opts.Policy = PolicyImmediate
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.ResyncWait <= 0 {
		opts.ResyncWait = 5 * time.Second
	}
	if opts.NewID == nil {
		opts.NewID = NewParticipantID
	}
	c := &Client{
		transport:  transport,
		identities: identities,
		archive:    opts.Archive,
		clock:      opts.Clock,
		resyncWait: opts.ResyncWait,
		newID:      opts.NewID,
		inbox:      make(chan request),
		stopped:    make(chan struct{}),
		subs:       make(map[chan View]struct{}),
		phase:      PhaseIdle,
		engine:     NewEngine(opts.Policy),
	}
	c.last = c.snapshot()
	return c
}

// NewParticipantID generates a prefixed participant identifier.
func NewParticipantID(role domain.Role) string {
	if role == domain.RoleHost {
		return "host_" + uuid.NewString()
	}
	return "player_" + uuid.NewString()
}

type request struct {
	ctx   context.Context
	msg   msg
	reply chan error
}

// msg is the closed set of user actions.
type msg interface{ isMsg() }

type createMsg struct {
	name      string
	questions []domain.Question
}

type joinMsg struct {
	code string
	name string
}

type startMsg struct{}

type leaveMsg struct{}

type selectMsg struct{ index int }

type confirmMsg struct{}

type resumeMsg struct{}

type resyncMsg struct{}

func (createMsg) isMsg()  {}
func (joinMsg) isMsg()    {}
func (startMsg) isMsg()   {}
func (leaveMsg) isMsg()   {}
func (selectMsg) isMsg()  {}
func (confirmMsg) isMsg() {}
func (resumeMsg) isMsg()  {}
func (resyncMsg) isMsg()  {}

// Create opens a room as host with the questions of set.
func (c *Client) Create(ctx context.Context, hostName string, set domain.TriviaSet) error {
	name, err := domain.CleanDisplayName(hostName)
	if err != nil {
		return err
	}
	questions := set.GameQuestions()
	if len(questions) == 0 {
		return domain.ErrTriviaSetEmpty
	}
	return c.do(ctx, createMsg{name: name, questions: questions})
}

// Join enters an existing room as a player. The code is case-insensitive.
func (c *Client) Join(ctx context.Context, roomCode, displayName string) error {
	code := domain.NormalizeRoomCode(roomCode)
	if err := domain.ValidateRoomCode(code); err != nil {
		return err
	}
	name, err := domain.CleanDisplayName(displayName)
	if err != nil {
		return err
	}
	return c.do(ctx, joinMsg{code: code, name: name})
}

// Start asks the server to begin the game. Host only.
func (c *Client) Start(ctx context.Context) error { return c.do(ctx, startMsg{}) }

// Leave exits the room, clears the stored identity and drops the connection.
func (c *Client) Leave(ctx context.Context) error { return c.do(ctx, leaveMsg{}) }

// Select applies an option choice for the current question.
func (c *Client) Select(ctx context.Context, index int) error {
	return c.do(ctx, selectMsg{index: index})
}

// Confirm submits the staged choice under the confirm policy.
func (c *Client) Confirm(ctx context.Context) error { return c.do(ctx, confirmMsg{}) }

// Resume re-enters the game recorded in the identity store.
func (c *Client) Resume(ctx context.Context) error { return c.do(ctx, resumeMsg{}) }

// Resync asks the server for the current question again.
func (c *Client) Resync(ctx context.Context) error { return c.do(ctx, resyncMsg{}) }

// Current returns the latest published view.
func (c *Client) Current() View {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	return c.last
}

// Subscribe returns a channel of view snapshots starting with the current
// one. Slow subscribers only ever see the newest snapshot.
func (c *Client) Subscribe() (<-chan View, func()) {
	ch := make(chan View, 1)

	c.subMu.Lock()
	c.subs[ch] = struct{}{}
	ch <- c.last
	c.subMu.Unlock()

	cancel := func() {
		c.subMu.Lock()
		if _, ok := c.subs[ch]; ok {
			delete(c.subs, ch)
			close(ch)
		}
		c.subMu.Unlock()
	}
	return ch, cancel
}

func (c *Client) do(ctx context.Context, m msg) error {
	req := request{ctx: ctx, msg: m, reply: make(chan error, 1)}
	select {
	case c.inbox <- req:
	case <-c.stopped:
		return ErrClientStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.reply:
		return err
	case <-c.stopped:
		return ErrClientStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run drives the session until ctx is cancelled.
func (c *Client) Run(ctx context.Context) error {
	defer close(c.stopped)
	defer c.shutdown()

	for {
		var tickC, resyncC <-chan time.Time
		if c.ticker != nil {
			tickC = c.ticker.Chan()
		}
		if c.resyncTimer != nil {
			resyncC = c.resyncTimer.Chan()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-c.inbox:
			req.reply <- c.handle(req.ctx, req.msg)
		case ev, ok := <-c.events:
			if !ok {
				c.events = nil
				break
			}
			c.dispatch(ctx, ev)
		case <-tickC:
			c.onTick()
		case <-resyncC:
			c.onResyncTimeout()
		}
		c.publish()
	}
}

func (c *Client) handle(ctx context.Context, m msg) error {
	switch m := m.(type) {
	case createMsg:
		return c.create(ctx, m.name, m.questions)
	case joinMsg:
		return c.join(ctx, m.code, m.name)
	case startMsg:
		return c.start()
	case leaveMsg:
		return c.leave(ctx)
	case selectMsg:
		return c.selectOption(m.index)
	case confirmMsg:
		return c.confirm()
	case resumeMsg:
		return c.resume(ctx)
	case resyncMsg:
		if c.phase != PhaseInGame {
			return domain.ErrInvalidPhase
		}
		c.requestResync()
		return nil
	}
	return nil
}

func (c *Client) publish() {
	v := c.snapshot()

	c.subMu.Lock()
	defer c.subMu.Unlock()
	c.last = v
	for ch := range c.subs {
		select {
		case ch <- v:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- v
		}
	}
}

func (c *Client) shutdown() {
	c.stopTimers()
	if c.events != nil {
		c.events = nil
		if err := c.transport.Disconnect(); err != nil {
			log.Warn().Err(err).Msg("disconnect on shutdown")
		}
	}

	c.subMu.Lock()
	for ch := range c.subs {
		delete(c.subs, ch)
		close(ch)
	}
	c.subMu.Unlock()
}

func (c *Client) emit(cmd protocol.Command) error {
	if err := c.transport.Emit(cmd); err != nil {
		log.Warn().Err(err).Str("command", protocol.CommandName(cmd)).Str("room", c.room.Code).Msg("emit failed")
		c.lastErr = err.Error()
		return fmt.Errorf("send %s: %w", protocol.CommandName(cmd), err)
	}
	return nil
}

func (c *Client) startTicker() {
	if c.ticker == nil {
		c.ticker = c.clock.NewTicker(time.Second)
	}
}

func (c *Client) stopTimers() {
	if c.ticker != nil {
		c.ticker.Stop()
		c.ticker = nil
	}
	c.stopResyncTimer()
}

func (c *Client) stopResyncTimer() {
	if c.resyncTimer != nil {
		c.resyncTimer.Stop()
		c.resyncTimer = nil
	}
	c.resyncing = false
}

package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"trivia-client/internal/domain"
	"trivia-client/internal/protocol"
)

func (c *Client) create(ctx context.Context, name string, questions []domain.Question) error {
	switch c.phase {
	case PhaseIdle, PhaseCreating, PhaseFinished:
	default:
		return domain.ErrInvalidPhase
	}

	ident := domain.Identity{
		Role:          domain.RoleHost,
		ParticipantID: c.newID(domain.RoleHost),
		DisplayName:   name,
	}
	if err := c.beginContext(ctx, ident); err != nil {
		return err
	}
	// the host is a participant from the start
	c.room = domain.Room{
		HostID:       ident.ParticipantID,
		Status:       domain.RoomWaiting,
		Participants: []domain.Participant{hostParticipant(ident)},
	}
	if err := c.emit(protocol.CreateGame{HostID: ident.ParticipantID, Questions: protocol.FromQuestions(questions)}); err != nil {
		c.teardown(ctx)
		return err
	}
	c.phase = PhaseCreating
	log.Debug().Str("host", ident.ParticipantID).Int("questions", len(questions)).Msg("creating room")
	return nil
}

func (c *Client) join(ctx context.Context, code, name string) error {
	switch c.phase {
	case PhaseIdle, PhaseCreating, PhaseFinished:
	default:
		return domain.ErrInvalidPhase
	}

	ident := domain.Identity{
		Role:          domain.RolePlayer,
		ParticipantID: c.newID(domain.RolePlayer),
		DisplayName:   name,
		RoomCode:      code,
	}
	if err := c.beginContext(ctx, ident); err != nil {
		return err
	}
	c.room = domain.Room{Code: code, Status: domain.RoomWaiting}
	if err := c.emit(protocol.JoinGame{RoomCode: code, Player: protocol.FromParticipant(c.self())}); err != nil {
		c.teardown(ctx)
		return err
	}
	c.phase = PhaseJoining
	log.Debug().Str("room", code).Str("player", ident.ParticipantID).Msg("joining room")
	return nil
}

func (c *Client) start() error {
	if c.phase != PhaseWaitingRoom {
		return domain.ErrInvalidPhase
	}
	if c.ident.Role != domain.RoleHost {
		return domain.ErrNotHost
	}
	if c.room.NonHostCount() < 1 {
		return domain.ErrNotEnoughPlayers
	}
	if c.starting {
		return nil
	}
	if err := c.emit(protocol.StartGame{RoomCode: c.room.Code}); err != nil {
		return err
	}
	c.starting = true
	c.lastErr = ""
	return nil
}

func (c *Client) leave(ctx context.Context) error {
	if c.phase == PhaseIdle {
		return nil
	}
	if c.events != nil && c.room.Code != "" {
		_ = c.emit(protocol.LeaveGame{RoomCode: c.room.Code, PlayerID: c.ident.ParticipantID})
	}
	log.Debug().Str("room", c.room.Code).Str("participant", c.ident.ParticipantID).Msg("leaving room")
	c.teardown(ctx)
	c.lastErr = ""
	return nil
}

func (c *Client) resume(ctx context.Context) error {
	if c.phase != PhaseIdle {
		return domain.ErrInvalidPhase
	}
	ident, err := c.identities.Load(ctx)
	if err != nil {
		return err
	}
	if ident.IsZero() || ident.RoomCode == "" {
		return domain.ErrIdentityNotFound
	}

	c.disconnect()
	c.resetSession()
	events, err := c.transport.Connect(ctx)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	c.events = events
	c.ident = ident
	c.room = domain.Room{Code: ident.RoomCode, Status: domain.RoomPlaying}
	if ident.Role == domain.RoleHost {
		c.room.HostID = ident.ParticipantID
		c.room.Participants = []domain.Participant{hostParticipant(ident)}
	}
	c.enterGame()
	c.requestResync()
	log.Info().Str("room", ident.RoomCode).Str("participant", ident.ParticipantID).Msg("resumed session")
	return nil
}

// beginContext makes ident the only room context on the transport.
func (c *Client) beginContext(ctx context.Context, ident domain.Identity) error {
	if err := c.identities.Clear(ctx); err != nil {
		return fmt.Errorf("clear identity: %w", err)
	}
	c.disconnect()
	c.resetSession()

	events, err := c.transport.Connect(ctx)
	if err != nil {
		c.lastErr = err.Error()
		return fmt.Errorf("connect: %w", err)
	}
	c.events = events
	c.ident = ident
	c.saveIdentity(ctx)
	return nil
}

// teardown stops timers, forgets the room and drops the connection in one step.
func (c *Client) teardown(ctx context.Context) {
	if err := c.identities.Clear(ctx); err != nil {
		log.Warn().Err(err).Msg("clear identity")
	}
	c.disconnect()
	c.resetSession()
}

func (c *Client) disconnect() {
	c.stopTimers()
	c.events = nil
	if err := c.transport.Disconnect(); err != nil {
		log.Warn().Err(err).Msg("disconnect")
	}
}

func (c *Client) resetSession() {
	c.phase = PhaseIdle
	c.ident = domain.Identity{}
	c.room = domain.Room{}
	c.engine.Reset()
	c.score.Reset()
	c.leaderboard = nil
	c.starting = false
	c.resyncing = false
}

func (c *Client) saveIdentity(ctx context.Context) {
	if err := c.identities.Save(ctx, c.ident); err != nil {
		log.Warn().Err(err).Str("participant", c.ident.ParticipantID).Msg("save identity")
	}
}

func (c *Client) enterGame() {
	c.phase = PhaseInGame
	c.starting = false
	c.room.Status = domain.RoomPlaying
	c.startTicker()
}

// dispatch routes one transport event. Handlers tolerate repeats and
// events that do not apply to the current phase.
func (c *Client) dispatch(ctx context.Context, ev protocol.Event) {
	switch ev := ev.(type) {
	case protocol.GameCreated:
		c.onGameCreated(ctx, ev)
	case protocol.JoinedGame:
		c.onJoinedGame(ctx, ev)
	case protocol.PlayerJoined:
		c.replaceParticipants(ev.Players)
	case protocol.PlayerLeft:
		c.replaceParticipants(ev.Players)
	case protocol.GameStarted:
		c.onGameStarted(ev)
	case protocol.CurrentQuestion:
		c.stopResyncTimer()
		if ev.Question == nil {
			log.Debug().Str("room", c.room.Code).Msg("no active question, waiting for broadcast")
			return
		}
		c.onQuestion(*ev.Question)
	case protocol.NextQuestion:
		c.onQuestion(ev.Question)
	case protocol.AnswerResult:
		c.onAnswerResult(ev)
	case protocol.GameFinished:
		c.onGameFinished(ctx, ev)
	case protocol.ErrorEvent:
		c.onError(ctx, ev)
	case protocol.Reconnected:
		c.onReconnected()
	case protocol.Disconnected:
		log.Warn().Err(ev.Err).Str("room", c.room.Code).Msg("connection lost")
		c.events = nil
		if ev.Err != nil {
			c.lastErr = ev.Err.Error()
		}
	default:
		log.Warn().Str("event", protocol.EventName(ev)).Msg("unhandled event")
	}
}

func (c *Client) onGameCreated(ctx context.Context, ev protocol.GameCreated) {
	if c.phase != PhaseCreating {
		return
	}
	code := ev.RoomCode
	if code == "" {
		code = ev.Game.RoomCode
	}
	c.room.Code = domain.NormalizeRoomCode(code)
	if ev.Game.Status != "" {
		c.room.Status = domain.RoomStatus(ev.Game.Status)
	}
	if len(ev.Game.Players) > 0 {
		c.room.Participants = c.withHost(protocol.ToParticipants(ev.Game.Players, c.room.HostID))
	}
	c.ident.RoomCode = c.room.Code
	c.saveIdentity(ctx)
	c.phase = PhaseWaitingRoom
	c.lastErr = ""

	// servers still expect the host to join its own room
	_ = c.emit(protocol.JoinGame{RoomCode: c.room.Code, Player: protocol.FromParticipant(c.self())})
	log.Info().Str("room", c.room.Code).Msg("room created")
}

func (c *Client) onJoinedGame(ctx context.Context, ev protocol.JoinedGame) {
	switch c.phase {
	case PhaseJoining:
		room := protocol.ToRoom(ev.Game)
		if room.Code == "" {
			room.Code = c.ident.RoomCode
		}
		c.room = room
		c.ident.RoomCode = room.Code
		c.saveIdentity(ctx)
		c.phase = PhaseWaitingRoom
		c.lastErr = ""
		log.Info().Str("room", room.Code).Int("participants", len(room.Participants)).Msg("joined room")
	case PhaseWaitingRoom, PhaseInGame:
		if ev.Game.HostID != "" {
			c.room.HostID = ev.Game.HostID
		}
		c.replaceParticipants(ev.Game.Players)
	}
}

// replaceParticipants swaps in the server's full list.
func (c *Client) replaceParticipants(players []protocol.Player) {
	switch c.phase {
	case PhaseWaitingRoom, PhaseInGame:
	default:
		return
	}
	c.room.Participants = c.withHost(protocol.ToParticipants(players, c.room.HostID))
}

func (c *Client) withHost(participants []domain.Participant) []domain.Participant {
	if c.ident.Role != domain.RoleHost {
		return participants
	}
	for _, p := range participants {
		if p.ID == c.ident.ParticipantID {
			return participants
		}
	}
	return append([]domain.Participant{hostParticipant(c.ident)}, participants...)
}

// self is the local participant with its running score.
func (c *Client) self() domain.Participant {
	return domain.Participant{
		ID:          c.ident.ParticipantID,
		DisplayName: c.ident.DisplayName,
		Role:        c.ident.Role,
		Score:       c.score.Total(),
	}
}

func hostParticipant(ident domain.Identity) domain.Participant {
	return domain.Participant{ID: ident.ParticipantID, DisplayName: ident.DisplayName, Role: domain.RoleHost}
}

func (c *Client) onGameStarted(ev protocol.GameStarted) {
	switch c.phase {
	case PhaseWaitingRoom, PhaseInGame:
	default:
		return
	}
	if len(ev.Game.Players) > 0 {
		c.room.Participants = c.withHost(protocol.ToParticipants(ev.Game.Players, c.room.HostID))
	}
	c.onQuestion(ev.Question)
}

func (c *Client) onError(ctx context.Context, ev protocol.ErrorEvent) {
	log.Warn().Str("room", c.room.Code).Str("phase", string(c.phase)).Str("message", ev.Message).Msg("server error")
	switch c.phase {
	case PhaseJoining:
		c.teardown(ctx)
	case PhaseWaitingRoom:
		c.starting = false
	case PhaseInGame:
		if c.resyncing {
			c.stopResyncTimer()
		}
	}
	c.lastErr = ev.Message
}

func (c *Client) onReconnected() {
	switch c.phase {
	case PhaseInGame:
		c.requestResync()
	case PhaseWaitingRoom:
		_ = c.emit(protocol.JoinGame{RoomCode: c.room.Code, Player: protocol.FromParticipant(c.self())})
	}
}

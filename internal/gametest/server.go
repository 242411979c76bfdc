// Package gametest provides in-process fakes of the game server and the
// content API so session behaviour can be exercised end to end in tests.
package gametest

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"trivia-client/internal/protocol"
)

// DefaultPoints is awarded for a correct answer when a question carries no points.
const DefaultPoints = 100

// Server is a minimal game server honouring the session event protocol.
// Question progression is driven by the test through Advance.
type Server struct {
	httpSrv  *httptest.Server
	upgrader websocket.Upgrader

	mu    sync.Mutex
	rooms map[string]*room
	peers map[*peer]struct{}
	cmds  []protocol.Command
}

type room struct {
	code      string
	hostID    string
	status    string
	questions []protocol.Question
	current   int
	startedAt time.Time
	players   []protocol.Player
	answered  map[string]bool
}

type peer struct {
	conn     *websocket.Conn
	send     chan []byte
	roomCode string
	playerID string
}

// NewServer starts a fake game server on a random local port.
func NewServer() *Server {
	s := &Server{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		rooms: make(map[string]*room),
		peers: make(map[*peer]struct{}),
	}
	r := chi.NewRouter()
	r.Get("/ws", s.serveWS)
	s.httpSrv = httptest.NewServer(r)
	return s
}

// URL is the websocket endpoint.
func (s *Server) URL() string {
	return "ws" + strings.TrimPrefix(s.httpSrv.URL, "http") + "/ws"
}

func (s *Server) Close() {
	s.mu.Lock()
	for p := range s.peers {
		_ = p.conn.Close()
	}
	s.mu.Unlock()
	s.httpSrv.Close()
}

// DropConnections closes every live socket without touching room state.
func (s *Server) DropConnections() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for p := range s.peers {
		_ = p.conn.Close()
	}
}

// RoomSnapshot is a copy of server-side room state.
type RoomSnapshot struct {
	Code     string
	HostID   string
	Status   string
	Current  int
	Players  []protocol.Player
	Answered map[string]bool
}

// Room returns a copy of the server's view of a room.
func (s *Server) Room(code string) (RoomSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rm, ok := s.rooms[code]
	if !ok {
		return RoomSnapshot{}, false
	}
	answered := make(map[string]bool, len(rm.answered))
	for k, v := range rm.answered {
		answered[k] = v
	}
	return RoomSnapshot{
		Code:     rm.code,
		HostID:   rm.hostID,
		Status:   rm.status,
		Current:  rm.current,
		Players:  append([]protocol.Player(nil), rm.players...),
		Answered: answered,
	}, true
}

// Commands returns every command received so far, in arrival order.
func (s *Server) Commands() []protocol.Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]protocol.Command(nil), s.cmds...)
}

// Advance moves a playing room to its next question, or finishes it after the last.
func (s *Server) Advance(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rm, ok := s.rooms[code]
	if !ok || rm.status != "playing" {
		return fmt.Errorf("room %s is not playing", code)
	}
	rm.current++
	rm.answered = make(map[string]bool)
	if rm.current >= len(rm.questions) {
		rm.status = "finished"
		s.broadcastLocked(rm, protocol.GameFinished{Players: append([]protocol.Player(nil), rm.players...)})
		return nil
	}
	rm.startedAt = time.Now()
	s.sendQuestionLocked(rm, func(q protocol.Question) protocol.Event { return protocol.NextQuestion{Question: q} })
	return nil
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("fake server upgrade failed")
		return
	}
	p := &peer{conn: conn, send: make(chan []byte, 64)}

	s.mu.Lock()
	s.peers[p] = struct{}{}
	s.mu.Unlock()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range p.send {
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		cmd, err := protocol.DecodeCommand(data)
		if err != nil {
			s.reply(p, protocol.ErrorEvent{Message: "unsupported message type"})
			continue
		}
		s.handle(p, cmd)
	}

	s.mu.Lock()
	delete(s.peers, p)
	close(p.send)
	s.mu.Unlock()
	<-writerDone
	_ = conn.Close()
}

func (s *Server) handle(p *peer, cmd protocol.Command) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cmds = append(s.cmds, cmd)

	switch cmd := cmd.(type) {
	case protocol.CreateGame:
		code := s.newCodeLocked()
		rm := &room{
			code:      code,
			hostID:    cmd.HostID,
			status:    "waiting",
			questions: cmd.Questions,
			answered:  make(map[string]bool),
		}
		s.rooms[code] = rm
		p.roomCode, p.playerID = code, cmd.HostID
		s.sendLocked(p, protocol.GameCreated{RoomCode: code, Game: gameOf(rm)})

	case protocol.JoinGame:
		rm, ok := s.rooms[cmd.RoomCode]
		if !ok {
			s.sendLocked(p, protocol.ErrorEvent{Message: "Game not found"})
			return
		}
		member := indexOf(rm.players, cmd.Player.ID) >= 0
		if rm.status != "waiting" && !member {
			s.sendLocked(p, protocol.ErrorEvent{Message: "Game already started"})
			return
		}
		if !member {
			rm.players = append(rm.players, protocol.Player{ID: cmd.Player.ID, Name: cmd.Player.Name})
		}
		p.roomCode, p.playerID = rm.code, cmd.Player.ID
		s.sendLocked(p, protocol.JoinedGame{Game: gameOf(rm)})
		if !member {
			s.broadcastExceptLocked(rm, p, protocol.PlayerJoined{
				Player:  protocol.Player{ID: cmd.Player.ID, Name: cmd.Player.Name},
				Players: append([]protocol.Player(nil), rm.players...),
			})
		}

	case protocol.StartGame:
		rm, ok := s.rooms[cmd.RoomCode]
		if !ok {
			s.sendLocked(p, protocol.ErrorEvent{Message: "Game not found"})
			return
		}
		if rm.status != "waiting" {
			s.sendLocked(p, protocol.ErrorEvent{Message: "Game already started"})
			return
		}
		if p.playerID != rm.hostID {
			s.sendLocked(p, protocol.ErrorEvent{Message: "Only the host can start the game"})
			return
		}
		rm.status = "playing"
		rm.current = 0
		rm.startedAt = time.Now()
		game := gameOf(rm)
		s.sendQuestionLocked(rm, func(q protocol.Question) protocol.Event {
			return protocol.GameStarted{Game: game, Question: q}
		})

	case protocol.SubmitAnswer:
		rm, ok := s.rooms[cmd.RoomCode]
		if !ok || rm.status != "playing" {
			s.sendLocked(p, protocol.ErrorEvent{Message: "Game is not in progress"})
			return
		}
		if rm.answered[cmd.PlayerID] {
			s.sendLocked(p, protocol.ErrorEvent{Message: "Answer already submitted"})
			return
		}
		rm.answered[cmd.PlayerID] = true
		q := rm.questions[rm.current]
		correct := q.CorrectAnswer != nil && cmd.AnswerIndex == *q.CorrectAnswer
		points := 0
		if correct {
			points = q.Points
			if points <= 0 {
				points = DefaultPoints
			}
		}
		if i := indexOf(rm.players, cmd.PlayerID); i >= 0 {
			rm.players[i].Score += points
		}
		s.sendLocked(p, protocol.AnswerResult{Correct: correct, Points: points})

	case protocol.LeaveGame:
		rm, ok := s.rooms[cmd.RoomCode]
		if !ok {
			return
		}
		if i := indexOf(rm.players, cmd.PlayerID); i >= 0 {
			rm.players = append(rm.players[:i], rm.players[i+1:]...)
		}
		p.roomCode, p.playerID = "", ""
		s.broadcastLocked(rm, protocol.PlayerLeft{PlayerID: cmd.PlayerID, Players: append([]protocol.Player(nil), rm.players...)})

	case protocol.GetCurrentQuestion:
		rm, ok := s.rooms[cmd.RoomCode]
		if !ok {
			s.sendLocked(p, protocol.ErrorEvent{Message: "Game not found"})
			return
		}
		if cmd.PlayerID == rm.hostID || indexOf(rm.players, cmd.PlayerID) >= 0 {
			p.roomCode, p.playerID = rm.code, cmd.PlayerID
		}
		if rm.status != "playing" {
			s.sendLocked(p, protocol.CurrentQuestion{})
			return
		}
		q := s.questionFor(rm, cmd.PlayerID)
		s.sendLocked(p, protocol.CurrentQuestion{Question: &q})
	}
}

// questionFor returns the current question as seen by playerID, with the
// correct answer withheld from everyone but the host.
func (s *Server) questionFor(rm *room, playerID string) protocol.Question {
	q := rm.questions[rm.current]
	q.QuestionNumber = rm.current + 1
	q.TotalQuestions = len(rm.questions)
	if q.TimeLimit > 0 && !rm.startedAt.IsZero() {
		left := q.TimeLimit - int(time.Since(rm.startedAt)/time.Second)
		if left > 0 {
			q.TimeRemaining = left
		}
	}
	if playerID != rm.hostID {
		q = protocol.Redact(q)
	}
	return q
}

func (s *Server) sendQuestionLocked(rm *room, wrap func(protocol.Question) protocol.Event) {
	for p := range s.peers {
		if p.roomCode != rm.code {
			continue
		}
		q := s.questionFor(rm, p.playerID)
		q.TimeRemaining = 0
		s.sendLocked(p, wrap(q))
	}
}

func (s *Server) broadcastLocked(rm *room, ev protocol.Event) {
	s.broadcastExceptLocked(rm, nil, ev)
}

func (s *Server) broadcastExceptLocked(rm *room, skip *peer, ev protocol.Event) {
	for p := range s.peers {
		if p != skip && p.roomCode == rm.code {
			s.sendLocked(p, ev)
		}
	}
}

func (s *Server) reply(p *peer, ev protocol.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sendLocked(p, ev)
}

func (s *Server) sendLocked(p *peer, ev protocol.Event) {
	data, err := protocol.EncodeEvent(ev)
	if err != nil {
		log.Warn().Err(err).Msg("fake server encode")
		return
	}
	select {
	case p.send <- data:
	default:
		log.Warn().Str("event", protocol.EventName(ev)).Msg("fake server dropped event for slow peer")
	}
}

func (s *Server) newCodeLocked() string {
	for {
		code, err := GenerateCode()
		if err != nil {
			continue
		}
		if _, taken := s.rooms[code]; !taken {
			return code
		}
	}
}

// GenerateCode returns a random six character room code.
func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, 6)
	for i := 0; i < 6; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

func gameOf(rm *room) protocol.Game {
	return protocol.Game{
		RoomCode:             rm.code,
		HostID:               rm.hostID,
		Status:               rm.status,
		Players:              append([]protocol.Player(nil), rm.players...),
		CurrentQuestionIndex: rm.current,
	}
}

func indexOf(players []protocol.Player, id string) int {
	for i, p := range players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

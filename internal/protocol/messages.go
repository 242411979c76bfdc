// Package protocol defines the game session wire contract: a JSON envelope
// carrying one of a closed set of commands (client to server) or events
// (server to client).
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrUnknownEvent is returned when an envelope names no known event.
	ErrUnknownEvent = errors.New("unknown event")
	// ErrUnknownCommand is returned when an envelope names no known command.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrLocalEvent is returned when encoding an event that never travels on the wire.
	ErrLocalEvent = errors.New("local event has no wire form")
)

// Client to server command names.
const (
	CmdCreateGame         = "create-game"
	CmdJoinGame           = "join-game"
	CmdStartGame          = "start-game"
	CmdSubmitAnswer       = "submit-answer"
	CmdLeaveGame          = "leave-game"
	CmdGetCurrentQuestion = "get-current-question"
)

// Server to client event names.
const (
	EvtGameCreated     = "game-created"
	EvtJoinedGame      = "joined-game"
	EvtPlayerJoined    = "player-joined"
	EvtPlayerLeft      = "player-left"
	EvtGameStarted     = "game-started"
	EvtCurrentQuestion = "current-question"
	EvtNextQuestion    = "next-question"
	EvtAnswerResult    = "answer-result"
	EvtGameFinished    = "game-finished"
	EvtError           = "error"
)

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type outbound[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// Player is the wire shape of a participant.
type Player struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// Question is the wire shape of a question. CorrectAnswer only appears in
// host and content-authoring contexts.
type Question struct {
	ID             string   `json:"id"`
	Question       string   `json:"question"`
	Answers        []string `json:"answers"`
	CorrectAnswer  *int     `json:"correctAnswer,omitempty"`
	TimeLimit      int      `json:"timeLimit"`
	Points         int      `json:"points,omitempty"`
	QuestionNumber int      `json:"questionNumber,omitempty"`
	TotalQuestions int      `json:"totalQuestions,omitempty"`
	TimeRemaining  int      `json:"timeRemaining,omitempty"`
}

// Game is the wire shape of a room.
type Game struct {
	RoomCode             string   `json:"roomCode"`
	HostID               string   `json:"hostId"`
	Status               string   `json:"status"`
	Players              []Player `json:"players"`
	CurrentQuestionIndex int      `json:"currentQuestionIndex"`
}

// Command is a client to server message. The set of implementations is closed.
type Command interface {
	commandName() string
}

// CreateGame asks the server to open a room for the host's questions.
type CreateGame struct {
	HostID    string     `json:"hostId"`
	Questions []Question `json:"questions"`
}

// JoinGame adds a player to a room. The host sends it too, after creation.
type JoinGame struct {
	RoomCode string `json:"roomCode"`
	Player   Player `json:"player"`
}

// StartGame is host only.
type StartGame struct {
	RoomCode string `json:"roomCode"`
}

// SubmitAnswer answers the room's active question.
type SubmitAnswer struct {
	RoomCode    string `json:"roomCode"`
	PlayerID    string `json:"playerId"`
	AnswerIndex int    `json:"answerIndex"`
}

// LeaveGame removes the player from the room.
type LeaveGame struct {
	RoomCode string `json:"roomCode"`
	PlayerID string `json:"playerId"`
}

// GetCurrentQuestion requests a current-question reply for resync.
type GetCurrentQuestion struct {
	RoomCode string `json:"roomCode"`
	PlayerID string `json:"playerId"`
}

func (CreateGame) commandName() string         { return CmdCreateGame }
func (JoinGame) commandName() string           { return CmdJoinGame }
func (StartGame) commandName() string          { return CmdStartGame }
func (SubmitAnswer) commandName() string       { return CmdSubmitAnswer }
func (LeaveGame) commandName() string          { return CmdLeaveGame }
func (GetCurrentQuestion) commandName() string { return CmdGetCurrentQuestion }

// CommandName returns the wire name of cmd.
func CommandName(cmd Command) string { return cmd.commandName() }

// Event is a server to client message, or a transport-local notification.
// The set of implementations is closed.
type Event interface {
	eventName() string
}

// GameCreated acknowledges CreateGame with the room code.
type GameCreated struct {
	RoomCode string `json:"roomCode"`
	Game     Game   `json:"game"`
}

// JoinedGame acknowledges JoinGame to the joining player.
type JoinedGame struct {
	Game Game `json:"game"`
}

// PlayerJoined and PlayerLeft carry the full player list.
type PlayerJoined struct {
	Player  Player   `json:"player"`
	Players []Player `json:"players"`
}

type PlayerLeft struct {
	PlayerID string   `json:"playerId"`
	Players  []Player `json:"players"`
}

// GameStarted carries the first question.
type GameStarted struct {
	Game     Game     `json:"game"`
	Question Question `json:"question"`
}

// CurrentQuestion answers get-current-question. Question is nil when the
// room has no active question.
type CurrentQuestion struct {
	Question *Question `json:"question"`
}

// NextQuestion carries every question after the first.
type NextQuestion struct {
	Question Question `json:"question"`
}

// AnswerResult scores this client's submission.
type AnswerResult struct {
	Correct bool `json:"correct"`
	Points  int  `json:"points"`
}

// GameFinished ends the game. Players carries final scores when the server sends them.
type GameFinished struct {
	Players []Player `json:"players,omitempty"`
}

// ErrorEvent is a server-side rejection.
type ErrorEvent struct {
	Message string `json:"message"`
}

// Reconnected is produced by the transport after it re-dials a dropped connection.
type Reconnected struct{}

// Disconnected is produced by the transport when it gives up on the connection.
type Disconnected struct {
	Err error
}

func (GameCreated) eventName() string     { return EvtGameCreated }
func (JoinedGame) eventName() string      { return EvtJoinedGame }
func (PlayerJoined) eventName() string    { return EvtPlayerJoined }
func (PlayerLeft) eventName() string      { return EvtPlayerLeft }
func (GameStarted) eventName() string     { return EvtGameStarted }
func (CurrentQuestion) eventName() string { return EvtCurrentQuestion }
func (NextQuestion) eventName() string    { return EvtNextQuestion }
func (AnswerResult) eventName() string    { return EvtAnswerResult }
func (GameFinished) eventName() string    { return EvtGameFinished }
func (ErrorEvent) eventName() string      { return EvtError }
func (Reconnected) eventName() string     { return "reconnected" }
func (Disconnected) eventName() string    { return "disconnected" }

// EventName returns the wire name of ev.
func EventName(ev Event) string { return ev.eventName() }

// EncodeCommand renders cmd as a wire envelope.
func EncodeCommand(cmd Command) ([]byte, error) {
	return json.Marshal(outbound[Command]{Type: cmd.commandName(), Payload: cmd})
}

// EncodeEvent renders ev as a wire envelope.
func EncodeEvent(ev Event) ([]byte, error) {
	switch ev.(type) {
	case Reconnected, Disconnected:
		return nil, ErrLocalEvent
	}
	return json.Marshal(outbound[Event]{Type: ev.eventName(), Payload: ev})
}

// DecodeEvent parses a server envelope into its event.
func DecodeEvent(data []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	ev, err := decodeEvent(env)
	if err != nil {
		return nil, err
	}
	return ev, nil
}

func decodeEvent(env envelope) (Event, error) {
	switch env.Type {
	case EvtGameCreated:
		return decodeAs[GameCreated](env)
	case EvtJoinedGame:
		return decodeAs[JoinedGame](env)
	case EvtPlayerJoined:
		return decodeAs[PlayerJoined](env)
	case EvtPlayerLeft:
		return decodeAs[PlayerLeft](env)
	case EvtGameStarted:
		return decodeAs[GameStarted](env)
	case EvtCurrentQuestion:
		return decodeAs[CurrentQuestion](env)
	case EvtNextQuestion:
		return decodeAs[NextQuestion](env)
	case EvtAnswerResult:
		return decodeAs[AnswerResult](env)
	case EvtGameFinished:
		return decodeAs[GameFinished](env)
	case EvtError:
		return decodeAs[ErrorEvent](env)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Type)
	}
}

// DecodeCommand parses a client envelope into its command.
func DecodeCommand(data []byte) (Command, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	cmd, err := decodeCommand(env)
	if err != nil {
		return nil, err
	}
	return cmd, nil
}

func decodeCommand(env envelope) (Command, error) {
	switch env.Type {
	case CmdCreateGame:
		return decodeAs[CreateGame](env)
	case CmdJoinGame:
		return decodeAs[JoinGame](env)
	case CmdStartGame:
		return decodeAs[StartGame](env)
	case CmdSubmitAnswer:
		return decodeAs[SubmitAnswer](env)
	case CmdLeaveGame:
		return decodeAs[LeaveGame](env)
	case CmdGetCurrentQuestion:
		return decodeAs[GetCurrentQuestion](env)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, env.Type)
	}
}

func decodeAs[T any](env envelope) (T, error) {
	var v T
	if len(env.Payload) == 0 || string(env.Payload) == "null" {
		return v, nil
	}
	if err := json.Unmarshal(env.Payload, &v); err != nil {
		return v, fmt.Errorf("decode %s payload: %w", env.Type, err)
	}
	return v, nil
}

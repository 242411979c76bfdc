package domain

import "time"

// NoAnswer is the answer index submitted when the countdown expires without a choice.
const NoAnswer = -1

// DefaultTimeLimit applies to questions that arrive without a positive time limit.
const DefaultTimeLimit = 30

// Role distinguishes the room creator from joiners. A host also plays.
type Role string

const (
	RoleHost   Role = "host"
	RolePlayer Role = "player"
)

// Participant is one member of a room as projected from server broadcasts.
type Participant struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Role        Role   `json:"role"`
	Score       int    `json:"score"`
}

// RoomStatus mirrors the server's room progression.
type RoomStatus string

const (
	RoomWaiting  RoomStatus = "waiting"
	RoomPlaying  RoomStatus = "playing"
	RoomFinished RoomStatus = "finished"
)

// Room is the client's read-through projection of a server room.
type Room struct {
	Code         string        `json:"code"`
	HostID       string        `json:"hostId"`
	Status       RoomStatus    `json:"status"`
	Participants []Participant `json:"participants"`
}

// NonHostCount reports how many participants are not the host.
func (r Room) NonHostCount() int {
	n := 0
	for _, p := range r.Participants {
		if p.ID != r.HostID && p.Role != RoleHost {
			n++
		}
	}
	return n
}

// Question is the session view of one question. CorrectAnswer is only set for
// the host or after the participant's own submission has been scored.
type Question struct {
	ID            string   `json:"id"`
	Prompt        string   `json:"prompt"`
	Options       []string `json:"options"`
	CorrectAnswer *int     `json:"correctAnswer,omitempty"`
	TimeLimit     int      `json:"timeLimit"`
	Points        int      `json:"points,omitempty"`
	Position      int      `json:"position"`
	Total         int      `json:"total"`
	// TimeRemaining is the server's estimate in seconds, zero when unknown.
	TimeRemaining int `json:"timeRemaining,omitempty"`
}

// Countdown returns the number of seconds the local countdown starts from.
func (q Question) Countdown() int {
	if q.TimeRemaining > 0 {
		return q.TimeRemaining
	}
	if q.TimeLimit > 0 {
		return q.TimeLimit
	}
	return DefaultTimeLimit
}

// Submission is one answer for one question by one participant.
type Submission struct {
	RoomCode      string `json:"roomCode"`
	ParticipantID string `json:"participantId"`
	QuestionID    string `json:"questionId"`
	AnswerIndex   int    `json:"answerIndex"`
}

// Identity is the reload-surviving record of who this client is and which room it is in.
type Identity struct {
	Role          Role   `json:"role" yaml:"role"`
	ParticipantID string `json:"participantId" yaml:"participant_id"`
	DisplayName   string `json:"displayName" yaml:"display_name"`
	RoomCode      string `json:"roomCode,omitempty" yaml:"room_code,omitempty"`
}

// IsZero reports whether no participant has been established.
func (i Identity) IsZero() bool {
	return i.ParticipantID == ""
}

// LeaderboardEntry is one ranked line of the final standings.
type LeaderboardEntry struct {
	Rank          int    `json:"rank"`
	ParticipantID string `json:"participantId"`
	DisplayName   string `json:"displayName"`
	Score         int    `json:"score"`
}

// GameResult is the frozen outcome of a finished game for the local participant.
type GameResult struct {
	RoomCode      string             `json:"roomCode"`
	ParticipantID string             `json:"participantId"`
	DisplayName   string             `json:"displayName"`
	Role          Role               `json:"role"`
	Score         int                `json:"score"`
	Answered      int                `json:"answered"`
	Leaderboard   []LeaderboardEntry `json:"leaderboard"`
	FinishedAt    time.Time          `json:"finishedAt"`
}

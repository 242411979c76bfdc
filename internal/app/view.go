package app

import "trivia-client/internal/domain"

// Phase is the room lifecycle position of this client.
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseCreating    Phase = "creating"
	PhaseJoining     Phase = "joining"
	PhaseWaitingRoom Phase = "waiting_room"
	PhaseInGame      Phase = "in_game"
	PhaseFinished    Phase = "finished"
)

// View is an immutable snapshot of the session, published after every
// handled input.
type View struct {
	Phase         Phase
	Identity      domain.Identity
	Room          domain.Room
	Starting      bool
	Question      *domain.Question
	QuestionState QuestionState
	Remaining     int
	Selected      int
	HasSubmitted  bool
	Correct       *bool
	LastPoints    int
	Score         int
	Leaderboard   []domain.LeaderboardEntry
	Error         string
	Resyncing     bool
	Connected     bool
}

// IsHost reports whether the local participant created the room.
func (v View) IsHost() bool { return v.Identity.Role == domain.RoleHost }

// CanStart mirrors the client-side guard applied by Start.
func (v View) CanStart() bool {
	return v.Phase == PhaseWaitingRoom && v.IsHost() && !v.Starting && v.Room.NonHostCount() > 0
}

func (c *Client) snapshot() View {
	v := View{
		Phase:         c.phase,
		Identity:      c.ident,
		Room:          cloneRoom(c.room),
		Starting:      c.starting,
		QuestionState: c.engine.State(),
		Selected:      c.engine.Selected(),
		HasSubmitted:  c.engine.Submitted(),
		LastPoints:    c.engine.LastPoints(),
		Score:         c.score.Total(),
		Error:         c.lastErr,
		Resyncing:     c.resyncing,
		Connected:     c.events != nil,
	}
	if q, ok := c.engine.Question(); ok && c.phase != PhaseIdle {
		q.Options = append([]string(nil), q.Options...)
		if c.ident.Role != domain.RoleHost && c.engine.Correct() == nil {
			q.CorrectAnswer = nil
		}
		if q.CorrectAnswer != nil {
			idx := *q.CorrectAnswer
			q.CorrectAnswer = &idx
		}
		v.Question = &q
		v.Remaining = c.engine.Remaining(c.clock.Now())
	}
	if correct := c.engine.Correct(); correct != nil {
		b := *correct
		v.Correct = &b
	}
	if len(c.leaderboard) > 0 {
		v.Leaderboard = append([]domain.LeaderboardEntry(nil), c.leaderboard...)
	}
	return v
}

func cloneRoom(r domain.Room) domain.Room {
	r.Participants = append([]domain.Participant(nil), r.Participants...)
	return r
}

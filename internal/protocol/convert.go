package protocol

import "trivia-client/internal/domain"

// ToQuestion converts a wire question into the session view.
func ToQuestion(q Question) domain.Question {
	out := domain.Question{
		ID:            q.ID,
		Prompt:        q.Question,
		Options:       append([]string(nil), q.Answers...),
		TimeLimit:     q.TimeLimit,
		Points:        q.Points,
		Position:      q.QuestionNumber,
		Total:         q.TotalQuestions,
		TimeRemaining: q.TimeRemaining,
	}
	if q.CorrectAnswer != nil {
		idx := *q.CorrectAnswer
		out.CorrectAnswer = &idx
	}
	return out
}

// FromQuestion converts a session question into its wire form.
func FromQuestion(q domain.Question) Question {
	out := Question{
		ID:             q.ID,
		Question:       q.Prompt,
		Answers:        append([]string(nil), q.Options...),
		TimeLimit:      q.TimeLimit,
		Points:         q.Points,
		QuestionNumber: q.Position,
		TotalQuestions: q.Total,
		TimeRemaining:  q.TimeRemaining,
	}
	if q.CorrectAnswer != nil {
		idx := *q.CorrectAnswer
		out.CorrectAnswer = &idx
	}
	return out
}

// FromQuestions converts a slice of session questions.
func FromQuestions(qs []domain.Question) []Question {
	out := make([]Question, 0, len(qs))
	for _, q := range qs {
		out = append(out, FromQuestion(q))
	}
	return out
}

// Redact returns a copy of q without the correct answer.
func Redact(q Question) Question {
	q.CorrectAnswer = nil
	q.Answers = append([]string(nil), q.Answers...)
	return q
}

// ToParticipants projects wire players onto participants, tagging hostID as host.
func ToParticipants(players []Player, hostID string) []domain.Participant {
	out := make([]domain.Participant, 0, len(players))
	for _, p := range players {
		role := domain.RolePlayer
		if hostID != "" && p.ID == hostID {
			role = domain.RoleHost
		}
		out = append(out, domain.Participant{
			ID:          p.ID,
			DisplayName: p.Name,
			Role:        role,
			Score:       p.Score,
		})
	}
	return out
}

// ToRoom converts a wire game into the room projection.
func ToRoom(g Game) domain.Room {
	return domain.Room{
		Code:         domain.NormalizeRoomCode(g.RoomCode),
		HostID:       g.HostID,
		Status:       domain.RoomStatus(g.Status),
		Participants: ToParticipants(g.Players, g.HostID),
	}
}

// FromParticipant converts a participant into its wire form.
func FromParticipant(p domain.Participant) Player {
	return Player{ID: p.ID, Name: p.DisplayName, Score: p.Score}
}

// FromSubmission builds the submit-answer command. The wire form carries no
// question id; the server scores against its active question.
func FromSubmission(s domain.Submission) SubmitAnswer {
	return SubmitAnswer{RoomCode: s.RoomCode, PlayerID: s.ParticipantID, AnswerIndex: s.AnswerIndex}
}

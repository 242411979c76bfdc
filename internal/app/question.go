package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"trivia-client/internal/domain"
	"trivia-client/internal/protocol"
)

// onQuestion is the single handler for game-started, next-question and
// current-question payloads.
func (c *Client) onQuestion(q protocol.Question) {
	switch c.phase {
	case PhaseWaitingRoom:
		c.enterGame()
	case PhaseInGame:
	default:
		return
	}
	c.stopResyncTimer()

	if c.engine.OnQuestion(protocol.ToQuestion(q), c.clock.Now()) {
		c.lastErr = ""
		log.Debug().Str("room", c.room.Code).Str("question", q.ID).Int("position", q.QuestionNumber).Msg("question open")
	}
}

func (c *Client) onTick() {
	if c.phase != PhaseInGame {
		return
	}
	if answer, ok := c.engine.Tick(c.clock.Now()); ok {
		q, _ := c.engine.Question()
		log.Debug().Str("question", q.ID).Int("answer", answer).Msg("countdown expired, auto-submitting")
		_ = c.submit(answer)
	}
}

func (c *Client) selectOption(index int) error {
	if c.phase != PhaseInGame {
		return domain.ErrInvalidPhase
	}
	send, err := c.engine.Select(index)
	if err != nil {
		return err
	}
	if send {
		return c.submit(c.engine.Selected())
	}
	return nil
}

func (c *Client) confirm() error {
	if c.phase != PhaseInGame {
		return domain.ErrInvalidPhase
	}
	answer, ok, err := c.engine.Confirm()
	if err != nil {
		return err
	}
	if ok {
		return c.submit(answer)
	}
	return nil
}

// submit emits the one submission the engine has just locked. A failed
// emit reopens the question so the answer can be sent again.
func (c *Client) submit(answer int) error {
	q, _ := c.engine.Question()
	sub := domain.Submission{
		RoomCode:      c.room.Code,
		ParticipantID: c.ident.ParticipantID,
		QuestionID:    q.ID,
		AnswerIndex:   answer,
	}
	if err := c.emit(protocol.FromSubmission(sub)); err != nil {
		c.engine.Reopen()
		return err
	}
	c.engine.MarkSent()
	log.Debug().Str("room", sub.RoomCode).Str("question", sub.QuestionID).Int("answer", answer).Msg("answer sent")
	return nil
}

func (c *Client) onAnswerResult(ev protocol.AnswerResult) {
	if c.phase != PhaseInGame || c.score.Frozen() {
		return
	}
	c.engine.OnResult(ev.Correct, ev.Points)
	c.score.Add(ev.Points)
	log.Debug().Str("room", c.room.Code).Bool("correct", ev.Correct).Int("points", ev.Points).Int("score", c.score.Total()).Msg("answer result")
}

func (c *Client) onGameFinished(ctx context.Context, ev protocol.GameFinished) {
	switch c.phase {
	case PhaseWaitingRoom, PhaseInGame:
	default:
		return
	}
	c.engine.OnFinished()
	c.score.Freeze()
	c.stopTimers()

	participants := c.room.Participants
	if len(ev.Players) > 0 {
		participants = c.withHost(protocol.ToParticipants(ev.Players, c.room.HostID))
	} else {
		participants = append([]domain.Participant(nil), participants...)
		for i := range participants {
			if participants[i].ID == c.ident.ParticipantID {
				participants[i].Score = c.score.Total()
			}
		}
	}
	c.room.Participants = participants
	c.room.Status = domain.RoomFinished
	c.leaderboard = domain.RankParticipants(participants)
	c.phase = PhaseFinished

	log.Info().Str("room", c.room.Code).Int("score", c.score.Total()).Msg("game finished")
	c.archiveResult(ctx)
}

func (c *Client) archiveResult(ctx context.Context) {
	if c.archive == nil {
		return
	}
	result := domain.GameResult{
		RoomCode:      c.room.Code,
		ParticipantID: c.ident.ParticipantID,
		DisplayName:   c.ident.DisplayName,
		Role:          c.ident.Role,
		Score:         c.score.Total(),
		Answered:      c.engine.Answered(),
		Leaderboard:   append([]domain.LeaderboardEntry(nil), c.leaderboard...),
		FinishedAt:    c.clock.Now().UTC(),
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.archive.SaveResult(ctx, result); err != nil {
		log.Warn().Err(err).Str("room", result.RoomCode).Msg("archive result")
	}
}

package app

import (
	"time"

	"trivia-client/internal/domain"
)

// QuestionState is the position of the question delivery state machine.
type QuestionState string

const (
	StateAwaitingQuestion QuestionState = "awaiting_question"
	StateAnswerOpen       QuestionState = "answer_open"
	StateAnswerLocked     QuestionState = "answer_locked"
	StateAwaitingResult   QuestionState = "awaiting_result"
	StateAwaitingNext     QuestionState = "awaiting_next"
	StateFinished         QuestionState = "finished"
)

// Engine tracks the current question, its countdown and the single
// submission allowed for it. It holds no timers; callers feed it the time.
type Engine struct {
	policy Policy

	state       QuestionState
	question    domain.Question
	hasQuestion bool
	deadline    time.Time
	selected    int
	submitted   bool
	correct     *bool
	points      int
	answered    int
	seen        map[string]struct{}
}

// NewEngine returns an engine awaiting its first question.
func NewEngine(policy Policy) *Engine {
	e := &Engine{policy: policy}
	e.Reset()
	return e
}

// Reset returns the engine to AwaitingQuestion with no question.
func (e *Engine) Reset() {
	policy := e.policy
	*e = Engine{
		policy:   policy,
		state:    StateAwaitingQuestion,
		selected: domain.NoAnswer,
		seen:     make(map[string]struct{}),
	}
}

// OnQuestion handles every question broadcast, first or next, and resync
// responses. A repeat of the current question id only pulls the deadline
// earlier when the server reports less time remaining; a late repeat of an
// earlier question is ignored. It reports whether the question replaced the
// previous one.
func (e *Engine) OnQuestion(q domain.Question, now time.Time) bool {
	if e.state == StateFinished {
		return false
	}

	if e.hasQuestion && e.question.ID == q.ID {
		if q.TimeRemaining > 0 {
			if d := now.Add(time.Duration(q.TimeRemaining) * time.Second); d.Before(e.deadline) {
				e.deadline = d
			}
		}
		return false
	}
	if _, ok := e.seen[q.ID]; ok {
		return false
	}

	e.seen[q.ID] = struct{}{}
	e.question = q
	e.hasQuestion = true
	e.deadline = now.Add(time.Duration(q.Countdown()) * time.Second)
	e.selected = domain.NoAnswer
	e.submitted = false
	e.correct = nil
	e.points = 0
	e.state = StateAnswerOpen
	return true
}

// Remaining is the whole seconds left on the local countdown, rounded up.
func (e *Engine) Remaining(now time.Time) int {
	if !e.hasQuestion || e.state == StateFinished {
		return 0
	}
	left := e.deadline.Sub(now)
	if left <= 0 {
		return 0
	}
	secs := left / time.Second
	if left%time.Second != 0 {
		secs++
	}
	return int(secs)
}

// Tick auto-submits when the countdown reaches zero with the answer still open.
// The staged choice is used under the confirm policy, otherwise NoAnswer.
func (e *Engine) Tick(now time.Time) (int, bool) {
	if e.state != StateAnswerOpen || e.submitted || e.Remaining(now) > 0 {
		return 0, false
	}
	answer := e.selected
	e.lock()
	return answer, true
}

// Select applies user input. Under the immediate policy it returns true when
// the selection must be submitted. Input after submission is ignored.
func (e *Engine) Select(idx int) (bool, error) {
	if e.state != StateAnswerOpen || e.submitted {
		return false, nil
	}
	if idx < 0 || idx >= len(e.question.Options) {
		return false, domain.ErrOptionOutOfRange
	}
	e.selected = idx
	if e.policy == PolicyConfirm {
		return false, nil
	}
	e.lock()
	return true, nil
}

// Confirm locks the staged choice under the confirm policy.
func (e *Engine) Confirm() (int, bool, error) {
	if e.policy != PolicyConfirm {
		return 0, false, domain.ErrConfirmDisabled
	}
	if e.state != StateAnswerOpen || e.submitted {
		return 0, false, nil
	}
	if e.selected == domain.NoAnswer {
		return 0, false, domain.ErrNoSelection
	}
	answer := e.selected
	e.lock()
	return answer, true, nil
}

// MarkSent records that the locked submission left the client.
func (e *Engine) MarkSent() {
	if e.state == StateAnswerLocked {
		e.state = StateAwaitingResult
	}
}

// OnResult records the server's verdict for the current question.
func (e *Engine) OnResult(correct bool, points int) bool {
	if e.state == StateFinished || !e.hasQuestion {
		return false
	}
	e.correct = &correct
	e.points = points
	e.submitted = true
	e.state = StateAwaitingNext
	return true
}

// OnFinished ends the game from any state and drops any staged choice.
func (e *Engine) OnFinished() {
	e.state = StateFinished
	e.selected = domain.NoAnswer
}

// Reopen undoes a lock whose submission never left the client.
func (e *Engine) Reopen() {
	if e.state != StateAnswerLocked {
		return
	}
	e.submitted = false
	e.answered--
	e.state = StateAnswerOpen
}

func (e *Engine) lock() {
	e.submitted = true
	e.answered++
	e.state = StateAnswerLocked
}

func (e *Engine) State() QuestionState { return e.state }

func (e *Engine) Policy() Policy { return e.policy }

// Question returns the current question, if any.
func (e *Engine) Question() (domain.Question, bool) { return e.question, e.hasQuestion }

// Selected is the staged or submitted option, NoAnswer when none.
func (e *Engine) Selected() int { return e.selected }

func (e *Engine) Submitted() bool { return e.submitted }

// Correct is nil until a result arrives for the current question.
func (e *Engine) Correct() *bool { return e.correct }

func (e *Engine) LastPoints() int { return e.points }

// Answered counts submissions made by this client across the game.
func (e *Engine) Answered() int { return e.answered }

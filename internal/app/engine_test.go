package app

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"trivia-client/internal/domain"
)

var t0 = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

func question(id string, limit int) domain.Question {
	return domain.Question{ID: id, Prompt: "prompt " + id, Options: []string{"a", "b", "c", "d"}, TimeLimit: limit}
}

func TestEngineLatestQuestionWins(t *testing.T) {
	e := NewEngine(PolicyImmediate)
	resets := 0
	for i := 0; i < 5; i++ {
		q := question(fmt.Sprintf("q_%d", i), 10)
		if e.OnQuestion(q, t0) {
			resets++
		}
		// duplicate delivery must not reset again
		if e.OnQuestion(q, t0) {
			t.Fatalf("duplicate %s reset the engine", q.ID)
		}
		if _, err := e.Select(i % 4); err != nil {
			t.Fatalf("select: %v", err)
		}
		cur, ok := e.Question()
		if !ok || cur.ID != q.ID {
			t.Fatalf("expected current %s, got %v", q.ID, cur.ID)
		}
	}
	if resets != 5 {
		t.Fatalf("expected 5 resets, got %d", resets)
	}
}

func TestEngineSupersedeResetsSubmission(t *testing.T) {
	e := NewEngine(PolicyImmediate)
	e.OnQuestion(question("q_0", 10), t0)
	if send, _ := e.Select(2); !send {
		t.Fatalf("expected immediate submit")
	}
	e.MarkSent()
	if e.State() != StateAwaitingResult {
		t.Fatalf("expected awaiting result, got %s", e.State())
	}

	e.OnQuestion(question("q_1", 10), t0.Add(3*time.Second))
	if e.Submitted() || e.Selected() != domain.NoAnswer || e.Correct() != nil {
		t.Fatalf("new question must clear submission state")
	}
	if e.State() != StateAnswerOpen {
		t.Fatalf("expected answer open, got %s", e.State())
	}
}

func TestEngineIgnoresEarlierQuestionRedelivered(t *testing.T) {
	e := NewEngine(PolicyImmediate)
	e.OnQuestion(question("q_0", 10), t0)
	if send, _ := e.Select(1); !send {
		t.Fatalf("expected immediate submit")
	}
	e.MarkSent()
	e.OnQuestion(question("q_1", 10), t0.Add(2*time.Second))

	if e.OnQuestion(question("q_0", 10), t0.Add(3*time.Second)) {
		t.Fatalf("earlier question must not replace the active one")
	}
	if cur, _ := e.Question(); cur.ID != "q_1" || e.Submitted() {
		t.Fatalf("expected q_1 still open, got %s submitted=%v", cur.ID, e.Submitted())
	}

	e.Reset()
	if !e.OnQuestion(question("q_0", 10), t0) {
		t.Fatalf("reset must forget seen questions")
	}
}

func TestEngineReopenAfterFailedSend(t *testing.T) {
	e := NewEngine(PolicyImmediate)
	e.OnQuestion(question("q_0", 10), t0)
	if send, _ := e.Select(2); !send {
		t.Fatalf("expected immediate submit")
	}
	e.Reopen()
	if e.State() != StateAnswerOpen || e.Submitted() || e.Answered() != 0 {
		t.Fatalf("expected open question after reopen, got %s submitted=%v", e.State(), e.Submitted())
	}
	if send, _ := e.Select(2); !send {
		t.Fatalf("expected retry to submit")
	}
	e.MarkSent()
	e.Reopen()
	if e.State() != StateAwaitingResult {
		t.Fatalf("reopen after send must be a no-op, got %s", e.State())
	}
}

func TestEngineSingleSubmission(t *testing.T) {
	e := NewEngine(PolicyImmediate)
	e.OnQuestion(question("q_0", 5), t0)

	sends := 0
	for i := 0; i < 10; i++ {
		send, err := e.Select(i % 4)
		if err != nil {
			t.Fatalf("select: %v", err)
		}
		if send {
			sends++
		}
		e.OnQuestion(question("q_0", 5), t0)
	}
	for s := 0; s <= 10; s++ {
		if _, ok := e.Tick(t0.Add(time.Duration(s) * time.Second)); ok {
			sends++
		}
	}
	if sends != 1 {
		t.Fatalf("expected exactly one submission, got %d", sends)
	}
	if e.Selected() != 0 {
		t.Fatalf("first choice must stick, got %d", e.Selected())
	}
}

func TestEngineTimeoutNoAnswer(t *testing.T) {
	e := NewEngine(PolicyImmediate)
	e.OnQuestion(question("q_0", 3), t0)

	for s := 0; s < 3; s++ {
		if _, ok := e.Tick(t0.Add(time.Duration(s) * time.Second)); ok {
			t.Fatalf("submitted early at %ds", s)
		}
	}
	answer, ok := e.Tick(t0.Add(3 * time.Second))
	if !ok || answer != domain.NoAnswer {
		t.Fatalf("expected NoAnswer auto-submit, got %d %v", answer, ok)
	}
	if _, ok := e.Tick(t0.Add(4 * time.Second)); ok {
		t.Fatalf("auto-submit fired twice")
	}
	if send, _ := e.Select(1); send {
		t.Fatalf("selection after lock must be ignored")
	}
}

func TestEngineConfirmPolicy(t *testing.T) {
	e := NewEngine(PolicyConfirm)
	e.OnQuestion(question("q_0", 10), t0)

	if _, _, err := e.Confirm(); !errors.Is(err, domain.ErrNoSelection) {
		t.Fatalf("expected ErrNoSelection, got %v", err)
	}
	if send, err := e.Select(1); err != nil || send {
		t.Fatalf("confirm policy must only stage, got %v %v", send, err)
	}
	if send, _ := e.Select(3); send {
		t.Fatalf("restaging must not send")
	}
	answer, ok, err := e.Confirm()
	if err != nil || !ok || answer != 3 {
		t.Fatalf("expected confirm of 3, got %d %v %v", answer, ok, err)
	}
	if _, ok, _ := e.Confirm(); ok {
		t.Fatalf("second confirm must be ignored")
	}
}

func TestEngineConfirmTimeoutUsesStagedChoice(t *testing.T) {
	e := NewEngine(PolicyConfirm)
	e.OnQuestion(question("q_0", 2), t0)
	if _, err := e.Select(2); err != nil {
		t.Fatalf("select: %v", err)
	}
	answer, ok := e.Tick(t0.Add(2 * time.Second))
	if !ok || answer != 2 {
		t.Fatalf("expected staged answer 2, got %d %v", answer, ok)
	}
}

func TestEngineConfirmRejectedUnderImmediate(t *testing.T) {
	e := NewEngine(PolicyImmediate)
	e.OnQuestion(question("q_0", 2), t0)
	if _, _, err := e.Confirm(); !errors.Is(err, domain.ErrConfirmDisabled) {
		t.Fatalf("expected ErrConfirmDisabled, got %v", err)
	}
}

func TestEngineSelectOutOfRange(t *testing.T) {
	e := NewEngine(PolicyImmediate)
	e.OnQuestion(question("q_0", 2), t0)
	if _, err := e.Select(4); !errors.Is(err, domain.ErrOptionOutOfRange) {
		t.Fatalf("expected ErrOptionOutOfRange, got %v", err)
	}
	if e.Submitted() {
		t.Fatalf("invalid input must not lock")
	}
}

func TestEngineFinishedDiscardsStagedChoice(t *testing.T) {
	e := NewEngine(PolicyConfirm)
	e.OnQuestion(question("q_0", 10), t0)
	if _, err := e.Select(1); err != nil {
		t.Fatalf("select: %v", err)
	}
	e.OnFinished()

	if e.State() != StateFinished {
		t.Fatalf("expected finished, got %s", e.State())
	}
	if e.Selected() != domain.NoAnswer {
		t.Fatalf("staged choice must be discarded")
	}
	if _, ok := e.Tick(t0.Add(time.Minute)); ok {
		t.Fatalf("finished engine must not submit")
	}
	if e.OnQuestion(question("q_1", 10), t0) {
		t.Fatalf("finished engine must ignore questions")
	}
}

func TestEngineResultAndRemaining(t *testing.T) {
	e := NewEngine(PolicyImmediate)
	q := question("q_0", 20)
	q.TimeRemaining = 7
	e.OnQuestion(q, t0)

	if got := e.Remaining(t0); got != 7 {
		t.Fatalf("expected remaining 7 from server estimate, got %d", got)
	}
	if got := e.Remaining(t0.Add(1500 * time.Millisecond)); got != 6 {
		t.Fatalf("expected remaining rounded up to 6, got %d", got)
	}

	// duplicate with a later estimate must not extend the deadline
	later := q
	later.TimeRemaining = 15
	e.OnQuestion(later, t0.Add(time.Second))
	if got := e.Remaining(t0.Add(time.Second)); got != 6 {
		t.Fatalf("deadline extended to %d", got)
	}
	earlier := q
	earlier.TimeRemaining = 2
	e.OnQuestion(earlier, t0.Add(time.Second))
	if got := e.Remaining(t0.Add(time.Second)); got != 2 {
		t.Fatalf("expected deadline pulled in to 2, got %d", got)
	}

	if !e.OnResult(true, 100) {
		t.Fatalf("expected result to apply")
	}
	if e.State() != StateAwaitingNext || e.Correct() == nil || !*e.Correct() || e.LastPoints() != 100 {
		t.Fatalf("unexpected state after result: %s", e.State())
	}
	if _, ok := e.Tick(t0.Add(time.Minute)); ok {
		t.Fatalf("no auto-submit after a result")
	}
}

func TestEngineDefaultTimeLimit(t *testing.T) {
	e := NewEngine(PolicyImmediate)
	e.OnQuestion(question("q_0", 0), t0)
	if got := e.Remaining(t0); got != domain.DefaultTimeLimit {
		t.Fatalf("expected default limit, got %d", got)
	}
}

func TestScoreboardIsAdditive(t *testing.T) {
	var s Scoreboard
	points := []int{100, 0, 250, -10, 50}
	want := 400
	for _, p := range points {
		s.Add(p)
	}
	if s.Total() != want {
		t.Fatalf("expected %d, got %d", want, s.Total())
	}
	s.Freeze()
	s.Add(100)
	if s.Total() != want {
		t.Fatalf("frozen score changed to %d", s.Total())
	}
}

func TestParsePolicy(t *testing.T) {
	cases := map[string]Policy{
		"":          PolicyImmediate,
		"immediate": PolicyImmediate,
		" Confirm ": PolicyConfirm,
	}
	for in, want := range cases {
		got, err := ParsePolicy(in)
		if err != nil || got != want {
			t.Fatalf("ParsePolicy(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParsePolicy("later"); !errors.Is(err, domain.ErrUnknownPolicy) {
		t.Fatalf("expected ErrUnknownPolicy, got %v", err)
	}
}

package protocol

import (
	"encoding/json"
	"errors"
	"testing"

	"trivia-client/internal/domain"
)

func TestEncodeCommandEnvelope(t *testing.T) {
	data, err := EncodeCommand(SubmitAnswer{RoomCode: "ABC123", PlayerID: "player_1", AnswerIndex: 0})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if string(raw["type"]) != `"submit-answer"` {
		t.Fatalf("unexpected type %s", raw["type"])
	}

	var payload map[string]any
	if err := json.Unmarshal(raw["payload"], &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	// index zero must still be sent
	if v, ok := payload["answerIndex"]; !ok || v.(float64) != 0 {
		t.Fatalf("expected answerIndex 0, got %v", payload)
	}
	if payload["playerId"] != "player_1" || payload["roomCode"] != "ABC123" {
		t.Fatalf("unexpected payload %v", payload)
	}
}

func TestDecodeEvents(t *testing.T) {
	cases := map[string]struct {
		in    string
		check func(t *testing.T, ev Event)
	}{
		"game created": {
			in: `{"type":"game-created","payload":{"roomCode":"ABC123","game":{"roomCode":"ABC123","hostId":"host_1","status":"waiting","players":[]}}}`,
			check: func(t *testing.T, ev Event) {
				gc, ok := ev.(GameCreated)
				if !ok || gc.RoomCode != "ABC123" || gc.Game.HostID != "host_1" {
					t.Fatalf("unexpected event %#v", ev)
				}
			},
		},
		"player left": {
			in: `{"type":"player-left","payload":{"playerId":"p2","players":[{"id":"p1","name":"Ana","score":0}]}}`,
			check: func(t *testing.T, ev Event) {
				pl, ok := ev.(PlayerLeft)
				if !ok || pl.PlayerID != "p2" || len(pl.Players) != 1 {
					t.Fatalf("unexpected event %#v", ev)
				}
			},
		},
		"null current question": {
			in: `{"type":"current-question","payload":{"question":null}}`,
			check: func(t *testing.T, ev Event) {
				cq, ok := ev.(CurrentQuestion)
				if !ok || cq.Question != nil {
					t.Fatalf("unexpected event %#v", ev)
				}
			},
		},
		"next question with remaining": {
			in: `{"type":"next-question","payload":{"question":{"id":"q_1","question":"2+2?","answers":["3","4"],"timeLimit":20,"timeRemaining":12}}}`,
			check: func(t *testing.T, ev Event) {
				nq, ok := ev.(NextQuestion)
				if !ok || nq.Question.TimeRemaining != 12 || nq.Question.CorrectAnswer != nil {
					t.Fatalf("unexpected event %#v", ev)
				}
			},
		},
		"game finished without payload": {
			in: `{"type":"game-finished"}`,
			check: func(t *testing.T, ev Event) {
				if _, ok := ev.(GameFinished); !ok {
					t.Fatalf("unexpected event %#v", ev)
				}
			},
		},
		"error": {
			in: `{"type":"error","payload":{"message":"Game not found"}}`,
			check: func(t *testing.T, ev Event) {
				e, ok := ev.(ErrorEvent)
				if !ok || e.Message != "Game not found" {
					t.Fatalf("unexpected event %#v", ev)
				}
			},
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			ev, err := DecodeEvent([]byte(tc.in))
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			tc.check(t, ev)
		})
	}
}

func TestDecodeEventRejects(t *testing.T) {
	if _, err := DecodeEvent([]byte(`{"type":"bogus","payload":{}}`)); !errors.Is(err, ErrUnknownEvent) {
		t.Fatalf("expected ErrUnknownEvent, got %v", err)
	}
	ev, err := DecodeEvent([]byte(`{"type":"answer-result","payload":{"correct":"yes"}}`))
	if err == nil {
		t.Fatalf("expected payload error")
	}
	if ev != nil {
		t.Fatalf("expected nil event on error, got %#v", ev)
	}
	if _, err := DecodeEvent([]byte(`not json`)); err == nil {
		t.Fatalf("expected envelope error")
	}
}

func TestEncodeEventRoundTripAndLocal(t *testing.T) {
	data, err := EncodeEvent(AnswerResult{Correct: true, Points: 100})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	ev, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ar, ok := ev.(AnswerResult); !ok || !ar.Correct || ar.Points != 100 {
		t.Fatalf("unexpected event %#v", ev)
	}

	if _, err := EncodeEvent(Reconnected{}); !errors.Is(err, ErrLocalEvent) {
		t.Fatalf("expected ErrLocalEvent, got %v", err)
	}
}

func TestDecodeCommand(t *testing.T) {
	data, err := EncodeCommand(JoinGame{RoomCode: "XYZ789", Player: Player{ID: "player_9", Name: "Bo"}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	cmd, err := DecodeCommand(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	jg, ok := cmd.(JoinGame)
	if !ok || jg.RoomCode != "XYZ789" || jg.Player.Name != "Bo" {
		t.Fatalf("unexpected command %#v", cmd)
	}
	if CommandName(cmd) != CmdJoinGame {
		t.Fatalf("unexpected name %s", CommandName(cmd))
	}

	if _, err := DecodeCommand([]byte(`{"type":"nope"}`)); !errors.Is(err, ErrUnknownCommand) {
		t.Fatalf("expected ErrUnknownCommand, got %v", err)
	}
}

func TestRedactAndConvert(t *testing.T) {
	idx := 1
	q := Question{ID: "q_0", Question: "?", Answers: []string{"a", "b"}, CorrectAnswer: &idx, TimeLimit: 10}
	r := Redact(q)
	if r.CorrectAnswer != nil {
		t.Fatalf("expected redacted question")
	}
	if q.CorrectAnswer == nil {
		t.Fatalf("redact must not mutate input")
	}

	dq := ToQuestion(q)
	if dq.Prompt != "?" || len(dq.Options) != 2 || dq.CorrectAnswer == nil || *dq.CorrectAnswer != 1 {
		t.Fatalf("unexpected conversion %#v", dq)
	}
	back := FromQuestion(dq)
	if back.Question != "?" || back.CorrectAnswer == nil || *back.CorrectAnswer != 1 {
		t.Fatalf("unexpected back conversion %#v", back)
	}

	room := ToRoom(Game{RoomCode: "abc123", HostID: "h", Status: "waiting", Players: []Player{{ID: "h", Name: "Host"}, {ID: "p", Name: "P"}}})
	if room.Code != "ABC123" || room.NonHostCount() != 1 {
		t.Fatalf("unexpected room %#v", room)
	}

	p := FromParticipant(domain.Participant{ID: "p", DisplayName: "P", Role: domain.RolePlayer, Score: 40})
	if p != (Player{ID: "p", Name: "P", Score: 40}) {
		t.Fatalf("unexpected player %#v", p)
	}
	sa := FromSubmission(domain.Submission{RoomCode: "ABC123", ParticipantID: "p", QuestionID: "q_0", AnswerIndex: domain.NoAnswer})
	if sa != (SubmitAnswer{RoomCode: "ABC123", PlayerID: "p", AnswerIndex: -1}) {
		t.Fatalf("unexpected submission %#v", sa)
	}
}

package app_test

import (
	"context"
	"testing"
	"time"

	"trivia-client/internal/app"
	"trivia-client/internal/domain"
	"trivia-client/internal/gametest"
	"trivia-client/internal/infra/memory"
	"trivia-client/internal/protocol"
	"trivia-client/internal/transport/ws"
)

type session struct {
	client *app.Client
	views  <-chan app.View
	ids    *memory.IdentityStore
}

func startSession(t *testing.T, url string, archive app.ResultArchive) *session {
	t.Helper()
	ids := memory.NewIdentityStore()
	client := app.NewClient(ws.New(ws.Config{URL: url}), ids, app.Options{Policy: app.PolicyImmediate, Archive: archive})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = client.Run(ctx)
	}()
	views, unsubscribe := client.Subscribe()
	t.Cleanup(func() {
		unsubscribe()
		cancel()
		<-done
	})
	return &session{client: client, views: views, ids: ids}
}

func (s *session) wait(t *testing.T, what string, pred func(app.View) bool) app.View {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case v, ok := <-s.views:
			if !ok {
				t.Fatalf("views closed waiting for %s", what)
			}
			if pred(v) {
				return v
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s; last view %+v", what, s.client.Current())
		}
	}
}

func twoQuestionSet() domain.TriviaSet {
	return domain.TriviaSet{
		ID:         "set-1",
		Name:       "Warmup",
		Difficulty: domain.DifficultyEasy,
		Questions: []domain.TriviaQuestion{
			{Question: "2+2?", Answers: []string{"3", "4", "5"}, CorrectAnswer: 1, TimeLimit: 30, Points: 100},
			{Question: "Sky colour?", Answers: []string{"Blue", "Green"}, CorrectAnswer: 0, TimeLimit: 30, Points: 100},
		},
	}
}

func TestHostAndPlayerFullGame(t *testing.T) {
	srv := gametest.NewServer()
	defer srv.Close()
	ctx := context.Background()

	archive := memory.NewResultArchive()
	host := startSession(t, srv.URL(), nil)
	player := startSession(t, srv.URL(), archive)

	if err := host.client.Create(ctx, "Quiz Master", twoQuestionSet()); err != nil {
		t.Fatalf("create: %v", err)
	}
	hv := host.wait(t, "room created", func(v app.View) bool { return v.Phase == app.PhaseWaitingRoom })
	code := hv.Room.Code
	if len(code) != domain.RoomCodeLength {
		t.Fatalf("unexpected room code %q", code)
	}

	if err := player.client.Join(ctx, code, "Ana"); err != nil {
		t.Fatalf("join: %v", err)
	}
	pv := player.wait(t, "joined", func(v app.View) bool { return v.Phase == app.PhaseWaitingRoom })
	if pv.Room.HostID != hv.Identity.ParticipantID {
		t.Fatalf("player sees wrong host %q", pv.Room.HostID)
	}

	host.wait(t, "player visible to host", func(v app.View) bool { return v.CanStart() })
	if err := host.client.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	pv = player.wait(t, "first question", func(v app.View) bool { return v.QuestionState == app.StateAnswerOpen })
	if pv.Question.CorrectAnswer != nil {
		t.Fatalf("correct answer leaked to player")
	}
	if pv.Question.Position != 1 || pv.Question.Total != 2 {
		t.Fatalf("unexpected position %d/%d", pv.Question.Position, pv.Question.Total)
	}
	hv = host.wait(t, "host question", func(v app.View) bool { return v.QuestionState == app.StateAnswerOpen })
	if hv.Question.CorrectAnswer == nil || *hv.Question.CorrectAnswer != 1 {
		t.Fatalf("host should see the correct answer")
	}

	if err := player.client.Select(ctx, 1); err != nil {
		t.Fatalf("select: %v", err)
	}
	pv = player.wait(t, "result", func(v app.View) bool { return v.Correct != nil })
	if !*pv.Correct || pv.LastPoints != 100 || pv.Score != 100 {
		t.Fatalf("expected correct for 100, got %+v", pv)
	}
	// a repeated select must not reach the server
	_ = player.client.Select(ctx, 0)

	if err := srv.Advance(code); err != nil {
		t.Fatalf("advance: %v", err)
	}
	pv = player.wait(t, "second question", func(v app.View) bool {
		return v.Question != nil && v.Question.Position == 2 && v.QuestionState == app.StateAnswerOpen
	})
	if pv.HasSubmitted {
		t.Fatalf("second question must be open")
	}
	if err := player.client.Select(ctx, 1); err != nil {
		t.Fatalf("select: %v", err)
	}
	player.wait(t, "wrong answer", func(v app.View) bool { return v.Correct != nil && !*v.Correct })

	if err := srv.Advance(code); err != nil {
		t.Fatalf("advance: %v", err)
	}
	pv = player.wait(t, "finished", func(v app.View) bool { return v.Phase == app.PhaseFinished })
	if pv.Score != 100 || len(pv.Leaderboard) != 2 || pv.Leaderboard[0].DisplayName != "Ana" {
		t.Fatalf("unexpected final view %+v", pv)
	}
	host.wait(t, "host finished", func(v app.View) bool { return v.Phase == app.PhaseFinished })

	snap, _ := srv.Room(code)
	submissions := 0
	for _, cmd := range srv.Commands() {
		if sa, ok := cmd.(protocol.SubmitAnswer); ok && sa.PlayerID == pv.Identity.ParticipantID {
			submissions++
		}
	}
	if submissions != 2 {
		t.Fatalf("expected one submission per question, got %d", submissions)
	}
	if snap.Status != "finished" {
		t.Fatalf("unexpected server status %s", snap.Status)
	}

	results, _ := archive.ListResults(ctx, 0)
	if len(results) != 1 || results[0].Score != 100 || results[0].Answered != 2 {
		t.Fatalf("unexpected archive %+v", results)
	}
}

func TestPlayerResumesAfterRestart(t *testing.T) {
	srv := gametest.NewServer()
	defer srv.Close()
	ctx := context.Background()

	host := startSession(t, srv.URL(), nil)
	player := startSession(t, srv.URL(), nil)

	if err := host.client.Create(ctx, "Host", twoQuestionSet()); err != nil {
		t.Fatalf("create: %v", err)
	}
	code := host.wait(t, "room", func(v app.View) bool { return v.Phase == app.PhaseWaitingRoom }).Room.Code
	if err := player.client.Join(ctx, code, "Bo"); err != nil {
		t.Fatalf("join: %v", err)
	}
	player.wait(t, "joined", func(v app.View) bool { return v.Phase == app.PhaseWaitingRoom })
	host.wait(t, "can start", func(v app.View) bool { return v.CanStart() })
	if err := host.client.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	player.wait(t, "question", func(v app.View) bool { return v.QuestionState == app.StateAnswerOpen })

	// a fresh client sharing the identity store stands in for a reload
	ident, err := player.ids.Load(ctx)
	if err != nil {
		t.Fatalf("load identity: %v", err)
	}
	restarted := startSession(t, srv.URL(), nil)
	if err := restarted.ids.Save(ctx, ident); err != nil {
		t.Fatalf("seed identity: %v", err)
	}
	if err := restarted.client.Resume(ctx); err != nil {
		t.Fatalf("resume: %v", err)
	}
	rv := restarted.wait(t, "resynced", func(v app.View) bool { return v.QuestionState == app.StateAnswerOpen })
	if rv.Question.Position != 1 || rv.Question.CorrectAnswer != nil || rv.Remaining <= 0 {
		t.Fatalf("unexpected resynced view %+v", rv)
	}

	if err := srv.Advance(code); err != nil {
		t.Fatalf("advance: %v", err)
	}
	restarted.wait(t, "next after resume", func(v app.View) bool { return v.Question != nil && v.Question.Position == 2 })
}

func TestJoinUnknownRoom(t *testing.T) {
	srv := gametest.NewServer()
	defer srv.Close()

	player := startSession(t, srv.URL(), nil)
	if err := player.client.Join(context.Background(), "zz99zz", "Cy"); err != nil {
		t.Fatalf("join: %v", err)
	}
	v := player.wait(t, "error", func(v app.View) bool { return v.Error != "" })
	if v.Phase != app.PhaseIdle || v.Error != "Game not found" {
		t.Fatalf("unexpected view %+v", v)
	}
	cmds := srv.Commands()
	if jg, ok := cmds[0].(protocol.JoinGame); !ok || jg.RoomCode != "ZZ99ZZ" {
		t.Fatalf("room code not normalized on the wire: %#v", cmds[0])
	}
}

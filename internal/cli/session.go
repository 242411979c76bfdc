package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"trivia-client/internal/app"
	"trivia-client/internal/domain"
)

var errSessionOver = errors.New("session over")

type action int

const (
	actNone action = iota
	actSelect
	actConfirm
	actStart
	actLeave
	actResync
)

// parseInput maps one line of terminal input to an action. Options are
// numbered from 1 on screen.
func parseInput(line string) (action, int) {
	line = strings.ToLower(strings.TrimSpace(line))
	switch line {
	case "":
		return actNone, 0
	case "c":
		return actConfirm, 0
	case "s":
		return actStart, 0
	case "q":
		return actLeave, 0
	case "r":
		return actResync, 0
	}
	n, err := strconv.Atoi(line)
	if err != nil || n < 1 {
		return actNone, 0
	}
	return actSelect, n - 1
}

// runSession drives client until the game finishes, the user leaves or the
// process is interrupted. begin posts the first action (create, join, resume).
func runSession(parent context.Context, client *app.Client, in io.Reader, out io.Writer, begin func(context.Context) error) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return client.Run(ctx) })

	views, cancel := client.Subscribe()
	defer cancel()

	if err := begin(ctx); err != nil {
		stop()
		_ = g.Wait()
		return err
	}

	g.Go(func() error {
		r := &renderer{out: out}
		for {
			select {
			case <-ctx.Done():
				return nil
			case v, ok := <-views:
				if !ok {
					return nil
				}
				if r.render(v) {
					return errSessionOver
				}
			}
		}
	})

	lines := make(chan string)
	go func() {
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case line := <-lines:
				if err := apply(ctx, client, line); err != nil {
					if errors.Is(err, errSessionOver) {
						return err
					}
					fmt.Fprintf(out, "! %v\n", err)
				}
			}
		}
	})

	err := g.Wait()
	if errors.Is(err, errSessionOver) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func apply(ctx context.Context, client *app.Client, line string) error {
	act, idx := parseInput(line)
	switch act {
	case actSelect:
		return client.Select(ctx, idx)
	case actConfirm:
		return client.Confirm(ctx)
	case actStart:
		return client.Start(ctx)
	case actResync:
		return client.Resync(ctx)
	case actLeave:
		if err := client.Leave(ctx); err != nil {
			log.Warn().Err(err).Msg("leave")
		}
		return errSessionOver
	}
	return nil
}

// renderer prints view changes as plain lines.
type renderer struct {
	out     io.Writer
	prev    app.View
	started bool
}

// render writes what changed since the previous view and reports whether the
// session has reached an end state.
func (r *renderer) render(v app.View) bool {
	prev := r.prev
	r.prev = v
	first := !r.started
	r.started = true

	if v.Error != "" && v.Error != prev.Error {
		fmt.Fprintf(r.out, "! %s\n", v.Error)
	}

	switch v.Phase {
	case app.PhaseIdle:
		if !first && prev.Phase != app.PhaseIdle {
			fmt.Fprintln(r.out, "left the room")
			return true
		}
	case app.PhaseCreating:
		if prev.Phase != v.Phase {
			fmt.Fprintln(r.out, "creating room...")
		}
	case app.PhaseJoining:
		if prev.Phase != v.Phase {
			fmt.Fprintf(r.out, "joining %s...\n", v.Identity.RoomCode)
		}
	case app.PhaseWaitingRoom:
		r.renderRoom(prev, v)
	case app.PhaseInGame:
		r.renderQuestion(prev, v)
	case app.PhaseFinished:
		r.renderLeaderboard(v)
		return true
	}
	return false
}

func (r *renderer) renderRoom(prev, v app.View) {
	if prev.Phase != v.Phase || prev.Room.Code != v.Room.Code {
		fmt.Fprintf(r.out, "room %s\n", v.Room.Code)
		if v.IsHost() {
			fmt.Fprintln(r.out, "share the code, press s to start")
		} else {
			fmt.Fprintln(r.out, "waiting for the host to start")
		}
	}
	if !sameParticipants(prev.Room.Participants, v.Room.Participants) {
		names := make([]string, 0, len(v.Room.Participants))
		for _, p := range v.Room.Participants {
			name := p.DisplayName
			if p.Role == domain.RoleHost {
				name += " (host)"
			}
			names = append(names, name)
		}
		fmt.Fprintf(r.out, "players: %s\n", strings.Join(names, ", "))
	}
	if v.Starting && !prev.Starting {
		fmt.Fprintln(r.out, "starting...")
	}
}

func (r *renderer) renderQuestion(prev, v app.View) {
	if v.Question == nil {
		if prev.Phase != v.Phase {
			fmt.Fprintln(r.out, "waiting for the next question...")
		}
		return
	}
	q := v.Question
	if prev.Question == nil || prev.Question.ID != q.ID {
		if q.Total > 0 {
			fmt.Fprintf(r.out, "\nQuestion %d/%d (%ds)\n", q.Position, q.Total, v.Remaining)
		} else {
			fmt.Fprintf(r.out, "\nQuestion (%ds)\n", v.Remaining)
		}
		fmt.Fprintln(r.out, q.Prompt)
		for i, opt := range q.Options {
			fmt.Fprintf(r.out, "  %d) %s\n", i+1, opt)
		}
		return
	}
	if v.Selected != prev.Selected && v.Selected >= 0 && !v.HasSubmitted {
		fmt.Fprintf(r.out, "selected %d, press c to confirm\n", v.Selected+1)
	}
	if v.HasSubmitted && !prev.HasSubmitted {
		fmt.Fprintln(r.out, "answer sent")
	}
	if v.Correct != nil && prev.Correct == nil {
		if *v.Correct {
			fmt.Fprintf(r.out, "correct! +%d (score %d)\n", v.LastPoints, v.Score)
		} else {
			fmt.Fprintf(r.out, "wrong (score %d)\n", v.Score)
		}
	}
	if v.Remaining != prev.Remaining && v.Remaining > 0 && v.Remaining <= 5 && !v.HasSubmitted {
		fmt.Fprintf(r.out, "%d...\n", v.Remaining)
	}
}

func (r *renderer) renderLeaderboard(v app.View) {
	fmt.Fprintf(r.out, "\nGame over, your score: %d\n", v.Score)
	for _, e := range v.Leaderboard {
		marker := " "
		if e.ParticipantID == v.Identity.ParticipantID {
			marker = "*"
		}
		fmt.Fprintf(r.out, "%s %2d. %-20s %d\n", marker, e.Rank, e.DisplayName, e.Score)
	}
}

func sameParticipants(a, b []domain.Participant) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].DisplayName != b[i].DisplayName {
			return false
		}
	}
	return true
}

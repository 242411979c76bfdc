package domain_test

import (
	"testing"

	"trivia-client/internal/domain"
)

func TestRankParticipants(t *testing.T) {
	entries := domain.RankParticipants([]domain.Participant{
		{ID: "p1", DisplayName: "Cleo", Score: 100},
		{ID: "p2", DisplayName: "Ana", Score: 300},
		{ID: "p3", DisplayName: "Bea", Score: 100},
		{ID: "p4", DisplayName: "Dan", Score: 0},
	})
	want := []struct {
		id   string
		rank int
	}{{"p2", 1}, {"p3", 2}, {"p1", 2}, {"p4", 4}}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i, w := range want {
		if entries[i].ParticipantID != w.id || entries[i].Rank != w.rank {
			t.Fatalf("entry %d: expected %s rank %d, got %+v", i, w.id, w.rank, entries[i])
		}
	}
}

package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"trivia-client/internal/domain"
)

func TestIdentityStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "profiles", "default.yaml")

	store := NewIdentityStore(path)
	if _, err := store.Load(ctx); !errors.Is(err, domain.ErrIdentityNotFound) {
		t.Fatalf("expected ErrIdentityNotFound, got %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear on missing file: %v", err)
	}

	ident := domain.Identity{Role: domain.RoleHost, ParticipantID: "host_1", DisplayName: "Quiz Master", RoomCode: "QWE123"}
	if err := store.Save(ctx, ident); err != nil {
		t.Fatalf("save: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if !strings.Contains(string(raw), "participant_id: host_1") {
		t.Fatalf("unexpected yaml:\n%s", raw)
	}

	reopened := NewIdentityStore(path)
	got, err := reopened.Load(ctx)
	if err != nil || got != ident {
		t.Fatalf("unexpected identity %#v %v", got, err)
	}

	if err := reopened.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := store.Load(ctx); !errors.Is(err, domain.ErrIdentityNotFound) {
		t.Fatalf("expected cleared identity, got %v", err)
	}
}

func TestIdentityStoreRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.yaml")
	if err := os.WriteFile(path, []byte("role: [unclosed"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := NewIdentityStore(path).Load(context.Background()); err == nil || errors.Is(err, domain.ErrIdentityNotFound) {
		t.Fatalf("expected decode error, got %v", err)
	}
}

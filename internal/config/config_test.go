package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("TRIVIA_SERVER_URL", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.URL != "ws://localhost:3001/ws" || cfg.Session.Policy != "immediate" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Identity.Backend != BackendFile || cfg.Identity.Dir == "" {
		t.Fatalf("unexpected identity defaults %+v", cfg.Identity)
	}
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
server:
  url: ws://game.example:9000/ws
  reconnect_attempts: 2
session:
  policy: confirm
  profile: stage
identity:
  backend: redis
  dir: ` + dir + `
redis:
  addr: localhost:6380
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("TRIVIA_POLICY", "immediate")
	t.Setenv("POSTGRES_URL", "postgres://u:p@db/trivia")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.URL != "ws://game.example:9000/ws" || cfg.Server.ReconnectAttempts != 2 {
		t.Fatalf("file values not applied: %+v", cfg.Server)
	}
	if cfg.Session.Policy != "immediate" {
		t.Fatalf("env override not applied, policy=%q", cfg.Session.Policy)
	}
	if cfg.Postgres.URL != "postgres://u:p@db/trivia" || cfg.Redis.Addr != "localhost:6380" {
		t.Fatalf("unexpected stores %+v %+v", cfg.Postgres, cfg.Redis)
	}
	// untouched defaults survive a partial file
	if cfg.Content.URL != "http://localhost:3001/api" {
		t.Fatalf("default lost: %q", cfg.Content.URL)
	}
	if got := cfg.IdentityPath(); got != filepath.Join(dir, "stage.yaml") {
		t.Fatalf("unexpected identity path %s", got)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [oops"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected yaml error")
	}
}

func TestTTLDuration(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback, got %v", got)
	}
	if got := TTLDuration("90s", time.Minute); got != 90*time.Second {
		t.Fatalf("expected 90s, got %v", got)
	}
	if got := TTLDuration("soon", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback on garbage, got %v", got)
	}
}

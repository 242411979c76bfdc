// Package file persists the session identity on local disk so a restarted
// client can resume the game it was in.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
	"trivia-client/internal/domain"
)

// IdentityStore keeps one identity as a YAML document at path.
type IdentityStore struct {
	path string
	mu   sync.Mutex
}

// NewIdentityStore keeps the identity in the YAML file at path.
func NewIdentityStore(path string) *IdentityStore {
	return &IdentityStore{path: path}
}

func (s *IdentityStore) Path() string { return s.path }

func (s *IdentityStore) Load(_ context.Context) (domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.Identity{}, domain.ErrIdentityNotFound
	}
	if err != nil {
		return domain.Identity{}, fmt.Errorf("read identity: %w", err)
	}
	var ident domain.Identity
	if err := yaml.Unmarshal(data, &ident); err != nil {
		return domain.Identity{}, fmt.Errorf("decode identity %s: %w", s.path, err)
	}
	if ident.IsZero() {
		return domain.Identity{}, domain.ErrIdentityNotFound
	}
	return ident, nil
}

// Save replaces the stored identity atomically.
func (s *IdentityStore) Save(_ context.Context, ident domain.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := yaml.Marshal(ident)
	if err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create identity dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".identity-*")
	if err != nil {
		return fmt.Errorf("create temp identity: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write identity: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close identity: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace identity: %w", err)
	}
	return nil
}

func (s *IdentityStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove identity: %w", err)
	}
	return nil
}

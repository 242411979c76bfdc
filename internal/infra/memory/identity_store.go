package memory

import (
	"context"
	"sync"

	"trivia-client/internal/domain"
)

// IdentityStore keeps the session identity for the life of the process.
type IdentityStore struct {
	mu    sync.RWMutex
	ident domain.Identity
	set   bool
}

func NewIdentityStore() *IdentityStore {
	return &IdentityStore{}
}

func (s *IdentityStore) Load(_ context.Context) (domain.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.set {
		return domain.Identity{}, domain.ErrIdentityNotFound
	}
	return s.ident, nil
}

func (s *IdentityStore) Save(_ context.Context, ident domain.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ident = ident
	s.set = true
	return nil
}

func (s *IdentityStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ident = domain.Identity{}
	s.set = false
	return nil
}

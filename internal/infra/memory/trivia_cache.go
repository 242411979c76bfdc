package memory

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
	"trivia-client/internal/domain"
)

// TriviaSetLoader fetches a trivia set from its source of truth (the content API).
type TriviaSetLoader interface {
	GetSet(ctx context.Context, id string) (domain.TriviaSet, error)
}

// TriviaSetCache keeps fetched sets in process. Concurrent misses for one id
// share a single load, and an expired set keeps being served while the
// content API is unreachable.
type TriviaSetCache struct {
	loader TriviaSetLoader
	ttl    time.Duration
	clock  clockwork.Clock
	group  singleflight.Group

	mu      sync.Mutex
	entries map[string]setEntry
}

type setEntry struct {
	set     domain.TriviaSet
	expires time.Time
}

// NewTriviaSetCache wraps loader with an in-process cache.
func NewTriviaSetCache(loader TriviaSetLoader, ttl time.Duration) *TriviaSetCache {
	return &TriviaSetCache{
		loader:  loader,
		ttl:     ttl,
		clock:   clockwork.NewRealClock(),
		entries: make(map[string]setEntry),
	}
}

func (c *TriviaSetCache) GetSet(ctx context.Context, id string) (domain.TriviaSet, error) {
	entry, found := c.entry(id)
	if found && c.clock.Now().Before(entry.expires) {
		return entry.set, nil
	}

	v, err, _ := c.group.Do(id, func() (any, error) {
		set, err := c.loader.GetSet(ctx, id)
		if err != nil {
			return nil, err
		}
		c.store(id, set)
		return set, nil
	})
	switch {
	case err == nil:
		return v.(domain.TriviaSet), nil
	case found && !errors.Is(err, domain.ErrTriviaSetNotFound):
		log.Warn().Err(err).Str("set", id).Msg("content api unavailable, serving expired trivia set")
		return entry.set, nil
	case errors.Is(err, domain.ErrTriviaSetNotFound):
		c.Invalidate(id)
	}
	return domain.TriviaSet{}, err
}

// Invalidate drops a cached set, e.g. after it was edited upstream.
func (c *TriviaSetCache) Invalidate(id string) {
	c.mu.Lock()
	delete(c.entries, id)
	c.mu.Unlock()
}

func (c *TriviaSetCache) entry(id string) (setEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	return e, ok
}

func (c *TriviaSetCache) store(id string, set domain.TriviaSet) {
	lifetime := c.ttl
	if lifetime > 0 {
		// up to 10% extra so sets loaded together do not expire together
		lifetime += time.Duration(rand.Int63n(int64(lifetime)/10 + 1))
	}
	c.mu.Lock()
	c.entries[id] = setEntry{set: set, expires: c.clock.Now().Add(lifetime)}
	c.mu.Unlock()
}

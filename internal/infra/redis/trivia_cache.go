package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
	"trivia-client/internal/domain"
)

// TriviaSetLoader fetches a trivia set from the content API on cache miss.
type TriviaSetLoader interface {
	GetSet(ctx context.Context, id string) (domain.TriviaSet, error)
}

// TriviaSetCache stores trivia sets as JSON under trivia:set:{id} and falls
// back to the loader on a miss. Cache write failures are not fatal.
type TriviaSetCache struct {
	client *redis.Client
	loader TriviaSetLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

// NewTriviaSetCache caches loader results in redis for about ttl.
func NewTriviaSetCache(client *redis.Client, loader TriviaSetLoader, ttl time.Duration) *TriviaSetCache {
	return &TriviaSetCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *TriviaSetCache) GetSet(ctx context.Context, id string) (domain.TriviaSet, error) {
	if set, ok := c.cached(ctx, id); ok {
		return set, nil
	}

	result, err, _ := c.sf.Do(id, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if set, ok := c.cached(ctx, id); ok {
			return set, nil
		}
		set, err := c.loader.GetSet(ctx, id)
		if err != nil {
			return domain.TriviaSet{}, err
		}
		data, err := json.Marshal(set)
		if err == nil {
			err = c.client.Set(ctx, c.key(id), data, c.ttlWithJitter()).Err()
		}
		if err != nil {
			log.Warn().Err(err).Str("set", id).Msg("cache trivia set")
		}
		return set, nil
	})
	if err != nil {
		return domain.TriviaSet{}, err
	}
	return result.(domain.TriviaSet), nil
}

func (c *TriviaSetCache) Invalidate(ctx context.Context, id string) error {
	return c.client.Del(ctx, c.key(id)).Err()
}

func (c *TriviaSetCache) cached(ctx context.Context, id string) (domain.TriviaSet, bool) {
	data, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Str("set", id).Msg("read cached trivia set")
		}
		return domain.TriviaSet{}, false
	}
	var set domain.TriviaSet
	if err := json.Unmarshal(data, &set); err != nil {
		return domain.TriviaSet{}, false
	}
	return set, true
}

func (c *TriviaSetCache) key(id string) string {
	return "trivia:set:" + id
}

func (c *TriviaSetCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

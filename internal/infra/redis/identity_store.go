package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"trivia-client/internal/domain"
)

// IdentityStore keeps the session identity in a Redis hash so several
// terminals sharing a profile can resume the same participant.
// Layout: HSET trivia:identity:{profile} role participant_id display_name room_code
type IdentityStore struct {
	client  *redis.Client
	profile string
	ttl     time.Duration
}

// NewIdentityStore keeps one identity per profile; each save refreshes ttl.
func NewIdentityStore(client *redis.Client, profile string, ttl time.Duration) *IdentityStore {
	if profile == "" {
		profile = "default"
	}
	return &IdentityStore{client: client, profile: profile, ttl: ttl}
}

func (s *IdentityStore) Load(ctx context.Context) (domain.Identity, error) {
	fields, err := s.client.HGetAll(ctx, s.key()).Result()
	if err != nil {
		return domain.Identity{}, fmt.Errorf("load identity: %w", err)
	}
	ident := domain.Identity{
		Role:          domain.Role(fields["role"]),
		ParticipantID: fields["participant_id"],
		DisplayName:   fields["display_name"],
		RoomCode:      fields["room_code"],
	}
	if ident.IsZero() {
		return domain.Identity{}, domain.ErrIdentityNotFound
	}
	return ident, nil
}

func (s *IdentityStore) Save(ctx context.Context, ident domain.Identity) error {
	key := s.key()
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key,
		"role", string(ident.Role),
		"participant_id", ident.ParticipantID,
		"display_name", ident.DisplayName,
		"room_code", ident.RoomCode,
	)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save identity: %w", err)
	}
	return nil
}

func (s *IdentityStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key()).Err(); err != nil {
		return fmt.Errorf("clear identity: %w", err)
	}
	return nil
}

func (s *IdentityStore) key() string {
	return "trivia:identity:" + s.profile
}

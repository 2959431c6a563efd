package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	errx "github.com/synapse-ia/salesagent/internal/core/error"
)

const (
	redisKeyPrefix = "whatsapp:session:"

	statePending = "pending"
	stateActive  = "active"
)

// RedisStore keeps sessions in Redis so activation survives restarts and is
// shared between replicas.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed store. A zero ttl keeps sessions forever.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) key(sender string) string {
	return redisKeyPrefix + sender
}

func (s *RedisStore) Get(ctx context.Context, sender string) (Session, bool, error) {
	val, err := s.client.Get(ctx, s.key(sender)).Result()
	if errors.Is(err, redis.Nil) {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, fmt.Errorf("get session: %w", errx.WrapRedis(err))
	}
	return Session{Sender: sender, Activated: val == stateActive}, true, nil
}

func (s *RedisStore) EnsurePending(ctx context.Context, sender string) (Session, error) {
	key := s.key(sender)

	created, err := s.client.SetNX(ctx, key, statePending, s.ttl).Result()
	if err != nil {
		return Session{}, fmt.Errorf("create session: %w", errx.WrapRedis(err))
	}
	if created {
		return Session{Sender: sender}, nil
	}

	if s.ttl > 0 {
		if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
			return Session{}, fmt.Errorf("touch session: %w", errx.WrapRedis(err))
		}
	}

	sess, ok, err := s.Get(ctx, sender)
	if err != nil {
		return Session{}, err
	}
	if !ok {
		// expired between SETNX and GET
		return Session{Sender: sender}, nil
	}
	return sess, nil
}

func (s *RedisStore) Activate(ctx context.Context, sender string) (bool, error) {
	key := s.key(sender)

	var prev *redis.StringCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		prev = pipe.GetSet(ctx, key, stateActive)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, fmt.Errorf("activate session: %w", errx.WrapRedis(err))
	}

	old, err := prev.Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("activate session: %w", errx.WrapRedis(err))
	}
	return old == stateActive, nil
}

package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/solrisk/mwabridge/core"
	"github.com/solrisk/mwabridge/ports"
)

const sessionKey = "mwabridge:session"

// RedisStore persists the wallet session as a JSON document in Redis.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore creates a new Redis-backed session store.
func NewRedisStore(client *redis.Client) ports.SessionStore {
	return &RedisStore{
		client: client,
		key:    sessionKey,
	}
}

// Load reads the persisted session, if any.
func (s *RedisStore) Load(ctx context.Context) (core.WalletSession, bool, error) {
	val, err := s.client.Get(ctx, s.key).Result()
	if err == redis.Nil {
		return core.WalletSession{}, false, nil
	}
	if err != nil {
		return core.WalletSession{}, false, fmt.Errorf("failed to load session: %w", err)
	}

	var sess core.WalletSession
	if err := json.Unmarshal([]byte(val), &sess); err != nil {
		return core.WalletSession{}, false, fmt.Errorf("failed to decode persisted session: %w", err)
	}

	return sess, true, nil
}

// Save replaces the persisted session. Sessions carry no TTL; they live until
// deauthorization removes them.
func (s *RedisStore) Save(ctx context.Context, sess core.WalletSession) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	if err := s.client.Set(ctx, s.key, payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}

	return nil
}

// Delete removes the persisted session. A missing key is not an error.
func (s *RedisStore) Delete(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

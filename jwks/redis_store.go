package jwks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the key RedisStore uses when none is configured.
const DefaultRedisKey = "roster:auth:jwks"

// RedisStore shares one snapshot between every instance pointed at the same
// Redis key. Values are stored without expiry so a stale snapshot remains
// available as a fallback.
type RedisStore struct {
	client redis.UniversalClient
	key    string
}

// storedSnapshot is the JSON envelope kept in Redis.
type storedSnapshot struct {
	Data      []byte    `json:"data"`
	FetchedAt time.Time `json:"fetched_at"`
}

// NewRedisStore returns a RedisStore using client. An empty key selects
// DefaultRedisKey.
func NewRedisStore(client redis.UniversalClient, key string) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key}, nil
}

func (s *RedisStore) Load(ctx context.Context) (*Snapshot, error) {
	item, err := s.get(ctx)
	if err != nil || item == nil {
		return nil, err
	}
	return &Snapshot{Raw: item.Data, FetchedAt: item.FetchedAt}, nil
}

func (s *RedisStore) FetchedAt(ctx context.Context) (time.Time, bool, error) {
	item, err := s.get(ctx)
	if err != nil || item == nil {
		return time.Time{}, false, err
	}
	return item.FetchedAt, true, nil
}

func (s *RedisStore) Save(ctx context.Context, snapshot *Snapshot) error {
	data, err := json.Marshal(storedSnapshot{
		Data:      snapshot.Raw,
		FetchedAt: snapshot.FetchedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal key snapshot: %w", err)
	}

	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set key %s: %w", s.key, err)
	}
	return nil
}

func (s *RedisStore) get(ctx context.Context) (*storedSnapshot, error) {
	result, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get key %s: %w", s.key, err)
	}

	var item storedSnapshot
	if err := json.Unmarshal(result, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stored key snapshot: %w", err)
	}
	return &item, nil
}

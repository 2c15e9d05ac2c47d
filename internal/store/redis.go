package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"FlowSentinel/internal/model"
)

const redisKeyFormat = "%s:snapshot:%s"

// RedisStore keeps snapshots as JSON strings under a namespace.
type RedisStore struct {
	client    *redis.Client
	namespace string
	ttl       time.Duration
}

// NewRedisStore wraps a client. A zero ttl keeps snapshots forever.
func NewRedisStore(client *redis.Client, namespace string, ttl time.Duration) *RedisStore {
	if namespace == "" {
		namespace = "flow"
	}
	return &RedisStore{client: client, namespace: namespace, ttl: ttl}
}

func (s *RedisStore) key(subscriber string) string {
	return fmt.Sprintf(redisKeyFormat, s.namespace, subscriber)
}

func (s *RedisStore) Load(ctx context.Context, subscriber string) (*model.Snapshot, error) {
	if err := checkSubscriber(subscriber); err != nil {
		return nil, err
	}
	data, err := s.client.Get(ctx, s.key(subscriber)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", subscriber, err)
	}
	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", subscriber, err)
	}
	return normalize(&snap), nil
}

func (s *RedisStore) Save(ctx context.Context, subscriber string, snap *model.Snapshot) error {
	if err := checkSubscriber(subscriber); err != nil {
		return err
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(subscriber), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", subscriber, err)
	}
	return nil
}

func (s *RedisStore) Close() error { return s.client.Close() }

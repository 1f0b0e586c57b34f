package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	go_json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const keyStoreKeyPrefix = "plaid:webhook:key:"

var _ KeyStore = (*RedisKeyStore)(nil)

type RedisKeyStore struct {
	client *redis.Client
}

func NewRedisKeyStore(cfg RedisConfig) *RedisKeyStore {
	return &RedisKeyStore{client: cfg.Client}
}

func (s *RedisKeyStore) Get(ctx context.Context, keyID string) (KeyEntry, error) {
	data, err := s.client.Get(ctx, keyStoreKeyPrefix+keyID).Bytes()
	if errors.Is(err, redis.Nil) {
		return KeyEntry{}, ErrNotFound
	}
	if err != nil {
		return KeyEntry{}, fmt.Errorf("failed to get key: %w", err)
	}

	var entry KeyEntry
	if err := go_json.Unmarshal(data, &entry); err != nil {
		return KeyEntry{}, fmt.Errorf("failed to unmarshal key entry: %w", err)
	}
	return entry, nil
}

func (s *RedisKeyStore) Set(ctx context.Context, entry KeyEntry, ttl time.Duration) error {
	data, err := go_json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal key entry: %w", err)
	}

	if err := s.client.Set(ctx, keyStoreKeyPrefix+entry.KeyID, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set key: %w", err)
	}
	return nil
}

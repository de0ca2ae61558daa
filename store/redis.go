package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ZaguanLabs/redline"
	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix is prepended to every unit key.
const DefaultKeyPrefix = "redline:"

// RedisStore is a Redis-backed state store. States are stored as JSON.
type RedisStore struct {
	client    *redis.Client
	ttl       time.Duration
	keyPrefix string
}

// NewRedisStore connects to Redis using the given configuration.
func NewRedisStore(ctx context.Context, cfg redline.RedisConfig) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisStoreFromClient(client, cfg.TTLSeconds, cfg.KeyPrefix), nil
}

// NewRedisStoreFromClient creates a RedisStore from an existing Redis client.
func NewRedisStoreFromClient(client *redis.Client, ttlSeconds int, keyPrefix string) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}

	ttl := time.Duration(ttlSeconds) * time.Second
	if ttlSeconds <= 0 {
		ttl = 0
	}

	return &RedisStore{
		client:    client,
		ttl:       ttl,
		keyPrefix: keyPrefix,
	}
}

func (s *RedisStore) key(unit string) string {
	return redline.StoreKey(s.keyPrefix, unit)
}

// Get loads the state of a unit.
func (s *RedisStore) Get(ctx context.Context, unit string) (*UnitState, bool, error) {
	val, err := s.client.Get(ctx, s.key(unit)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", unit, err)
	}

	var state UnitState
	if err := json.Unmarshal([]byte(val), &state); err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", unit, err)
	}
	return &state, true, nil
}

// Set stores the state of a unit, applying the configured TTL.
func (s *RedisStore) Set(ctx context.Context, unit string, state *UnitState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode %s: %w", unit, err)
	}
	return s.client.Set(ctx, s.key(unit), string(data), s.ttl).Err()
}

// Delete removes the state of a unit.
func (s *RedisStore) Delete(ctx context.Context, unit string) error {
	return s.client.Del(ctx, s.key(unit)).Err()
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping tests the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Verify RedisStore implements StateStore
var _ StateStore = (*RedisStore)(nil)

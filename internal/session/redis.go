package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/utakatalp/league-viewer/internal/betting"
)

const keyPrefix = "league-viewer:game:"

// RedisStore keeps sessions in Redis so they survive a server restart
// within their TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to redisURL and checks the connection.
func NewRedisStore(ctx context.Context, redisURL string, ttl time.Duration) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opt)

	// Test connection
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

// Close closes the Redis connection
func (r *RedisStore) Close() error {
	return r.client.Close()
}

func key(id string) string {
	return keyPrefix + id
}

func (r *RedisStore) Create(ctx context.Context, b betting.Bracket) (string, error) {
	id := newID()
	if err := r.Put(ctx, id, b); err != nil {
		return "", err
	}
	return id, nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (betting.Bracket, error) {
	data, err := r.client.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return betting.Bracket{}, ErrNotFound
	}
	if err != nil {
		return betting.Bracket{}, fmt.Errorf("failed to get session %s: %w", id, err)
	}

	var b betting.Bracket
	if err := json.Unmarshal(data, &b); err != nil {
		return betting.Bracket{}, fmt.Errorf("failed to unmarshal session %s: %w", id, err)
	}
	return b, nil
}

// Put stores the bracket and restarts its TTL.
func (r *RedisStore) Put(ctx context.Context, id string, b betting.Bracket) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	return r.client.Set(ctx, key(id), data, r.ttl).Err()
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, key(id)).Err()
}

package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces every claim in a shared Redis.
const keyPrefix = "meugestor:claim:"

// releaseScript deletes a claim only while it still carries the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisClaimer implements Claimer with SET NX PX holding a random token, so
// claims hold across every API instance sharing the Redis and a holder
// whose claim expired cannot release its successor's.
type RedisClaimer struct {
	client *redis.Client
}

// NewRedisClaimer wraps an existing client.
func NewRedisClaimer(client *redis.Client) *RedisClaimer {
	return &RedisClaimer{client: client}
}

// NewRedisClient opens a client and checks connectivity.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return client, nil
}

// Claim implements Claimer.
func (r *RedisClaimer) Claim(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := r.client.SetNX(ctx, keyPrefix+key, token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("redis claim %s: %w", key, err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Release implements Claimer.
func (r *RedisClaimer) Release(ctx context.Context, key, token string) error {
	if token == "" {
		return nil
	}
	if err := releaseScript.Run(ctx, r.client, []string{keyPrefix + key}, token).Err(); err != nil {
		return fmt.Errorf("redis release %s: %w", key, err)
	}
	return nil
}

// Open returns a Redis-backed Claimer when addr is set and a MemoryClaimer
// otherwise. The returned func closes the Redis client.
func Open(ctx context.Context, addr, password string, db int) (Claimer, func(), error) {
	if addr == "" {
		return NewMemoryClaimer(), func() {}, nil
	}
	client, err := NewRedisClient(ctx, addr, password, db)
	if err != nil {
		return nil, nil, err
	}
	return NewRedisClaimer(client), func() { _ = client.Close() }, nil
}

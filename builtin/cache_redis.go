package builtin

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCacheBackend adapts redis/go-redis/v9 to CacheBackend, the
// distributed tier grounded in caches/redis/redis.go's client wrapper.
type RedisCacheBackend struct {
	Client *redis.Client
	Ctx    context.Context
}

// NewRedisCacheBackend wraps an already-configured *redis.Client. Ctx
// bounds every Get/Set call; pass context.Background() for an
// unbounded default.
func NewRedisCacheBackend(client *redis.Client, ctx context.Context) *RedisCacheBackend {
	if ctx == nil {
		ctx = context.Background()
	}
	return &RedisCacheBackend{Client: client, Ctx: ctx}
}

func (r *RedisCacheBackend) Get(key string) ([]byte, bool, error) {
	data, err := r.Client.Get(r.Ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (r *RedisCacheBackend) Set(key string, value []byte, ttl time.Duration) error {
	return r.Client.Set(r.Ctx, key, value, ttl).Err()
}

var _ CacheBackend = (*RedisCacheBackend)(nil)

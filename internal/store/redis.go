package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisPingTimeout bounds the connectivity check in ConnectRedis.
const redisPingTimeout = 3 * time.Second

// Redis is a Store backed by plain Redis string keys. Values never expire.
type Redis struct {
	rdb *redis.Client
}

// ConnectRedis parses a redis:// URL, connects and pings the server.
func ConnectRedis(ctx context.Context, redisURL string) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, &Error{Op: "open", Cause: fmt.Errorf("invalid redis URL: %w", err)}
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, &Error{Op: "open", Cause: fmt.Errorf("redis unreachable at %s: %w", opts.Addr, err)}
	}
	return &Redis{rdb: rdb}, nil
}

// Get implements Store.
func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &Error{Op: "get", Key: key, Cause: err}
	}
	return value, true, nil
}

// Set implements Store.
func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := r.rdb.Set(ctx, key, value, 0).Err(); err != nil {
		return &Error{Op: "set", Key: key, Cause: err}
	}
	return nil
}

// Remove implements Store.
func (r *Redis) Remove(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		return &Error{Op: "remove", Key: key, Cause: err}
	}
	return nil
}

// Close implements Store.
func (r *Redis) Close() error {
	return r.rdb.Close()
}

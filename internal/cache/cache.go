package cache

import (
	"context"       // Context for Redis operations
	"encoding/json" // JSON encoding/decoding
	"errors"        // Error matching
	"time"          // Time durations

	"github.com/redis/go-redis/v9" // Redis client
)

// Redis is a JSON read cache on top of a Redis client
type Redis struct {
	rdb redis.Cmdable // Redis client
}

// New wraps a Redis client
func New(rdb redis.Cmdable) *Redis {
	return &Redis{rdb: rdb}
}

// Get retrieves a value from Redis and unmarshals it into dest
func (r *Redis) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	val, err := r.rdb.Get(ctx, key).Bytes() // Get value from Redis
	if errors.Is(err, redis.Nil) {
		return false, nil // Key does not exist
	} else if err != nil {
		return false, err // Other Redis error
	}
	if err := json.Unmarshal(val, dest); err != nil {
		return false, err // Corrupt entry counts as a miss
	}
	return true, nil
}

// Set stores a value in Redis with a specified TTL
func (r *Redis) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	b, err := json.Marshal(value) // Marshal value to JSON
	if err != nil {
		return err // Return error if marshaling fails
	}
	return r.rdb.Set(ctx, key, b, ttl).Err() // Set value in Redis with TTL
}

// Version returns the counter stored at key, zero when it was never bumped
func (r *Redis) Version(ctx context.Context, key string) (int64, error) {
	n, err := r.rdb.Get(ctx, key).Int64() // Read counter
	if errors.Is(err, redis.Nil) {
		return 0, nil // Never bumped
	}
	return n, err
}

// Bump atomically increments the counter stored at key
func (r *Redis) Bump(ctx context.Context, key string) (int64, error) {
	return r.rdb.Incr(ctx, key).Result() // INCR creates the key at 1
}

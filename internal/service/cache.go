package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Marker is the advisory cache consulted before a claim or booking
// insert.  A hit means the caller already holds the record; a miss
// proves nothing and the store decides.
type Marker interface {
	Seen(ctx context.Context, key string) (bool, error)
	Mark(ctx context.Context, key string) error
}

// RedisMarker keeps markers in Redis under Prefix with a TTL.
type RedisMarker struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewMarker returns a Redis-backed marker, or a no-op marker when rdb
// is nil so callers always go to the store.
func NewMarker(rdb *redis.Client, prefix string, ttl time.Duration) Marker {
	if rdb == nil {
		return nopMarker{}
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisMarker{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (m *RedisMarker) key(k string) string { return m.prefix + ":" + k }

// Seen reports whether key was marked.
func (m *RedisMarker) Seen(ctx context.Context, key string) (bool, error) {
	n, err := m.rdb.Exists(ctx, m.key(key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Mark records key until the TTL elapses.
func (m *RedisMarker) Mark(ctx context.Context, key string) error {
	return m.rdb.Set(ctx, m.key(key), 1, m.ttl).Err()
}

type nopMarker struct{}

func (nopMarker) Seen(context.Context, string) (bool, error) { return false, nil }
func (nopMarker) Mark(context.Context, string) error         { return nil }

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
)

// Nop is used when no cache backend is configured. Every read misses.
type Nop struct{}

func (Nop) Get(context.Context, string, string, any) bool { return false }
func (Nop) Set(context.Context, string, string, any)      {}
func (Nop) Invalidate(context.Context, string)            {}

// RedisCache is a read-through cache keyed by table and query. Writes to a
// table bump its version, which orphans every key of the previous version;
// orphans expire by TTL.
type RedisCache struct {
	inner  *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisCache(addr, password string, db int, ttl time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to reach redis at %s: %w", addr, err)
	}
	return NewWithClient(client, ttl), nil
}

func NewWithClient(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{inner: client, ttl: ttl, prefix: "community"}
}

func (r *RedisCache) versionKey(table string) string {
	return VersionKey(r.prefix, table)
}

func (r *RedisCache) version(ctx context.Context, table string) (int64, error) {
	v, err := r.inner.Get(ctx, r.versionKey(table)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func (r *RedisCache) Get(ctx context.Context, table, key string, dst any) bool {
	ver, err := r.version(ctx, table)
	if err != nil {
		slog.Warn("cache version read failed", "table", table, "error", err)
		return false
	}
	raw, err := r.inner.Get(ctx, DataKey(r.prefix, table, ver, key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("cache read failed", "table", table, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		slog.Warn("cache entry undecodable", "table", table, "error", err)
		return false
	}
	return true
}

func (r *RedisCache) Set(ctx context.Context, table, key string, v any) {
	ver, err := r.version(ctx, table)
	if err != nil {
		slog.Warn("cache version read failed", "table", table, "error", err)
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := r.inner.Set(ctx, DataKey(r.prefix, table, ver, key), raw, r.ttl).Err(); err != nil {
		slog.Warn("cache write failed", "table", table, "error", err)
	}
}

func (r *RedisCache) Invalidate(ctx context.Context, table string) {
	if err := r.inner.Incr(ctx, r.versionKey(table)).Err(); err != nil {
		slog.Error("cache invalidation failed", "table", table, "error", err)
	}
}

func (r *RedisCache) Close() error {
	return r.inner.Close()
}

func VersionKey(prefix, table string) string {
	return fmt.Sprintf("%s__ver__%s", prefix, table)
}

func DataKey(prefix, table string, version int64, key string) string {
	return fmt.Sprintf("%s__%s__v%d__%s", prefix, table, version, key)
}

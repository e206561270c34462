package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	storagecommon "ytcollector-go/internal/storage/common"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "ytcollector:"

// RedisBackend stores entries as plain string keys with native TTL. The time each
// key was cached is kept in a per-namespace hash so Purge and Stats can walk a
// namespace without SCAN.
type RedisBackend struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisBackend creates a new Redis cache backend
func NewRedisBackend(addr, password string, db int, prefix string) *RedisBackend {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
	return &RedisBackend{client: client, prefix: prefix, now: time.Now}
}

func (r *RedisBackend) Name() string { return "redis" }

// Initialize tests Redis connection
func (r *RedisBackend) Initialize(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close closes Redis connection
func (r *RedisBackend) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// Health checks redis availability
func (r *RedisBackend) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisBackend) key(ns Namespace, key string) string {
	return r.prefix + string(ns) + ":" + key
}

func (r *RedisBackend) metaKey(ns Namespace) string {
	return r.prefix + "meta:" + string(ns)
}

func (r *RedisBackend) Get(ctx context.Context, ns Namespace, key string) (Entry, error) {
	if !validNamespace(ns) {
		return Entry{}, fmt.Errorf("unknown namespace %q", ns)
	}
	ctx, cancel := storagecommon.WithStorageTimeoutDefault(ctx)
	defer cancel()

	k := r.key(ns, key)
	pipe := r.client.Pipeline()
	getCmd := pipe.Get(ctx, k)
	ttlCmd := pipe.PTTL(ctx, k)
	atCmd := pipe.HGet(ctx, r.metaKey(ns), key)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return Entry{}, storagecommon.MapRedisError(err, entryKey(ns, key))
	}

	value, err := getCmd.Bytes()
	if err != nil {
		return Entry{}, storagecommon.MapRedisError(err, entryKey(ns, key))
	}
	entry := Entry{Value: value}
	now := r.now()
	if ttl, err := ttlCmd.Result(); err == nil && ttl > 0 {
		entry.ExpiresAt = now.Add(ttl)
	}
	if ms, err := atCmd.Int64(); err == nil {
		entry.CachedAt = time.UnixMilli(ms)
	}
	return entry, nil
}

func (r *RedisBackend) Set(ctx context.Context, ns Namespace, key string, value []byte, ttl time.Duration) error {
	if !validNamespace(ns) {
		return fmt.Errorf("unknown namespace %q", ns)
	}
	if ttl < 0 {
		ttl = 0
	}
	ctx, cancel := storagecommon.WithStorageTimeoutDefault(ctx)
	defer cancel()

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.key(ns, key), value, ttl)
		pipe.HSet(ctx, r.metaKey(ns), key, r.now().UnixMilli())
		return nil
	})
	return storagecommon.MapRedisError(err, entryKey(ns, key))
}

func (r *RedisBackend) Delete(ctx context.Context, ns Namespace, key string) error {
	ctx, cancel := storagecommon.WithStorageTimeoutDefault(ctx)
	defer cancel()

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.key(ns, key))
		pipe.HDel(ctx, r.metaKey(ns), key)
		return nil
	})
	return storagecommon.MapRedisError(err, entryKey(ns, key))
}

func (r *RedisBackend) Purge(ctx context.Context, ns Namespace, olderThan time.Time) (int64, error) {
	ctx, cancel := storagecommon.WithStorageTimeoutDefault(ctx)
	defer cancel()

	meta, err := r.client.HGetAll(ctx, r.metaKey(ns)).Result()
	if err != nil {
		return 0, storagecommon.MapRedisError(err, string(ns))
	}
	cutoff := olderThan.UnixMilli()
	var stale []string
	for key, raw := range meta {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || ms < cutoff {
			stale = append(stale, key)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}

	keys := make([]string, len(stale))
	for i, key := range stale {
		keys[i] = r.key(ns, key)
	}
	var delCmd *redis.IntCmd
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		delCmd = pipe.Del(ctx, keys...)
		pipe.HDel(ctx, r.metaKey(ns), stale...)
		return nil
	})
	if err != nil {
		return 0, storagecommon.MapRedisError(err, string(ns))
	}
	return delCmd.Val(), nil
}

// Stats counts live keys per namespace and drops hash fields whose key has
// already expired.
func (r *RedisBackend) Stats(ctx context.Context) (Stats, error) {
	ctx, cancel := storagecommon.WithStorageTimeoutDefault(ctx)
	defer cancel()

	stats := Stats{Backend: r.Name(), Namespaces: make(map[Namespace]NamespaceStats, len(Namespaces))}
	for _, ns := range Namespaces {
		fields, err := r.client.HKeys(ctx, r.metaKey(ns)).Result()
		if err != nil {
			return Stats{}, storagecommon.MapRedisError(err, string(ns))
		}
		if len(fields) == 0 {
			stats.Namespaces[ns] = NamespaceStats{}
			continue
		}

		pipe := r.client.Pipeline()
		exists := make([]*redis.IntCmd, len(fields))
		for i, field := range fields {
			exists[i] = pipe.Exists(ctx, r.key(ns, field))
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return Stats{}, storagecommon.MapRedisError(err, string(ns))
		}

		var live int64
		var gone []string
		for i, cmd := range exists {
			if cmd.Val() > 0 {
				live++
			} else {
				gone = append(gone, fields[i])
			}
		}
		if len(gone) > 0 {
			_ = r.client.HDel(ctx, r.metaKey(ns), gone...).Err()
		}
		stats.Namespaces[ns] = NamespaceStats{Entries: live}
	}
	return stats, nil
}

package memory

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisEntityCache is an EntityCache backed by Redis, for deployments
// that want the entity cache shared across kernel processes rather than
// scoped to one Execute phase's in-process map. Grounded on
// itsneelabh-gomind's pkg/memory/implementations.go RedisMemory.
type RedisEntityCache struct {
	client     *redis.Client
	namespace  string
	defaultTTL time.Duration
}

// NewRedisEntityCache dials addr and returns a namespaced cache, or an
// error if the connection check fails.
func NewRedisEntityCache(addr, namespace string, defaultTTL time.Duration) (*RedisEntityCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	if namespace == "" {
		namespace = "cogkernel:stm"
	}
	if defaultTTL <= 0 {
		defaultTTL = 60 * time.Second
	}
	return &RedisEntityCache{client: client, namespace: namespace, defaultTTL: defaultTTL}, nil
}

func (r *RedisEntityCache) buildKey(key string) string {
	return r.namespace + ":" + key
}

// Set stores key with ttl, falling back to the cache's default TTL.
// Redis expiry makes the lazy-reap-on-read contract automatic.
func (r *RedisEntityCache) Set(key, value string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = r.defaultTTL
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	r.client.Set(ctx, r.buildKey(key), value, ttl)
}

// Get retrieves key; redis.Nil (key absent or expired) reports a miss.
func (r *RedisEntityCache) Get(key string) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	val, err := r.client.Get(ctx, r.buildKey(key)).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

// Len is best-effort: Redis does not track a live count for a namespace
// without a SCAN, which would be too expensive to call on every Execute
// cycle, so this returns 0. Callers that need an exact count should use
// InMemoryEntityCache.
func (r *RedisEntityCache) Len() int { return 0 }

// TopScoring is unsupported for the Redis backend: Redis has no notion
// of insertion order across keys without a secondary index. Deployments
// that need ranked recall should keep the in-memory cache as the
// read-context source and use Redis only for cross-process key lookups.
func (r *RedisEntityCache) TopScoring(limit int) []CachedEntity { return nil }

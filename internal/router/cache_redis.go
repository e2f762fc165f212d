package router

import (
	"context"
	"encoding/json"
	"time"

	"github.com/azzindani/cogkernel/internal/types"
	"github.com/go-redis/redis/v8"
)

// redisActivation is the JSON wire shape for an ActivationMap, since
// types.ActivationMap's sets are Go maps-of-struct{} that do not encode
// meaningfully to JSON on their own.
type redisActivation struct {
	Modules       map[string]types.ModuleActivation `json:"modules"`
	RequiredTools []string                           `json:"required_tools"`
}

// RedisDecisionCache is a DecisionCache backed by Redis, for deployments
// that run the Activation Router across multiple kernel processes behind
// a shared cache. Grounded on memory.RedisEntityCache's dial-and-ping
// construction and namespaced-key pattern.
type RedisDecisionCache struct {
	client    *redis.Client
	namespace string
	ttl       time.Duration
}

// NewRedisDecisionCache dials addr and returns a namespaced cache, or an
// error if the connection check fails.
func NewRedisDecisionCache(addr string, ttl time.Duration) (*RedisDecisionCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &RedisDecisionCache{client: client, namespace: "cogkernel:router", ttl: ttl}, nil
}

func (r *RedisDecisionCache) buildKey(key string) string {
	return r.namespace + ":" + key
}

// Get retrieves and decodes the cached ActivationMap for key.
func (r *RedisDecisionCache) Get(key string) (types.ActivationMap, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	raw, err := r.client.Get(ctx, r.buildKey(key)).Bytes()
	if err != nil {
		return types.ActivationMap{}, false
	}
	var wire redisActivation
	if err := json.Unmarshal(raw, &wire); err != nil {
		return types.ActivationMap{}, false
	}
	return types.ActivationMap{Modules: wire.Modules, RequiredTools: toSet(wire.RequiredTools)}, true
}

// Put encodes and stores activation under key with the cache's TTL.
func (r *RedisDecisionCache) Put(key string, activation types.ActivationMap) {
	wire := redisActivation{Modules: activation.Modules, RequiredTools: fromSet(activation.RequiredTools)}
	raw, err := json.Marshal(wire)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	r.client.Set(ctx, r.buildKey(key), raw, r.ttl)
}

// Len is best-effort: see memory.RedisEntityCache.Len for why an exact
// count across a Redis namespace is not attempted here.
func (r *RedisDecisionCache) Len() int { return 0 }

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, i := range items {
		set[i] = struct{}{}
	}
	return set
}

func fromSet(set map[string]struct{}) []string {
	items := make([]string, 0, len(set))
	for i := range set {
		items = append(items, i)
	}
	return items
}

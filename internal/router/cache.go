package router

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/azzindani/cogkernel/internal/types"
)

// Fingerprint returns the decision-cache key for a signal, per spec.md
// §4.2: a hash of (domain, intent, complexity-band, urgency-band).
func Fingerprint(tags types.SignalTags, complexity types.ComplexityLevel) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s|%s", tags.Domain, tags.PrimaryIntent, complexity, tags.Urgency)))
	return hex.EncodeToString(sum[:])
}

type cacheEntry struct {
	activation types.ActivationMap
	expiresAt  time.Time
}

// DecisionCache is the Activation Router's pluggable cache backend.
// InMemoryCache is the default; RedisDecisionCache is an alternative for
// deployments that run multiple kernel processes behind one cache.
type DecisionCache interface {
	Get(key string) (types.ActivationMap, bool)
	Put(key string, activation types.ActivationMap)
	Len() int
}

// InMemoryCache is the process-global, mutex-guarded activation-map
// cache. The lock is held only around the map access itself, matching
// the spec's "mutex around eviction" shared-resource policy — it is not
// held while building a fresh ActivationMap.
type InMemoryCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
}

// NewCache builds a decision cache with the given TTL.
func NewCache(ttl time.Duration) *InMemoryCache {
	return &InMemoryCache{entries: make(map[string]cacheEntry), ttl: ttl}
}

// Get returns the cached ActivationMap for key if present and unexpired.
func (c *InMemoryCache) Get(key string) (types.ActivationMap, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return types.ActivationMap{}, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(c.entries, key)
		return types.ActivationMap{}, false
	}
	return entry.activation, true
}

// Put stores an ActivationMap under key, valid for the cache's TTL.
func (c *InMemoryCache) Put(key string, activation types.ActivationMap) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{activation: activation, expiresAt: time.Now().Add(c.ttl)}
}

// Len reports the number of entries currently held, expired or not.
func (c *InMemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

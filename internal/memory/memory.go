package memory

import (
	"time"

	"github.com/azzindani/cogkernel/internal/types"
)

// ShortTermMemory is the ephemeral RAM for one Execute phase: an event
// ring buffer, a TTL entity cache, and a DAG state registry. A single
// Execute phase holds exclusive ownership; instances are never shared
// across phases.
type ShortTermMemory struct {
	events   *eventRing
	entities EntityCache
	dag      *dagRegistry
	windowK  int
}

// New creates a Short-Term Memory arena for one Execute phase, using the
// in-process entity cache by default.
func New(ringCapacity int, entityTTL time.Duration, entityMaxEntries, windowK int) *ShortTermMemory {
	return &ShortTermMemory{
		events:   newEventRing(ringCapacity),
		entities: NewInMemoryEntityCache(entityTTL, entityMaxEntries),
		dag:      newDagRegistry(),
		windowK:  windowK,
	}
}

// NewWithCache creates a Short-Term Memory arena using a caller-supplied
// EntityCache (e.g. a RedisEntityCache for cross-process sharing).
func NewWithCache(ringCapacity int, cache EntityCache, windowK int) *ShortTermMemory {
	return &ShortTermMemory{
		events:   newEventRing(ringCapacity),
		entities: cache,
		dag:      newDagRegistry(),
		windowK:  windowK,
	}
}

// PushObservation appends an event to the ring buffer; O(1), non-blocking.
func (m *ShortTermMemory) PushObservation(ev ObservationEvent) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	m.events.push(ev)
}

// CacheEntity stores key with ttl (0 uses the cache's default).
func (m *ShortTermMemory) CacheEntity(key, value string, ttl time.Duration) {
	m.entities.Set(key, value, ttl)
}

// LookupEntity returns the cached value for key, if live.
func (m *ShortTermMemory) LookupEntity(key string) (string, bool) {
	return m.entities.Get(key)
}

// RegisterNode sets the initial status for a DAG node.
func (m *ShortTermMemory) RegisterNode(nodeID string, status types.DAGNodeStatus) {
	m.dag.register(nodeID, status)
}

// UpdateNode transitions a DAG node's status.
func (m *ShortTermMemory) UpdateNode(nodeID string, status types.DAGNodeStatus) {
	m.dag.update(nodeID, status)
}

// DAGSnapshot returns the current node-status counts and completion %.
func (m *ShortTermMemory) DAGSnapshot() DagStateSnapshot {
	return m.dag.snapshot()
}

// ResetDAG clears all node status, used when REPLAN rebuilds the DAG.
func (m *ShortTermMemory) ResetDAG() {
	m.dag.reset()
}

// ReadContext assembles a ContextSlice: the last K events plus the
// top-scoring cached entities (insertion-recency fallback, since no
// embedder is wired into Short-Term Memory directly).
func (m *ShortTermMemory) ReadContext() ContextSlice {
	return ContextSlice{
		RecentEvents: m.events.lastK(m.windowK),
		Entities:     m.entities.TopScoring(m.windowK),
	}
}

// EventCount returns the number of live events in the ring buffer.
func (m *ShortTermMemory) EventCount() int {
	return m.events.len()
}

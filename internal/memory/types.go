// Package memory implements Short-Term Memory: the ephemeral RAM for one
// Execute phase. Grounded on the lazy-expiry TTL cache pattern of
// itsneelabh-gomind's pkg/memory/implementations.go (InMemoryStore) and
// the mutex-guarded accessor style of octoreflex's escalation state
// machine, generalized to the event ring buffer / entity cache / DAG
// registry triad the specification names.
package memory

import "time"

// EventSource names where an ObservationEvent originated.
type EventSource string

const (
	SourceToolResult   EventSource = "tool_result"
	SourceInterrupt    EventSource = "interrupt"
	SourceWaitComplete EventSource = "wait_complete"
)

// ObservationEvent is one event pulled from the event stream during
// Observe.
type ObservationEvent struct {
	Source    EventSource
	NodeID    string
	Payload   map[string]any
	Blocking  bool
	Reason    string
	Timestamp time.Time
}

// CachedEntity is one TTL-scoped entry in the entity cache.
type CachedEntity struct {
	Key       string
	Value     string
	CachedAt  time.Time
	ExpiresAt time.Time
}

// ContextSlice is the Orient phase's working view of recent memory: the
// last K events plus the top-scoring cached entities.
type ContextSlice struct {
	RecentEvents []ObservationEvent
	Entities     []CachedEntity
}

// DagStateSnapshot summarizes node counts by status plus completion
// percentage.
type DagStateSnapshot struct {
	Pending        int
	Running        int
	Completed      int
	Failed         int
	Skipped        int
	Total          int
	CompletionPct  float64
}

package memory

import (
	"testing"
	"time"

	"github.com/azzindani/cogkernel/internal/types"
)

func TestRingBufferEvictsOldest(t *testing.T) {
	m := New(3, time.Minute, 10, 10)
	for i := 0; i < 5; i++ {
		m.PushObservation(ObservationEvent{Source: SourceToolResult, NodeID: string(rune('a' + i))})
	}
	if m.EventCount() != 3 {
		t.Fatalf("expected ring capped at 3, got %d", m.EventCount())
	}
	ctx := m.ReadContext()
	if len(ctx.RecentEvents) != 3 {
		t.Fatalf("expected 3 recent events, got %d", len(ctx.RecentEvents))
	}
	if ctx.RecentEvents[len(ctx.RecentEvents)-1].NodeID != "e" {
		t.Fatalf("expected most recent event to be the last pushed, got %q", ctx.RecentEvents[len(ctx.RecentEvents)-1].NodeID)
	}
}

func TestEntityCacheLazyExpiry(t *testing.T) {
	m := New(10, 10*time.Millisecond, 10, 10)
	m.CacheEntity("k", "v", 0)
	if v, ok := m.LookupEntity("k"); !ok || v != "v" {
		t.Fatalf("expected live entry, got %q %v", v, ok)
	}
	time.Sleep(20 * time.Millisecond)
	if _, ok := m.LookupEntity("k"); ok {
		t.Fatal("expected entry to have expired")
	}
}

func TestDagSnapshotCompletionPct(t *testing.T) {
	m := New(10, time.Minute, 10, 10)
	m.RegisterNode("a", types.NodeCompleted)
	m.RegisterNode("b", types.NodePending)
	snap := m.DAGSnapshot()
	if snap.Total != 2 || snap.Completed != 1 || snap.Pending != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if snap.CompletionPct != 0.5 {
		t.Fatalf("expected 50%% completion, got %f", snap.CompletionPct)
	}
}

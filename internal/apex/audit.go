// Package apex implements the Apex Orchestrator (spec.md §4.1): the
// single process() entry point that runs Gate-In, Execute, and Gate-Out
// for one trace, wiring together every other kernel component.
package apex

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/azzindani/cogkernel/internal/types"
)

// AuditedDecision is one Decision plus its position in the hash chain.
type AuditedDecision struct {
	Decision     types.Decision
	Timestamp    time.Time
	DecisionHash string
	ParentHash   string
}

// DecisionLedger hash-chains every OODA and Cognitive Load Monitor
// decision in one trace, so the trace's full history can be replayed
// and verified after the fact. Grounded on
// governance.ConstitutionalKernel's ValidateDecision/computeDecisionHash
// pattern, adapted from EscalationDecision's PID/state-transition shape
// to Decision's Action/Reasoning/CycleIndex/TargetNodeIDs shape, and
// trimmed to the bounds a Decision can actually violate: a negative
// cycle index, an empty reasoning string, or a non-monotonic timestamp.
type DecisionLedger struct {
	mu            sync.Mutex
	lastTimestamp time.Time
	lastHash      string
	entries       []AuditedDecision
	violations    int
}

// NewDecisionLedger starts an empty ledger anchored at the current time.
func NewDecisionLedger() *DecisionLedger {
	return &DecisionLedger{lastTimestamp: time.Now()}
}

// Record validates and chains one decision.
func (l *DecisionLedger) Record(d types.Decision) (AuditedDecision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Before(l.lastTimestamp) {
		l.violations++
		return AuditedDecision{}, errors.New("apex: decision ledger clock moved backwards")
	}
	if d.CycleIndex < 0 {
		l.violations++
		return AuditedDecision{}, fmt.Errorf("apex: negative cycle index %d", d.CycleIndex)
	}
	if d.Reasoning == "" {
		l.violations++
		return AuditedDecision{}, errors.New("apex: decision missing reasoning")
	}

	hash := l.computeHashLocked(d, now)
	entry := AuditedDecision{Decision: d, Timestamp: now, DecisionHash: hash, ParentHash: l.lastHash}
	l.lastHash = hash
	l.lastTimestamp = now
	l.entries = append(l.entries, entry)
	return entry, nil
}

func (l *DecisionLedger) computeHashLocked(d types.Decision, ts time.Time) string {
	canonical := map[string]any{
		"action":          string(d.Action),
		"reasoning":       d.Reasoning,
		"cycle_index":     d.CycleIndex,
		"target_node_ids": d.TargetNodeIDs,
		"timestamp":       ts.UnixNano(),
		"parent_hash":     l.lastHash,
	}
	blob, _ := json.Marshal(canonical)
	sum := sha256.Sum256(blob)
	return hex.EncodeToString(sum[:])
}

// Entries returns every recorded decision in chain order.
func (l *DecisionLedger) Entries() []AuditedDecision {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]AuditedDecision, len(l.entries))
	copy(out, l.entries)
	return out
}

// Violations reports the count of rejected decisions.
func (l *DecisionLedger) Violations() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.violations
}

package memory

import (
	"sync"

	"github.com/azzindani/cogkernel/internal/types"
)

// dagRegistry tracks per-node status for the current ExecutableDAG.
// Grounded on the mutex-guarded map + accessor pattern of octoreflex's
// escalation.ProcessState and the status-counting style of
// itsneelabh-gomind's WorkflowDAG.GetStatistics.
type dagRegistry struct {
	mu    sync.RWMutex
	nodes map[string]types.DAGNodeStatus
}

func newDagRegistry() *dagRegistry {
	return &dagRegistry{nodes: make(map[string]types.DAGNodeStatus)}
}

func (d *dagRegistry) register(nodeID string, status types.DAGNodeStatus) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nodes[nodeID] = status
}

func (d *dagRegistry) update(nodeID string, status types.DAGNodeStatus) {
	d.register(nodeID, status)
}

func (d *dagRegistry) snapshot() DagStateSnapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var s DagStateSnapshot
	for _, st := range d.nodes {
		s.Total++
		switch st {
		case types.NodePending:
			s.Pending++
		case types.NodeRunning:
			s.Running++
		case types.NodeCompleted:
			s.Completed++
		case types.NodeFailed:
			s.Failed++
		case types.NodeSkipped:
			s.Skipped++
		}
	}
	if s.Total > 0 {
		s.CompletionPct = float64(s.Completed+s.Skipped) / float64(s.Total)
	}
	return s
}

func (d *dagRegistry) reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nodes = make(map[string]types.DAGNodeStatus)
}

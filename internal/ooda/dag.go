// Package ooda implements the OODA Cycle Driver (spec.md §4.7): one
// Observe-Orient-Decide-Act step over an ExecutableDAG per Execute cycle.
package ooda

import (
	"sync"

	"github.com/azzindani/cogkernel/internal/types"
)

// ExecutableDAG is the mutex-guarded node graph one Execute phase drives
// to completion. Grounded on itsneelabh-gomind's orchestration.WorkflowDAG,
// adapted from generic workflow nodes to ActionInstruction-bound nodes
// with park-and-resume support.
type ExecutableDAG struct {
	mu    sync.RWMutex
	nodes map[string]*types.DAGNodeState
}

// NewExecutableDAG builds an empty DAG.
func NewExecutableDAG() *ExecutableDAG {
	return &ExecutableDAG{nodes: make(map[string]*types.DAGNodeState)}
}

// AddNode inserts or replaces a node's action and dependencies, then
// rebuilds every node's dependents list.
func (d *ExecutableDAG) AddNode(id string, action types.ActionInstruction, dependencies []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if existing, ok := d.nodes[id]; ok {
		existing.Action = action
		existing.Dependencies = dependencies
	} else {
		d.nodes[id] = &types.DAGNodeState{ID: id, Action: action, Dependencies: dependencies, Status: types.NodePending}
	}
	d.rebuildDependentsLocked()
}

func (d *ExecutableDAG) rebuildDependentsLocked() {
	for _, n := range d.nodes {
		n.Dependents = nil
	}
	for id, n := range d.nodes {
		for _, dep := range n.Dependencies {
			if depNode, ok := d.nodes[dep]; ok {
				depNode.Dependents = append(depNode.Dependents, id)
			}
		}
	}
}

// FrontierGroup returns the IDs of every pending node whose dependencies
// are all terminal-complete (completed or skipped) — the next parallel
// group the Act phase should dispatch together.
func (d *ExecutableDAG) FrontierGroup() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var ready []string
	for id, n := range d.nodes {
		if n.Status != types.NodePending {
			continue
		}
		if d.dependenciesSatisfiedLocked(n) {
			ready = append(ready, id)
		}
	}
	return ready
}

func (d *ExecutableDAG) dependenciesSatisfiedLocked(n *types.DAGNodeState) bool {
	for _, dep := range n.Dependencies {
		depNode, ok := d.nodes[dep]
		if !ok {
			continue
		}
		if depNode.Status != types.NodeCompleted && depNode.Status != types.NodeSkipped {
			return false
		}
	}
	return true
}

// MarkRunning, MarkCompleted, and MarkFailed transition a node's status.
// MarkFailed additionally cascades NodeSkipped to every pending dependent.
func (d *ExecutableDAG) MarkRunning(id string) {
	d.setStatus(id, types.NodeRunning)
}

func (d *ExecutableDAG) MarkCompleted(id string) {
	d.setStatus(id, types.NodeCompleted)
}

func (d *ExecutableDAG) MarkFailed(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if n, ok := d.nodes[id]; ok {
		n.Status = types.NodeFailed
		d.skipDependentsLocked(id)
	}
}

func (d *ExecutableDAG) skipDependentsLocked(id string) {
	n, ok := d.nodes[id]
	if !ok {
		return
	}
	for _, dep := range n.Dependents {
		if depNode := d.nodes[dep]; depNode != nil && depNode.Status == types.NodePending {
			depNode.Status = types.NodeSkipped
			d.skipDependentsLocked(dep)
		}
	}
}

// Park records a ParkingTicket on id and marks it RUNNING, for a node
// whose Act call reported an asynchronous job id.
func (d *ExecutableDAG) Park(id string, ticket types.ParkingTicket) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if n, ok := d.nodes[id]; ok {
		n.Status = types.NodeRunning
		n.Ticket = &ticket
	}
}

// Resume clears id's ParkingTicket, marking it COMPLETED or FAILED
// depending on success, once its wait condition has fired.
func (d *ExecutableDAG) Resume(id string, success bool) {
	d.mu.Lock()
	n, ok := d.nodes[id]
	if ok {
		n.Ticket = nil
	}
	d.mu.Unlock()
	if !ok {
		return
	}
	if success {
		d.MarkCompleted(id)
	} else {
		d.MarkFailed(id)
	}
}

func (d *ExecutableDAG) setStatus(id string, status types.DAGNodeStatus) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if n, ok := d.nodes[id]; ok {
		n.Status = status
	}
}

// Node returns a copy of a node's live state.
func (d *ExecutableDAG) Node(id string) (types.DAGNodeState, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n, ok := d.nodes[id]
	if !ok {
		return types.DAGNodeState{}, false
	}
	return *n, true
}

// AllTerminal reports whether every node has reached a terminal status.
func (d *ExecutableDAG) AllTerminal() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if len(d.nodes) == 0 {
		return true
	}
	for _, n := range d.nodes {
		if !n.Status.Terminal() {
			return false
		}
	}
	return true
}

// HasParkedNodes reports whether any node is RUNNING with a ParkingTicket.
func (d *ExecutableDAG) HasParkedNodes() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, n := range d.nodes {
		if n.Status == types.NodeRunning && n.Ticket != nil {
			return true
		}
	}
	return false
}

// Snapshot returns the DAG's counts-by-status, matching
// memory.DagStateSnapshot's shape.
func (d *ExecutableDAG) Snapshot() (pending, running, completed, failed, skipped, total int) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, n := range d.nodes {
		total++
		switch n.Status {
		case types.NodePending:
			pending++
		case types.NodeRunning:
			running++
		case types.NodeCompleted:
			completed++
		case types.NodeFailed:
			failed++
		case types.NodeSkipped:
			skipped++
		}
	}
	return
}

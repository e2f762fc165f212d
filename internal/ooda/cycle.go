package ooda

import (
	"context"

	"github.com/azzindani/cogkernel/internal/eventstream"
	"github.com/azzindani/cogkernel/internal/memory"
	"github.com/azzindani/cogkernel/internal/types"
	"golang.org/x/sync/errgroup"
)

// OrientedState is Orient's output: the current context plus whether
// execution is blocked.
type OrientedState struct {
	Context     memory.ContextSlice
	Objective   string
	IsBlocked   bool
	BlockReason string
}

// ActionResult is what Act records in short-term memory for one node.
type ActionResult struct {
	NodeID  string
	Output  string
	JobID   string
	Async   bool
	Err     error
}

// Actor dispatches a node's bound ActionInstruction: a tool call, an
// inference request, or a sub-DAG invocation.
type Actor interface {
	Act(ctx context.Context, instr types.ActionInstruction) ActionResult
}

// Observe pulls pending events from the stream and appends them to
// short-term memory. Non-blocking and O(events): it drains whatever is
// already queued and returns.
func Observe(ctx context.Context, stream eventstream.Stream, stm *memory.ShortTermMemory) {
	for _, ev := range stream.Pull(ctx) {
		stm.PushObservation(ev)
	}
}

// Orient assembles an OrientedState from short-term memory's context
// slice and the live objective text. A blocking event (disconnection,
// permission denied) sets IsBlocked with its reason.
func Orient(stm *memory.ShortTermMemory, objective string) OrientedState {
	ctxSlice := stm.ReadContext()
	state := OrientedState{Context: ctxSlice, Objective: objective}
	for _, ev := range ctxSlice.RecentEvents {
		if ev.Blocking {
			state.IsBlocked = true
			state.BlockReason = ev.Reason
		}
	}
	return state
}

// Decide produces this cycle's Decision per spec.md §4.7: PARK when
// blocked, TERMINATE/REPLAN when the DAG has no frontier left, otherwise
// CONTINUE toward the next frontier group.
func Decide(state OrientedState, dag *ExecutableDAG, objectiveSatisfied bool, replanBudgetRemaining bool, cycleIndex int) types.Decision {
	if state.IsBlocked {
		return types.Decision{Action: types.ActionPark, Reasoning: state.BlockReason, CycleIndex: cycleIndex}
	}

	frontier := dag.FrontierGroup()
	if len(frontier) == 0 && !dag.HasParkedNodes() {
		if objectiveSatisfied {
			return types.Decision{Action: types.ActionTerminate, Reasoning: "objective satisfied by current outputs", CycleIndex: cycleIndex}
		}
		if replanBudgetRemaining {
			return types.Decision{Action: types.ActionReplan, Reasoning: "objective unmet and no frontier nodes remain", CycleIndex: cycleIndex}
		}
		return types.Decision{Action: types.ActionTerminate, Reasoning: "objective unmet but replan budget exhausted", CycleIndex: cycleIndex}
	}

	return types.Decision{Action: types.ActionContinue, Reasoning: "dispatching next frontier group", TargetNodeIDs: frontier, CycleIndex: cycleIndex}
}

// Act dispatches every target node in the frontier group concurrently
// via errgroup and awaits their collective completion, per spec.md §5's
// "all nodes in a parallel group concurrently" scheduling rule. A node
// reporting an async job id is parked rather than marked complete.
func Act(ctx context.Context, dag *ExecutableDAG, stm *memory.ShortTermMemory, actor Actor, targets []string) []ActionResult {
	results := make([]ActionResult, len(targets))
	g, gctx := errgroup.WithContext(ctx)

	for i, id := range targets {
		i, id := i, id
		node, ok := dag.Node(id)
		if !ok {
			continue
		}
		dag.MarkRunning(id)
		g.Go(func() error {
			res := actor.Act(gctx, node.Action)
			res.NodeID = id
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	for _, res := range results {
		if res.NodeID == "" {
			continue
		}
		recordResult(dag, stm, res)
	}
	return results
}

func recordResult(dag *ExecutableDAG, stm *memory.ShortTermMemory, res ActionResult) {
	switch {
	case res.Async:
		dag.Park(res.NodeID, types.ParkingTicket{NodeID: res.NodeID, JobID: res.JobID, Condition: "job_complete"})
	case res.Err != nil:
		dag.MarkFailed(res.NodeID)
	default:
		dag.MarkCompleted(res.NodeID)
	}
	stm.PushObservation(memory.ObservationEvent{
		Source:  memory.SourceToolResult,
		NodeID:  res.NodeID,
		Payload: map[string]any{"output": res.Output, "job_id": res.JobID},
	})
}

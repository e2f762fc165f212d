package ooda

import (
	"context"
	"testing"
	"time"

	"github.com/azzindani/cogkernel/internal/memory"
	"github.com/azzindani/cogkernel/internal/types"
)

func TestFrontierGroupRespectsDependencies(t *testing.T) {
	dag := NewExecutableDAG()
	dag.AddNode("a", types.ActionInstruction{}, nil)
	dag.AddNode("b", types.ActionInstruction{}, []string{"a"})

	frontier := dag.FrontierGroup()
	if len(frontier) != 1 || frontier[0] != "a" {
		t.Fatalf("expected only 'a' ready, got %v", frontier)
	}

	dag.MarkCompleted("a")
	frontier = dag.FrontierGroup()
	if len(frontier) != 1 || frontier[0] != "b" {
		t.Fatalf("expected 'b' ready after 'a' completes, got %v", frontier)
	}
}

func TestMarkFailedCascadesSkip(t *testing.T) {
	dag := NewExecutableDAG()
	dag.AddNode("a", types.ActionInstruction{}, nil)
	dag.AddNode("b", types.ActionInstruction{}, []string{"a"})
	dag.MarkFailed("a")

	node, _ := dag.Node("b")
	if node.Status != types.NodeSkipped {
		t.Fatalf("expected dependent skipped on failure, got %s", node.Status)
	}
}

func TestDecideParksWhenBlocked(t *testing.T) {
	state := OrientedState{IsBlocked: true, BlockReason: "permission denied"}
	d := Decide(state, NewExecutableDAG(), false, true, 1)
	if d.Action != types.ActionPark {
		t.Fatalf("expected PARK, got %s", d.Action)
	}
}

func TestDecideTerminatesWhenSatisfied(t *testing.T) {
	d := Decide(OrientedState{}, NewExecutableDAG(), true, true, 1)
	if d.Action != types.ActionTerminate {
		t.Fatalf("expected TERMINATE, got %s", d.Action)
	}
}

func TestDecideReplansWhenUnmetWithBudget(t *testing.T) {
	d := Decide(OrientedState{}, NewExecutableDAG(), false, true, 1)
	if d.Action != types.ActionReplan {
		t.Fatalf("expected REPLAN, got %s", d.Action)
	}
}

func TestDecideContinuesOnFrontier(t *testing.T) {
	dag := NewExecutableDAG()
	dag.AddNode("a", types.ActionInstruction{}, nil)
	d := Decide(OrientedState{}, dag, false, true, 1)
	if d.Action != types.ActionContinue || len(d.TargetNodeIDs) != 1 {
		t.Fatalf("expected CONTINUE with frontier, got %+v", d)
	}
}

type stubActor struct{}

func (stubActor) Act(ctx context.Context, instr types.ActionInstruction) ActionResult {
	return ActionResult{Output: "done"}
}

func TestActDispatchesConcurrentlyAndCompletes(t *testing.T) {
	dag := NewExecutableDAG()
	dag.AddNode("a", types.ActionInstruction{Kind: "tool"}, nil)
	dag.AddNode("b", types.ActionInstruction{Kind: "tool"}, nil)
	stm := memory.New(10, time.Minute, 100, 10)

	Act(context.Background(), dag, stm, stubActor{}, []string{"a", "b"})

	na, _ := dag.Node("a")
	nb, _ := dag.Node("b")
	if na.Status != types.NodeCompleted || nb.Status != types.NodeCompleted {
		t.Fatalf("expected both nodes completed, got a=%s b=%s", na.Status, nb.Status)
	}
	if stm.EventCount() != 2 {
		t.Fatalf("expected 2 observations recorded, got %d", stm.EventCount())
	}
}

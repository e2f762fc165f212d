package apex

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/azzindani/cogkernel/internal/config"
	"github.com/azzindani/cogkernel/internal/eventstream"
	"github.com/azzindani/cogkernel/internal/inference"
	"github.com/azzindani/cogkernel/internal/retrieval"
	"github.com/azzindani/cogkernel/internal/router"
	"github.com/azzindani/cogkernel/internal/toolkit"
	"github.com/azzindani/cogkernel/internal/types"
)

func newTestOrchestrator() *Orchestrator {
	cfg := config.Defaults()
	cache := router.NewCache(time.Minute)
	stream := eventstream.NewChannelStream(8, nil)
	return New(cfg, cache, inference.Empty(), toolkit.NoopRegistry{}, retrieval.NoopRetriever{}, stream, nil, nil, nil)
}

func TestProcessTrivialObjectiveRunsFastPathAndReturnsGateOut(t *testing.T) {
	o := newTestOrchestrator()
	req := types.SpawnRequest{TraceID: "trace-1", Identity: types.Identity{}, Objective: "write a short poem"}
	input := types.RawInput{Text: "write a short poem"}

	result := o.Process(context.Background(), req, input)

	if result.FinalPhase != types.PhaseGateOut && result.FinalPhase != types.PhaseAborted {
		t.Fatalf("expected GATE_OUT or ABORTED, got %s", result.FinalPhase)
	}
	if result.TotalCycles < 1 {
		t.Fatalf("expected at least one cycle, got %d", result.TotalCycles)
	}
}

func TestProcessEscalatesOnForbiddenRequiredTool(t *testing.T) {
	o := newTestOrchestrator()
	req := types.SpawnRequest{
		TraceID: "trace-2",
		Identity: types.Identity{
			ToolsAllowed:   map[string]struct{}{"search": {}},
			ToolsForbidden: map[string]struct{}{"search": {}},
		},
		Objective: "compare two vendors?",
	}
	input := types.RawInput{Text: "compare two vendors?"}

	result := o.Process(context.Background(), req, input)

	if result.FinalPhase != types.PhaseEscalated {
		t.Fatalf("expected ESCALATED when a required tool is forbidden, got %s", result.FinalPhase)
	}
}

func TestProcessRetriesUntilBudgetExhaustedThenReturnsTerminalRejection(t *testing.T) {
	o := newTestOrchestrator()
	req := types.SpawnRequest{TraceID: "trace-3", Identity: types.Identity{}, Objective: "the sky is blue"}
	input := types.RawInput{Text: "the sky is blue"}

	result := o.Process(context.Background(), req, input)

	if result.Rejection == nil {
		t.Fatalf("expected an ungrounded factual claim with no evidence to be rejected, got %+v", result)
	}
	if !result.Rejection.Terminal {
		t.Fatalf("expected Process to retry internally until the budget was exhausted and return a terminal rejection")
	}
	if result.FinalPhase != types.PhaseAborted {
		t.Fatalf("expected ABORTED once retries are exhausted, got %s", result.FinalPhase)
	}
}

func TestApplyRetryGuidanceAppendsFeedbackToObjective(t *testing.T) {
	o := newTestOrchestrator()
	gate, err := o.gateIn(types.SpawnRequest{TraceID: "trace-retry", Objective: "describe the weather"}, types.RawInput{Text: "describe the weather"})
	if err != nil {
		t.Fatalf("unexpected gateIn error: %v", err)
	}

	o.applyRetryGuidance(gate, []types.RetryGuidance{{Dimension: types.DimGrounding, Message: "cite evidence"}})

	if !strings.Contains(gate.objective, "cite evidence") {
		t.Fatalf("expected retry guidance to be folded into the objective, got %q", gate.objective)
	}
	if gate.dag == nil {
		t.Fatalf("expected the DAG to be rebuilt around the updated objective")
	}
}

func TestDecisionLedgerRejectsEmptyReasoning(t *testing.T) {
	l := NewDecisionLedger()
	_, err := l.Record(types.Decision{Action: types.ActionContinue, CycleIndex: 0})
	if err == nil {
		t.Fatal("expected an error for a decision with empty reasoning")
	}
}

func TestDecisionLedgerChainsHashes(t *testing.T) {
	l := NewDecisionLedger()
	first, err := l.Record(types.Decision{Action: types.ActionContinue, Reasoning: "first", CycleIndex: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := l.Record(types.Decision{Action: types.ActionContinue, Reasoning: "second", CycleIndex: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.ParentHash != first.DecisionHash {
		t.Fatalf("expected second entry's parent hash to equal the first entry's hash")
	}
}

package load

import (
	"context"
	"testing"
	"time"

	"github.com/azzindani/cogkernel/internal/inference"
	"github.com/azzindani/cogkernel/internal/types"
)

func TestMeasureAggregatesWeightedDimensions(t *testing.T) {
	telemetry := types.CycleTelemetry{
		TokensConsumed:   500,
		WallTime:         2 * time.Second,
		ExpectedWallTime: 2 * time.Second,
		ActiveModules:    2,
	}
	got := Measure(telemetry, 1000, 4, DefaultWeights())
	if got.Compute != 0.5 || got.Time != 1.0 || got.Breadth != 0.5 {
		t.Fatalf("unexpected dimensions: %+v", got)
	}
	want := 0.5*0.5 + 0.3*1.0 + 0.2*0.5
	if diff := got.Aggregate - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("expected aggregate %f, got %f", want, got.Aggregate)
	}
}

func repeatingDecision() types.Decision {
	return types.Decision{Action: types.ActionContinue, Reasoning: "same output every cycle"}
}

func TestDetectLoopOnRepeatedDecision(t *testing.T) {
	history := []types.Decision{repeatingDecision(), repeatingDecision(), repeatingDecision()}
	got := DetectLoop(history, 10, 3)
	if !got.IsLooping {
		t.Fatal("expected loop detection on 3 identical decisions")
	}
	if got.Length != 1 {
		t.Fatalf("expected loop length 1 for a single repeating decision, got %d", got.Length)
	}
}

func TestDetectLoopBelowThresholdIsClean(t *testing.T) {
	history := []types.Decision{repeatingDecision(), {Action: types.ActionReplan, Reasoning: "different"}}
	got := DetectLoop(history, 10, 3)
	if got.IsLooping {
		t.Fatal("expected no loop below the repeat threshold")
	}
}

func TestDetectOscillationPeriodTwo(t *testing.T) {
	a := types.Decision{Action: types.ActionContinue, Reasoning: "a"}
	b := types.Decision{Action: types.ActionReplan, Reasoning: "b"}
	history := []types.Decision{a, b, a, b}
	got := DetectOscillation(history)
	if !got.IsOscillating || got.Period != 2 {
		t.Fatalf("expected oscillation with period 2, got %+v", got)
	}
}

func TestDetectStallBeyondDouble(t *testing.T) {
	telemetry := types.CycleTelemetry{WallTime: 5 * time.Second, ExpectedWallTime: 2 * time.Second}
	if !DetectStall(telemetry) {
		t.Fatal("expected stall when wall time exceeds 2x expected")
	}
}

func TestGoalDriftLexicalFallback(t *testing.T) {
	result := DetectGoalDrift(context.Background(), inference.Empty(), "summarize quarterly revenue", []string{"completely unrelated travel itinerary"}, 0.5)
	if !result.UsedLexicalFallback {
		t.Fatal("expected lexical fallback with no embedder configured")
	}
	if !result.Drifting {
		t.Fatal("expected drift on disjoint vocabulary")
	}
}

func TestRecommendEscalatesOnLoop(t *testing.T) {
	v := Verdict{Loop: LoopDetection{IsLooping: true}}
	action, _ := recommend(v, DefaultConfig(), false)
	if action != types.ActionEscalate {
		t.Fatalf("expected ESCALATE on loop, got %s", action)
	}
}

func TestRecommendAbortsOnEnergyPrecondition(t *testing.T) {
	v := Verdict{}
	action, _ := recommend(v, DefaultConfig(), true)
	if action != types.ActionTerminate {
		t.Fatalf("expected TERMINATE (abort) on energy precondition, got %s", action)
	}
}

func TestRecommendContinuesWhenClean(t *testing.T) {
	v := Verdict{Load: types.CognitiveLoad{Aggregate: 0.1}}
	action, _ := recommend(v, DefaultConfig(), false)
	if action != types.ActionContinue {
		t.Fatalf("expected CONTINUE, got %s", action)
	}
}

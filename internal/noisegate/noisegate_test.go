package noisegate

import (
	"testing"

	"github.com/azzindani/cogkernel/internal/types"
)

func TestFilterOutputPassesCleanContent(t *testing.T) {
	in := Input{
		Content:    "all good",
		Grounding:  types.GroundingReport{Score: 0.9},
		Calibrated: types.CalibratedConfidence{Calibrated: 0.9},
	}
	cfg := Config{GroundingFloor: 0.8, ConfidenceFloor: 0.8}
	out, rej := FilterOutput(in, cfg, true)
	if out == nil || rej != nil {
		t.Fatalf("expected pass, got out=%v rej=%v", out, rej)
	}
}

func TestFilterOutputRejectsLowGrounding(t *testing.T) {
	in := Input{
		Content:   "shaky",
		Grounding: types.GroundingReport{Score: 0.2, Grades: []types.ClaimGrade{{Grade: types.GradeFabricated}}},
	}
	cfg := Config{GroundingFloor: 0.8, ConfidenceFloor: 0.8}
	out, rej := FilterOutput(in, cfg, true)
	if out != nil || rej == nil {
		t.Fatalf("expected rejection, got out=%v rej=%v", out, rej)
	}
	if _, ok := rej.Reasons[types.DimGrounding]; !ok {
		t.Fatalf("expected GROUNDING reason, got %v", rej.Reasons)
	}
	if rej.Terminal {
		t.Fatal("expected non-terminal rejection when retryable")
	}
}

func TestFilterOutputTerminalWhenRetryExhausted(t *testing.T) {
	in := Input{Grounding: types.GroundingReport{Score: 0.1}}
	cfg := Config{GroundingFloor: 0.8}
	_, rej := FilterOutput(in, cfg, false)
	if rej == nil || !rej.Terminal {
		t.Fatal("expected terminal rejection when not retryable")
	}
}

func TestQualityBarOverridesGateFloor(t *testing.T) {
	in := Input{
		Grounding:  types.GroundingReport{Score: 0.85},
		Calibrated: types.CalibratedConfidence{Calibrated: 0.85},
		QualityBar: types.QualityBar{GroundingMin: 0.9},
	}
	cfg := Config{GroundingFloor: 0.5, ConfidenceFloor: 0.5}
	reasons := ApplyQualityThreshold(in, cfg)
	if _, ok := reasons[types.DimGrounding]; !ok {
		t.Fatal("identity quality_bar should tighten the floor above gate default")
	}
}

func TestRetryBudgetDecrementsAndResets(t *testing.T) {
	b := NewRetryBudget(2)
	if !b.Consume("trace-1") || !b.Consume("trace-1") {
		t.Fatal("expected two successful consumes")
	}
	if b.Consume("trace-1") {
		t.Fatal("expected budget exhausted on third consume")
	}
	b.Reset("trace-1")
	if b.Remaining("trace-1") != 2 {
		t.Fatalf("expected reset to restore full limit, got %d", b.Remaining("trace-1"))
	}
}

func TestRetryBudgetIsolatesTraces(t *testing.T) {
	b := NewRetryBudget(1)
	b.Consume("trace-a")
	if !b.Consume("trace-b") {
		t.Fatal("trace-b should have its own independent budget")
	}
}

package lifecycle

import (
	"testing"

	"github.com/azzindani/cogkernel/internal/types"
)

func TestEnergyBudgetExhaustedOnTokenLimit(t *testing.T) {
	b := EnergyBudget{TokenLimit: 100}
	b.Track(100, 0)
	if !b.Exhausted() {
		t.Fatal("expected exhausted at token limit")
	}
}

func TestEnergyBudgetWarningAtEightyPercent(t *testing.T) {
	b := EnergyBudget{TokenLimit: 100}
	b.Track(80, 0)
	if !b.Warning() {
		t.Fatal("expected warning at 80% spend")
	}
	if b.Exhausted() {
		t.Fatal("should not be exhausted yet at 80%")
	}
}

func TestShouldAbortFollowsExhaustion(t *testing.T) {
	b := EnergyBudget{CostLimit: 10, CostSpent: 10}
	if !b.ShouldAbort(types.CognitiveLoad{}) {
		t.Fatal("expected abort precondition when cost-exhausted")
	}
}

func TestControlSleepWakeEscalatesToPanic(t *testing.T) {
	got := ControlSleepWake(PhaseActive, true, false)
	if got != PhasePanic {
		t.Fatalf("expected PANIC, got %s", got)
	}
}

func TestControlSleepWakeStaysActiveWhenClean(t *testing.T) {
	got := ControlSleepWake(PhaseActive, false, false)
	if got != PhaseActive {
		t.Fatalf("expected to remain ACTIVE, got %s", got)
	}
}

// Package lifecycle implements the supplemented T5 resource-authority
// stage: an energy budget that can precondition the Cognitive Load
// Monitor's ABORT verdict, and sleep/wake/panic phase tracking for a
// trace. Grounded on the Python original's kernel/energy_and_interrupts
// (BudgetState, check_budget_exhaustion) and kernel/lifecycle_controller
// (LifecyclePhase, control_sleep_wake).
package lifecycle

import "github.com/azzindani/cogkernel/internal/types"

// Phase mirrors the original's LifecyclePhase enum, trimmed to the
// states a single process() invocation can actually visit.
type Phase string

const (
	PhaseActive  Phase = "ACTIVE"
	PhasePanic   Phase = "PANIC"
	PhaseDormant Phase = "DORMANT"
)

// EnergyBudget tracks token and cost spend against a cap for one
// trace, standing in for the original's BudgetState token/cost ledger.
type EnergyBudget struct {
	TokenLimit   int
	TokensSpent  int
	CostLimit    float64
	CostSpent    float64
}

// Track records one cycle's spend against the budget.
func (b *EnergyBudget) Track(tokens int, cost float64) {
	b.TokensSpent += tokens
	b.CostSpent += cost
}

// Exhausted reports whether either the token or cost ceiling has been
// crossed, mirroring check_budget_exhaustion.
func (b EnergyBudget) Exhausted() bool {
	if b.TokenLimit > 0 && b.TokensSpent >= b.TokenLimit {
		return true
	}
	if b.CostLimit > 0 && b.CostSpent >= b.CostLimit {
		return true
	}
	return false
}

// Warning reports whether spend has crossed 80% of either ceiling,
// mirroring check_budget_warning.
func (b EnergyBudget) Warning() bool {
	if b.TokenLimit > 0 && float64(b.TokensSpent) >= 0.8*float64(b.TokenLimit) {
		return true
	}
	if b.CostLimit > 0 && b.CostSpent >= 0.8*b.CostLimit {
		return true
	}
	return false
}

// ShouldAbort is the Energy precondition the Cognitive Load Monitor
// consults per spec.md §4.3's "ABORT precondition from Energy" clause:
// exhaustion always aborts regardless of measured CognitiveLoad.
func (b EnergyBudget) ShouldAbort(load types.CognitiveLoad) bool {
	return b.Exhausted()
}

// ControlSleepWake decides the next lifecycle phase from the current
// phase and an interrupt signal, mirroring control_sleep_wake's
// transition table narrowed to the transitions this kernel can reach:
// any PANIC-triggering interrupt forces PhasePanic from any state, and
// an energy-exhaustion interrupt dormantizes an otherwise-active trace.
func ControlSleepWake(current Phase, panicTriggered, energyExhausted bool) Phase {
	switch {
	case panicTriggered:
		return PhasePanic
	case energyExhausted:
		return PhaseDormant
	default:
		return current
	}
}

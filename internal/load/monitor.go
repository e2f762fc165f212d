package load

import (
	"context"

	"github.com/azzindani/cogkernel/internal/inference"
	"github.com/azzindani/cogkernel/internal/types"
)

// Config bundles the Cognitive Load Monitor's tunables.
type Config struct {
	Weights           Weights
	LoopWindow        int
	LoopRepeatThreshold int
	GoalDriftThreshold  float64
	AbortAggregate      float64
	SimplifyAggregate   float64
}

// DefaultConfig returns the spec's §6 defaults.
func DefaultConfig() Config {
	return Config{
		Weights:             DefaultWeights(),
		LoopWindow:          10,
		LoopRepeatThreshold: 3,
		GoalDriftThreshold:  0.5,
		AbortAggregate:      0.95,
		SimplifyAggregate:   0.8,
	}
}

// Verdict is the Cognitive Load Monitor's full between-cycle report.
type Verdict struct {
	Load        types.CognitiveLoad
	Loop        LoopDetection
	Oscillation OscillationDetection
	Stall       bool
	Drift       DriftResult
	Decision    types.Decision
	Diagnostics []string
}

// Evaluate runs every detector and returns the graduated-response
// recommendation per spec.md §4.3's table. A detector that fails
// internally is treated as "no anomaly" and recorded as a diagnostic —
// the monitor itself never fails the cycle.
func Evaluate(ctx context.Context, cfg Config, activation types.ActivationMap, t types.CycleTelemetry, tokenBudget, maxModules int, history []types.Decision, recentOutputs []string, objective string, kit inference.Kit, energyAbort bool) Verdict {
	v := Verdict{}
	v.Load = Measure(t, tokenBudget, maxModules, cfg.Weights)
	v.Loop = DetectLoop(history, cfg.LoopWindow, cfg.LoopRepeatThreshold)
	v.Oscillation = DetectOscillation(history)
	v.Stall = DetectStall(t)
	v.Drift = DetectGoalDrift(ctx, kit, objective, recentOutputs, cfg.GoalDriftThreshold)

	action, reasoning := recommend(v, cfg, energyAbort)
	v.Decision = types.Decision{Action: action, Reasoning: reasoning, CycleIndex: t.CycleIndex}
	return v
}

func recommend(v Verdict, cfg Config, energyAbort bool) (types.DecisionAction, string) {
	switch {
	case v.Load.Aggregate > cfg.AbortAggregate || energyAbort:
		return types.ActionTerminate, "aggregate load exceeded abort threshold or energy budget exhausted"
	case v.Loop.IsLooping:
		return types.ActionEscalate, "decision loop confirmed"
	case v.Oscillation.IsOscillating:
		return types.ActionEscalate, "decision oscillation confirmed"
	case v.Drift.Drifting && v.Drift.Drift > 0.7:
		return types.ActionEscalate, "objective drift magnitude high"
	case v.Stall:
		return types.ActionSimplify, "cycle stalled beyond expected duration"
	case v.Load.Aggregate > cfg.SimplifyAggregate:
		return types.ActionSimplify, "aggregate load exceeded simplify threshold"
	default:
		return types.ActionContinue, "within normal operating bounds"
	}
}

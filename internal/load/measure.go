// Package load implements the Cognitive Load Monitor (spec.md §4.3):
// three-dimensional load measurement and loop/stall/oscillation/drift
// detection between Execute cycles.
package load

import "github.com/azzindani/cogkernel/internal/types"

// Weights holds the three load-dimension coefficients. Mirrors
// octoreflex's escalation.Weights shape: non-negative, need not sum to 1.
type Weights struct {
	Compute float64
	Time    float64
	Breadth float64
}

// DefaultWeights returns the spec's §6 defaults.
func DefaultWeights() Weights {
	return Weights{Compute: 0.5, Time: 0.3, Breadth: 0.2}
}

// Measure computes the three-dimensional CognitiveLoad from one cycle's
// telemetry and the pipeline's module ceiling.
func Measure(t types.CycleTelemetry, tokenBudget, maxModulesInPipeline int, w Weights) types.CognitiveLoad {
	compute := ratio(float64(t.TokensConsumed), float64(tokenBudget))
	timeLoad := ratio(float64(t.WallTime), float64(t.ExpectedWallTime))
	breadth := ratio(float64(t.ActiveModules), float64(maxModulesInPipeline))

	aggregate := w.Compute*compute + w.Time*timeLoad + w.Breadth*breadth
	return types.CognitiveLoad{Compute: compute, Time: timeLoad, Breadth: breadth, Aggregate: aggregate}
}

func ratio(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	return num / den
}

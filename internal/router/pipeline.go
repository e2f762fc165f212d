package router

import "github.com/azzindani/cogkernel/internal/types"

// Pressure thresholds for pipeline downgrade, spec.md §4.2.
type PressureConfig struct {
	ModerateThreshold float64
	HighThreshold     float64
}

// DefaultPressureConfig returns the spec's §6 defaults.
func DefaultPressureConfig() PressureConfig {
	return PressureConfig{ModerateThreshold: 0.6, HighThreshold: 0.8}
}

var pipelineTemplates = map[types.ComplexityLevel]types.PipelineConfig{
	types.ComplexityTrivial: {
		Complexity: types.ComplexityTrivial,
		Active:     []string{"apex", "noisegate"},
		Gated:      []string{"grounding", "calibration", "load", "ooda"},
		MaxCycles:  1,
		TokenBudget: 2_000,
	},
	types.ComplexitySimple: {
		Complexity: types.ComplexitySimple,
		Active:     []string{"apex", "ooda", "noisegate"},
		Gated:      []string{"grounding", "calibration", "load"},
		MaxCycles:  1,
		TokenBudget: 4_000,
	},
	types.ComplexityModerate: {
		Complexity: types.ComplexityModerate,
		Active:     []string{"apex", "ooda", "load", "grounding", "calibration", "noisegate"},
		Gated:      []string{"planning"},
		MaxCycles:  3,
		TokenBudget: 12_000,
	},
	types.ComplexityComplex: {
		Complexity: types.ComplexityComplex,
		Active:     []string{"apex", "ooda", "load", "grounding", "calibration", "noisegate", "planning", "selfmodel"},
		Gated:      []string{},
		MaxCycles:  8,
		TokenBudget: 40_000,
	},
	types.ComplexityCritical: {
		Complexity: types.ComplexityCritical,
		Active:     []string{"apex", "ooda", "load", "grounding", "calibration", "noisegate", "planning", "selfmodel", "perception", "lifecycle"},
		Gated:      []string{},
		MaxCycles:  16,
		TokenBudget: 120_000,
	},
}

// SelectPipeline applies pressure-based downgrade and returns the
// parameterized template for the resulting complexity.
func SelectPipeline(complexity types.ComplexityLevel, pressure float64, cfg PressureConfig) types.PipelineConfig {
	effective := complexity
	switch {
	case pressure >= cfg.HighThreshold:
		effective = complexity.Downgrade(2)
	case pressure >= cfg.ModerateThreshold:
		effective = complexity.Downgrade(1)
	}
	return pipelineTemplates[effective]
}

// toolConsumingModules lists the modules that act on tools directly;
// only these are gated when a required tool is unavailable, per
// spec.md §4.2's edge case. Monitors (grounding, calibration, noisegate,
// load) have nothing to gate since they never invoke a tool themselves.
var toolConsumingModules = map[string]struct{}{
	"ooda":     {},
	"planning": {},
}

// BuildActivationMap turns a PipelineConfig plus the identity's available
// tools into an ActivationMap. A tool-consuming module is gated, not
// disabled, when the identity lacks one of its required tools — Execute
// may revive it later via REPLAN if the identity acquires the tool.
func BuildActivationMap(pc types.PipelineConfig, requiredTools map[string]struct{}, availableTools map[string]struct{}) types.ActivationMap {
	modules := make(map[string]types.ModuleActivation, len(pc.Active)+len(pc.Gated))
	for _, m := range pc.Active {
		modules[m] = types.ModuleActive
	}
	for _, m := range pc.Gated {
		modules[m] = types.ModuleGated
	}

	missing := false
	for tool := range requiredTools {
		if _, ok := availableTools[tool]; !ok {
			missing = true
			break
		}
	}
	if missing {
		for name := range toolConsumingModules {
			if modules[name] == types.ModuleActive {
				modules[name] = types.ModuleGated
			}
		}
	}

	return types.ActivationMap{Modules: modules, RequiredTools: requiredTools}
}

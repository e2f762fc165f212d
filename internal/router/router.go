package router

import "github.com/azzindani/cogkernel/internal/types"

// Config bundles the Activation Router's tunables.
type Config struct {
	ClassifyWeights ClassifyWeights
	Pressure        PressureConfig
}

// Router is the Activation Router: it classifies a signal's complexity,
// selects a pipeline template, and caches the resulting ActivationMap by
// fingerprint.
type Router struct {
	cfg   Config
	cache DecisionCache
}

// New builds a Router over the given cache backend (InMemoryCache or
// RedisDecisionCache).
func New(cfg Config, cache DecisionCache) *Router {
	return &Router{cfg: cfg, cache: cache}
}

// Route runs the full Gate-In router step: classify, downgrade for
// pressure, check the decision cache, and on a miss build and cache a
// fresh ActivationMap gated against the identity's available tools.
func (r *Router) Route(tags types.SignalTags, gap *types.CapabilityGap, pressure float64, availableTools map[string]struct{}) (types.ActivationMap, types.ComplexityLevel, bool) {
	complexity := ClassifySignalComplexity(tags, gap, r.cfg.ClassifyWeights)
	pc := SelectPipeline(complexity, pressure, r.cfg.Pressure)

	key := Fingerprint(tags, pc.Complexity)
	if cached, ok := r.cache.Get(key); ok {
		return cached, complexity, true
	}

	activation := BuildActivationMap(pc, tags.RequiredTools, availableTools)
	r.cache.Put(key, activation)
	return activation, complexity, false
}

// PipelineFor exposes the raw template lookup for a complexity level,
// used by the Apex Orchestrator to read MaxCycles/TokenBudget without
// rerunning the classifier.
func PipelineFor(complexity types.ComplexityLevel) types.PipelineConfig {
	return pipelineTemplates[complexity]
}

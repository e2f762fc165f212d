package router

import (
	"testing"
	"time"

	"github.com/azzindani/cogkernel/internal/types"
)

func TestCriticalUrgencyBypassesComposite(t *testing.T) {
	tags := types.SignalTags{Urgency: types.UrgencyCritical, RequiredSkills: map[string]struct{}{}, RequiredTools: map[string]struct{}{}}
	got := ClassifySignalComplexity(tags, nil, DefaultClassifyWeights())
	if got != types.ComplexityCritical {
		t.Fatalf("expected CRITICAL bypass, got %s", got)
	}
}

func TestPressureDowngradeByTwo(t *testing.T) {
	got := SelectPipeline(types.ComplexityComplex, 0.85, DefaultPressureConfig())
	if got.Complexity != types.ComplexitySimple {
		t.Fatalf("expected downgrade by 2 to SIMPLE under high pressure, got %s", got.Complexity)
	}
}

func TestPressureDowngradeByOne(t *testing.T) {
	got := SelectPipeline(types.ComplexityComplex, 0.65, DefaultPressureConfig())
	if got.Complexity != types.ComplexityModerate {
		t.Fatalf("expected downgrade by 1 to MODERATE under moderate pressure, got %s", got.Complexity)
	}
}

func TestDowngradeClampsAtTrivial(t *testing.T) {
	got := SelectPipeline(types.ComplexitySimple, 0.9, DefaultPressureConfig())
	if got.Complexity != types.ComplexityTrivial {
		t.Fatalf("expected clamp at TRIVIAL, got %s", got.Complexity)
	}
}

func TestMissingToolGatesOnlyActionModules(t *testing.T) {
	pc := pipelineTemplates[types.ComplexityModerate]
	required := map[string]struct{}{"search": {}}
	available := map[string]struct{}{}
	am := BuildActivationMap(pc, required, available)
	if am.Modules["ooda"] != types.ModuleGated {
		t.Fatalf("expected ooda gated when a required tool is missing, got %s", am.Modules["ooda"])
	}
	if am.Modules["grounding"] != types.ModuleActive {
		t.Fatalf("expected monitor modules to stay active, got %s", am.Modules["grounding"])
	}
}

func TestRouteCachesOnSameFingerprint(t *testing.T) {
	r := New(Config{ClassifyWeights: DefaultClassifyWeights(), Pressure: DefaultPressureConfig()}, NewCache(60*time.Second))
	tags := types.SignalTags{Domain: "finance", PrimaryIntent: "summarize", Urgency: types.UrgencyNormal, RequiredTools: map[string]struct{}{}, RequiredSkills: map[string]struct{}{}}
	available := map[string]struct{}{}

	_, _, hit1 := r.Route(tags, nil, 0, available)
	_, _, hit2 := r.Route(tags, nil, 0, available)
	if hit1 {
		t.Fatal("first call should miss the cache")
	}
	if !hit2 {
		t.Fatal("second call with identical fingerprint should hit the cache")
	}
}

func TestCacheEntryExpiresAfterTTL(t *testing.T) {
	c := NewCache(10 * time.Millisecond)
	c.Put("k", types.ActivationMap{Modules: map[string]types.ModuleActivation{}})
	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected cache entry to expire after TTL")
	}
}

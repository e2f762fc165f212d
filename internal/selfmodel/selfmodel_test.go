package selfmodel

import (
	"testing"

	"github.com/azzindani/cogkernel/internal/types"
)

func TestAssessCapabilityFullConfidenceWithNoRequirements(t *testing.T) {
	tags := types.SignalTags{RequiredSkills: map[string]struct{}{}, RequiredTools: map[string]struct{}{}}
	got := AssessCapability(tags, Profile{})
	if got.Confidence != 1.0 || got.Gap != nil {
		t.Fatalf("expected full confidence and no gap, got %+v", got)
	}
}

func TestDetectCapabilityGapReportsMissingTool(t *testing.T) {
	tags := types.SignalTags{RequiredTools: map[string]struct{}{"search": {}}, RequiredSkills: map[string]struct{}{}}
	gap := DetectCapabilityGap(tags, Profile{Tools: map[string]struct{}{}})
	if len(gap.MissingTools) != 1 || gap.MissingTools[0] != "search" {
		t.Fatalf("expected search reported missing, got %+v", gap.MissingTools)
	}
	if gap.Severity != 1.0 {
		t.Fatalf("expected severity 1.0 with single unmet requirement, got %f", gap.Severity)
	}
}

func TestAssessCapabilityPartialMatch(t *testing.T) {
	tags := types.SignalTags{
		RequiredTools:  map[string]struct{}{"search": {}, "calc": {}},
		RequiredSkills: map[string]struct{}{},
	}
	profile := Profile{Tools: map[string]struct{}{"search": {}}}
	got := AssessCapability(tags, profile)
	if got.Confidence != 0.5 {
		t.Fatalf("expected confidence 0.5 with half requirements met, got %f", got.Confidence)
	}
	if got.Gap == nil {
		t.Fatal("expected a non-nil gap when a requirement is unmet")
	}
}

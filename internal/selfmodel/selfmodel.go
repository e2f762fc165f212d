// Package selfmodel implements the supplemented T6 self-model stage:
// assessing whether the current identity can handle an incoming signal
// and detecting capability gaps. Grounded on the Python original's
// kernel/self_model/engine.py (assess_capability, detect_capability_gap).
package selfmodel

import (
	"github.com/azzindani/cogkernel/internal/types"
)

// Profile is the identity's declared capability surface, assembled from
// SpawnRequest.Identity at Gate-In.
type Profile struct {
	Skills    map[string]struct{}
	Tools     map[string]struct{}
	Knowledge map[string]struct{}
}

// AssessCapability compares a signal's required skills/tools against the
// identity's profile and returns a CapabilityAssessment. Confidence is
// 1.0 minus the fraction of requirements unmet.
func AssessCapability(tags types.SignalTags, profile Profile) types.CapabilityAssessment {
	gap := DetectCapabilityGap(tags, profile)
	total := len(tags.RequiredSkills) + len(tags.RequiredTools)
	if total == 0 {
		return types.CapabilityAssessment{Confidence: 1.0}
	}

	missing := len(gap.MissingSkills) + len(gap.MissingTools)
	confidence := 1.0 - float64(missing)/float64(total)
	if confidence < 0 {
		confidence = 0
	}

	if gap.Severity == 0 {
		return types.CapabilityAssessment{Confidence: confidence}
	}
	return types.CapabilityAssessment{Confidence: confidence, Gap: &gap}
}

// DetectCapabilityGap enumerates the skills and tools a signal requires
// that the identity's profile does not provide. Knowledge is not checked:
// MissingKnowledge is left empty.
// Severity is the unmet fraction of all requirements, in [0,1].
func DetectCapabilityGap(tags types.SignalTags, profile Profile) types.CapabilityGap {
	var gap types.CapabilityGap

	for skill := range tags.RequiredSkills {
		if _, ok := profile.Skills[skill]; !ok {
			gap.MissingSkills = append(gap.MissingSkills, skill)
		}
	}
	for tool := range tags.RequiredTools {
		if _, ok := profile.Tools[tool]; !ok {
			gap.MissingTools = append(gap.MissingTools, tool)
		}
	}

	total := len(tags.RequiredSkills) + len(tags.RequiredTools)
	missing := len(gap.MissingSkills) + len(gap.MissingTools)
	if total > 0 {
		gap.Severity = float64(missing) / float64(total)
	}
	return gap
}

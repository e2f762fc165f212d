// Package router implements the Activation Router (spec.md §4.2):
// complexity classification, pipeline selection, and decision caching.
package router

import "github.com/azzindani/cogkernel/internal/types"

// ClassifyWeights holds the four coefficients of the complexity formula.
// Mirrors octoreflex's escalation.Weights shape: a plain struct of
// non-negative coefficients that need not sum to 1.
type ClassifyWeights struct {
	Urgency     float64
	Structural  float64
	Domain      float64
	Capability  float64
}

// DefaultClassifyWeights returns the spec's §4.2 defaults.
func DefaultClassifyWeights() ClassifyWeights {
	return ClassifyWeights{Urgency: 0.30, Structural: 0.25, Domain: 0.25, Capability: 0.20}
}

// ClassifySignalComplexity computes a weighted sum of four normalized
// signal scores and maps it to a ComplexityLevel. Critical-urgency
// signals bypass the sum entirely and return CRITICAL.
func ClassifySignalComplexity(tags types.SignalTags, gap *types.CapabilityGap, w ClassifyWeights) types.ComplexityLevel {
	if tags.Urgency == types.UrgencyCritical {
		return types.ComplexityCritical
	}

	urgencyScore := urgencyToScore(tags.Urgency)
	structuralScore := structuralScore(tags)
	domainScore := domainScore(tags)
	capabilityScore := 0.0
	if gap != nil {
		capabilityScore = gap.Severity
	}

	composite := w.Urgency*urgencyScore +
		w.Structural*structuralScore +
		w.Domain*domainScore +
		w.Capability*capabilityScore

	return compositeToLevel(composite)
}

func urgencyToScore(u types.UrgencyBand) float64 {
	switch u {
	case types.UrgencyLow:
		return 0.1
	case types.UrgencyNormal:
		return 0.4
	case types.UrgencyHigh:
		return 0.8
	case types.UrgencyCritical:
		return 1.0
	default:
		return 0.4
	}
}

// structuralScore normalizes the count of required tools plus required
// skills into [0,1], saturating at 6 combined requirements.
func structuralScore(tags types.SignalTags) float64 {
	const saturation = 6.0
	n := float64(len(tags.RequiredTools) + len(tags.RequiredSkills))
	if n >= saturation {
		return 1.0
	}
	return n / saturation
}

// domainScore treats the general domain as least specific and any named
// domain as fully specific; a real deployment may grade partial
// specificity from a domain taxonomy.
func domainScore(tags types.SignalTags) float64 {
	if tags.Domain == "" || tags.Domain == "general" {
		return 0.2
	}
	return 0.9
}

func compositeToLevel(composite float64) types.ComplexityLevel {
	switch {
	case composite >= 0.8:
		return types.ComplexityCritical
	case composite >= 0.6:
		return types.ComplexityComplex
	case composite >= 0.4:
		return types.ComplexityModerate
	case composite >= 0.2:
		return types.ComplexitySimple
	default:
		return types.ComplexityTrivial
	}
}

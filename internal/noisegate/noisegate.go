// Package noisegate implements the Noise Gate (spec.md §4.6): the final
// quality checkpoint before output leaves the kernel.
package noisegate

import (
	"fmt"

	"github.com/azzindani/cogkernel/internal/types"
)

// Config bundles the Noise Gate's tunables.
type Config struct {
	GroundingFloor  float64
	ConfidenceFloor float64
}

// Input bundles everything the quality threshold check needs.
type Input struct {
	Content          string
	Grounding        types.GroundingReport
	Calibrated       types.CalibratedConfidence
	QualityBar       types.QualityBar
	Contradictions   []string // both-sides claims detected by the hallucination monitor
	MissingOutputs   []string // identity-declared required outputs not present
}

// ApplyQualityThreshold checks every rejection dimension and returns the
// set that failed. An identity's quality_bar overrides the gate's
// configured floors when non-zero.
func ApplyQualityThreshold(in Input, cfg Config) map[types.RejectionDimension]string {
	groundingMin := cfg.GroundingFloor
	if in.QualityBar.GroundingMin > 0 {
		groundingMin = in.QualityBar.GroundingMin
	}
	confidenceMin := cfg.ConfidenceFloor
	if in.QualityBar.ConfidenceMin > 0 {
		confidenceMin = in.QualityBar.ConfidenceMin
	}

	reasons := make(map[types.RejectionDimension]string)

	if in.Grounding.Score < groundingMin {
		k := fabricatedClaimIndex(in.Grounding)
		reasons[types.DimGrounding] = fmt.Sprintf("Cite evidence for fabricated claim #%d: grounding score %.2f below floor %.2f", k, in.Grounding.Score, groundingMin)
	}
	if in.Calibrated.Calibrated < confidenceMin {
		reasons[types.DimConfidence] = "Verify or hedge overconfident statements."
	}
	if len(in.Contradictions) > 0 {
		reasons[types.DimConsistency] = fmt.Sprintf("Contradictions found: %v", in.Contradictions)
	}
	if len(in.MissingOutputs) > 0 {
		reasons[types.DimCompleteness] = fmt.Sprintf("Missing required outputs: %v", in.MissingOutputs)
	}
	return reasons
}

func fabricatedClaimIndex(report types.GroundingReport) int {
	for i, g := range report.Grades {
		if g.Grade == types.GradeFabricated {
			return i + 1
		}
	}
	return 0
}

// AnnotateOutput builds the passing-output quality annotation.
func AnnotateOutput(content string, grounding types.GroundingReport, calibrated types.CalibratedConfidence) types.FilteredOutput {
	return types.FilteredOutput{
		Content: content,
		Quality: types.QualityMetadata{
			GroundingScore: grounding.Score,
			Calibrated:     calibrated.Calibrated,
			Dimensions:     map[types.RejectionDimension]bool{},
		},
	}
}

// GenerateRejectionFeedback turns failed dimensions into RetryGuidance.
func GenerateRejectionFeedback(reasons map[types.RejectionDimension]string) []types.RetryGuidance {
	guidance := make([]types.RetryGuidance, 0, len(reasons))
	for dim, msg := range reasons {
		guidance = append(guidance, types.RetryGuidance{Dimension: dim, Message: msg})
	}
	return guidance
}

// FilterOutput is the top-level Gate-Out quality decision: either a
// FilteredOutput or a RejectedOutput (terminal only when retryable is
// false, i.e. the caller's retry budget is exhausted).
func FilterOutput(in Input, cfg Config, retryable bool) (*types.FilteredOutput, *types.RejectedOutput) {
	reasons := ApplyQualityThreshold(in, cfg)
	if len(reasons) == 0 {
		out := AnnotateOutput(in.Content, in.Grounding, in.Calibrated)
		return &out, nil
	}

	rejection := types.RejectedOutput{
		Content:  in.Content,
		Reasons:  reasons,
		Guidance: GenerateRejectionFeedback(reasons),
		Terminal: !retryable,
	}
	return nil, &rejection
}

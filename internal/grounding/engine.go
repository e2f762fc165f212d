package grounding

import (
	"context"

	"github.com/azzindani/cogkernel/internal/inference"
	"github.com/azzindani/cogkernel/internal/types"
)

// Config bundles the Hallucination Monitor's tunables.
type Config struct {
	GroundedThreshold   float64
	FabricatedThreshold float64
	GradeWeights        map[string]float64
}

// Engine grades claims against evidence. Thread-safe: it holds no
// mutable state, matching octoreflex's anomaly.Engine shape (a stateless
// scoring wrapper configured once at construction).
type Engine struct {
	cfg Config
	kit inference.Kit
}

// NewEngine constructs a grading engine. kit may be the zero value
// (inference.Empty()), in which case grading falls back to the
// token-Jaccard heuristic for every claim.
func NewEngine(cfg Config, kit inference.Kit) *Engine {
	return &Engine{cfg: cfg, kit: kit}
}

// GradeClaims grades every claim against the evidence set and returns
// the per-claim grades in claim order, plus any warnings raised by
// fallback paths.
func (e *Engine) GradeClaims(ctx context.Context, claims []types.Claim, evidence []types.Origin) ([]types.ClaimGrade, []string) {
	var warnings []string
	grades := make([]types.ClaimGrade, 0, len(claims))

	var factualSoFar []types.Claim

	for _, claim := range claims {
		switch claim.Type {
		case types.ClaimOpinion:
			grades = append(grades, types.ClaimGrade{
				Claim:      claim,
				Grade:      types.GradeGrounded,
				Similarity: 1.0,
			})
		case types.ClaimReasoning:
			g, w := e.gradeAgainstEvidence(ctx, claim, evidence, e.cfg.GroundedThreshold-0.1, e.cfg.FabricatedThreshold-0.1)
			if w != "" {
				warnings = append(warnings, w)
			}
			g.Evidence = append(g.Evidence, dependentFactualLinks(factualSoFar)...)
			grades = append(grades, g)
		default: // FACTUAL
			g, w := e.gradeAgainstEvidence(ctx, claim, evidence, e.cfg.GroundedThreshold, e.cfg.FabricatedThreshold)
			if w != "" {
				warnings = append(warnings, w)
			}
			grades = append(grades, g)
			factualSoFar = append(factualSoFar, claim)
		}
	}
	return grades, warnings
}

func dependentFactualLinks(factuals []types.Claim) []types.EvidenceLink {
	links := make([]types.EvidenceLink, 0, len(factuals))
	for _, f := range factuals {
		links = append(links, types.EvidenceLink{OriginID: f.ID, Similarity: 1.0})
	}
	return links
}

func (e *Engine) gradeAgainstEvidence(ctx context.Context, claim types.Claim, evidence []types.Origin, groundedThreshold, fabricatedThreshold float64) (types.ClaimGrade, string) {
	if len(evidence) == 0 {
		return types.ClaimGrade{Claim: claim, Grade: types.GradeFabricated, Similarity: 0}, ""
	}

	var best float64
	var bestOrigin string
	var warning string

	if e.kit.HasEmbedder() {
		claimVec, err := e.kit.Embedder.Embed(ctx, claim.Text)
		if err != nil {
			warning = "embedder failed, falling back to token-Jaccard similarity"
		} else {
			for _, o := range evidence {
				oVec, err := e.kit.Embedder.Embed(ctx, o.Content)
				if err != nil {
					continue
				}
				sim := cosineSimilarity(claimVec, oVec)
				if sim > best {
					best, bestOrigin = sim, o.ID
				}
			}
		}
	}

	if !e.kit.HasEmbedder() || warning != "" {
		if warning == "" {
			warning = "no embedder available, using token-Jaccard similarity"
		}
		best, bestOrigin = 0, ""
		for _, o := range evidence {
			sim := jaccardSimilarity(claim.Text, o.Content)
			if sim > best {
				best, bestOrigin = sim, o.ID
			}
		}
	}

	grade := types.GradeInferred
	switch {
	case best >= groundedThreshold:
		grade = types.GradeGrounded
	case best < fabricatedThreshold:
		grade = types.GradeFabricated
	}

	links := []types.EvidenceLink{}
	if bestOrigin != "" {
		links = append(links, types.EvidenceLink{OriginID: bestOrigin, Similarity: best})
	}

	return types.ClaimGrade{Claim: claim, Grade: grade, Similarity: best, Evidence: links}, warning
}

// CalculateGroundingScore aggregates grades into a GroundingReport per
// spec.md §4.4: Σ weight(grade) × similarity / count, bounded to [0,1].
func CalculateGroundingScore(grades []types.ClaimGrade, weights map[string]float64) types.GroundingReport {
	report := types.GroundingReport{Grades: grades, TotalClaims: len(grades)}
	if len(grades) == 0 {
		return report
	}

	var sum float64
	for _, g := range grades {
		switch g.Grade {
		case types.GradeGrounded:
			report.GroundedCount++
		case types.GradeInferred:
			report.InferredCount++
		case types.GradeFabricated:
			report.FabricatedCount++
		}
		sum += weights[string(g.Grade)] * g.Similarity
	}

	score := sum / float64(len(grades))
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	report.Score = score
	return report
}

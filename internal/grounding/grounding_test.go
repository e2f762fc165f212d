package grounding

import (
	"context"
	"testing"

	"github.com/azzindani/cogkernel/internal/inference"
	"github.com/azzindani/cogkernel/internal/types"
)

func TestExtractClaimsClassification(t *testing.T) {
	claims := ExtractClaims("The sky is blue. Therefore the ocean reflects it. I think that is beautiful.")
	if len(claims) != 3 {
		t.Fatalf("expected 3 claims, got %d", len(claims))
	}
	if claims[0].Type != types.ClaimFactual {
		t.Errorf("expected FACTUAL, got %s", claims[0].Type)
	}
	if claims[1].Type != types.ClaimReasoning {
		t.Errorf("expected REASONING, got %s", claims[1].Type)
	}
	if claims[2].Type != types.ClaimOpinion {
		t.Errorf("expected OPINION, got %s", claims[2].Type)
	}
}

func TestOpinionAlwaysGrounded(t *testing.T) {
	e := NewEngine(Config{GroundedThreshold: 0.5, FabricatedThreshold: 0.3}, inference.Empty())
	claim := types.Claim{ID: "1", Text: "I think this is great", Type: types.ClaimOpinion}
	grades, _ := e.GradeClaims(context.Background(), []types.Claim{claim}, nil)
	if grades[0].Grade != types.GradeGrounded {
		t.Fatalf("expected OPINION to always grade GROUNDED, got %s", grades[0].Grade)
	}
}

func TestFactualWithNoEvidenceIsFabricated(t *testing.T) {
	e := NewEngine(Config{GroundedThreshold: 0.5, FabricatedThreshold: 0.3}, inference.Empty())
	claim := types.Claim{ID: "1", Text: "The GDP grew 8 percent", Type: types.ClaimFactual}
	grades, _ := e.GradeClaims(context.Background(), []types.Claim{claim}, nil)
	if grades[0].Grade != types.GradeFabricated {
		t.Fatalf("expected FABRICATED with no evidence, got %s", grades[0].Grade)
	}
}

func TestGroundingScoreInvariant(t *testing.T) {
	grades := []types.ClaimGrade{
		{Grade: types.GradeGrounded, Similarity: 0.9},
		{Grade: types.GradeInferred, Similarity: 0.4},
		{Grade: types.GradeFabricated, Similarity: 0.1},
	}
	report := CalculateGroundingScore(grades, map[string]float64{"GROUNDED": 1.0, "INFERRED": 0.5, "FABRICATED": 0.0})
	if report.GroundedCount+report.InferredCount+report.FabricatedCount != report.TotalClaims {
		t.Fatal("grade counts must sum to total claims")
	}
	if report.Score < 0 || report.Score > 1 {
		t.Fatalf("score must be in [0,1], got %f", report.Score)
	}
}

func TestJaccardFallbackFindsTextualOverlap(t *testing.T) {
	e := NewEngine(Config{GroundedThreshold: 0.3, FabricatedThreshold: 0.1}, inference.Empty())
	claim := types.Claim{ID: "1", Text: "the eurozone gdp grew", Type: types.ClaimFactual}
	evidence := []types.Origin{{ID: "o1", Content: "the eurozone gdp grew slowly in 2024"}}
	grades, _ := e.GradeClaims(context.Background(), []types.Claim{claim}, evidence)
	if grades[0].Grade == types.GradeFabricated {
		t.Fatalf("expected overlapping text to avoid FABRICATED, got similarity %f", grades[0].Similarity)
	}
}

package load

import (
	"context"
	"math"
	"strings"

	"github.com/azzindani/cogkernel/internal/inference"
)

// DriftResult is the Goal drift detector's verdict.
type DriftResult struct {
	Drift     float64 // 1 - similarity
	Drifting  bool
	UsedLexicalFallback bool
}

// DetectGoalDrift compares the objective against the mean of recent
// outputs, preferring an embedder and falling back to lexical overlap
// when none is available — the spec mandates the lexical fallback over
// treating an absent embedder as a no-op.
func DetectGoalDrift(ctx context.Context, kit inference.Kit, objective string, recentOutputs []string, threshold float64) DriftResult {
	if len(recentOutputs) == 0 {
		return DriftResult{}
	}

	if kit.HasEmbedder() {
		objVec, err := kit.Embedder.Embed(ctx, objective)
		if err == nil {
			mean, ok := meanEmbedding(ctx, kit, recentOutputs)
			if ok {
				sim := cosine(objVec, mean)
				drift := 1 - sim
				return DriftResult{Drift: drift, Drifting: sim < threshold}
			}
		}
	}

	sim := lexicalOverlap(objective, strings.Join(recentOutputs, " "))
	drift := 1 - sim
	return DriftResult{Drift: drift, Drifting: sim < threshold, UsedLexicalFallback: true}
}

func meanEmbedding(ctx context.Context, kit inference.Kit, outputs []string) ([]float64, bool) {
	var sum []float64
	n := 0
	for _, o := range outputs {
		vec, err := kit.Embedder.Embed(ctx, o)
		if err != nil {
			continue
		}
		if sum == nil {
			sum = make([]float64, len(vec))
		}
		for i, v := range vec {
			sum[i] += v
		}
		n++
	}
	if n == 0 {
		return nil, false
	}
	for i := range sum {
		sum[i] /= float64(n)
	}
	return sum, true
}

func cosine(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / math.Sqrt(normA*normB)
}

// lexicalOverlap is a token-Jaccard fallback, matching the fabricated-
// evidence fallback used elsewhere in the kernel when no embedder is
// configured.
func lexicalOverlap(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	intersection := 0
	for t := range setA {
		if _, ok := setB[t]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(s))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

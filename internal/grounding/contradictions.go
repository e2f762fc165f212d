package grounding

import (
	"fmt"
	"strings"

	"github.com/azzindani/cogkernel/internal/types"
)

var negationMarkers = []string{"not", "never", "no longer", "isn't", "doesn't", "cannot", "can't", "won't", "didn't", "don't"}

// contradictionOverlapThreshold is the minimum subject-token overlap two
// FACTUAL claims must share, once negation words are stripped, before a
// polarity mismatch between them counts as a both-sides contradiction.
const contradictionOverlapThreshold = 0.5

// DetectContradictions finds pairs of FACTUAL claims that assert
// opposite things about the same subject: one carries a negation marker
// the other lacks, and the two are otherwise near-identical once that
// marker is stripped out. Grounded on classify's marker-scan idiom in
// claims.go, narrowed from embedding-based entailment (no entailment
// model is wired into inference.Kit) to the same token-overlap fallback
// gradeAgainstEvidence already uses when no embedder is available.
func DetectContradictions(claims []types.Claim) []string {
	var factuals []types.Claim
	for _, c := range claims {
		if c.Type == types.ClaimFactual {
			factuals = append(factuals, c)
		}
	}

	var found []string
	for i := 0; i < len(factuals); i++ {
		for j := i + 1; j < len(factuals); j++ {
			a, b := factuals[i], factuals[j]
			if hasNegation(a.Text) == hasNegation(b.Text) {
				continue
			}
			if jaccardSimilarity(stripNegation(a.Text), stripNegation(b.Text)) >= contradictionOverlapThreshold {
				found = append(found, fmt.Sprintf("%q contradicts %q", a.Text, b.Text))
			}
		}
	}
	return found
}

func hasNegation(sentence string) bool {
	lower := strings.ToLower(sentence)
	for _, m := range negationMarkers {
		if containsWord(lower, m) {
			return true
		}
	}
	return false
}

// stripNegation removes negation markers from sentence so two claims
// that differ only in polarity compare as near-identical subjects under
// jaccardSimilarity.
func stripNegation(sentence string) string {
	lower := strings.ToLower(sentence)
	for _, m := range negationMarkers {
		lower = strings.ReplaceAll(lower, m, "")
	}
	return lower
}

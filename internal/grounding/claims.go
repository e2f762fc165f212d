// Package grounding implements the Hallucination Monitor (spec.md §4.4):
// claim extraction, classification, and grading against evidence.
package grounding

import (
	"strings"

	"github.com/azzindani/cogkernel/internal/types"
	"github.com/google/uuid"
)

var opinionMarkers = []string{"i think", "in my opinion", "i believe"}
var reasoningConnectors = []string{"therefore", "thus", "so", "hence", "because"}

// ExtractClaims splits text on sentence boundaries and classifies each
// sentence per spec.md §4.4's marker rules. Sentences are returned in
// source order.
func ExtractClaims(text string) []types.Claim {
	sentences := splitSentences(text)
	claims := make([]types.Claim, 0, len(sentences))
	for _, s := range sentences {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		claims = append(claims, types.Claim{
			ID:   uuid.NewString(),
			Text: s,
			Type: classify(s),
		})
	}
	return claims
}

func classify(sentence string) types.ClaimType {
	lower := strings.ToLower(sentence)
	for _, m := range opinionMarkers {
		if strings.Contains(lower, m) {
			return types.ClaimOpinion
		}
	}
	for _, c := range reasoningConnectors {
		if containsWord(lower, c) {
			return types.ClaimReasoning
		}
	}
	return types.ClaimFactual
}

// containsWord checks for word as a whole word, not merely a substring, so
// e.g. "sole" does not match the connector "so".
func containsWord(s, word string) bool {
	idx := 0
	for {
		i := strings.Index(s[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		leftOK := start == 0 || !isLetter(s[start-1])
		rightOK := end == len(s) || !isLetter(s[end])
		if leftOK && rightOK {
			return true
		}
		idx = start + 1
		if idx >= len(s) {
			return false
		}
	}
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// splitSentences is a lightweight sentence splitter on '.', '!', '?'
// boundaries. Good enough for claim-level grading; a real deployment
// may swap in an LLM-backed structured extraction when one is available
// (spec.md §4.4: "If an LLM is available, prefer a structured
// extraction that yields the same classification taxonomy").
func splitSentences(text string) []string {
	var out []string
	start := 0
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' {
			out = append(out, text[start:i+1])
			start = i + 1
		}
	}
	if start < len(text) {
		out = append(out, text[start:])
	}
	return out
}

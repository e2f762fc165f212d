// Package perception implements the supplemented T1 perception stage:
// modality detection and SignalTags extraction from a RawInput, ahead of
// Gate-In's complexity classification. Grounded on the Python original's
// kernel/modality, kernel/intent_sentiment_urgency, kernel/entity_recognition,
// kernel/location_and_time, and kernel/classification modules, conflated
// here into one Gate-In perception step since the distilled specification
// treats SignalTags as a single immutable artifact rather than five.
package perception

import (
	"strings"

	"github.com/azzindani/cogkernel/internal/types"
)

// Modality mirrors the original's ModalityType enum.
type Modality string

const (
	ModalityText     Modality = "TEXT"
	ModalityDocument Modality = "DOCUMENT"
	ModalityUnknown  Modality = "UNKNOWN"
)

// DetectModality classifies a RawInput by its populated fields, mirroring
// modality/engine.py's detect_modality dispatch.
func DetectModality(in types.RawInput) Modality {
	switch {
	case in.FileRef != "":
		return ModalityDocument
	case in.Text != "":
		return ModalityText
	default:
		return ModalityUnknown
	}
}

var urgencyMarkers = map[string]types.UrgencyBand{
	"urgent":    types.UrgencyHigh,
	"asap":      types.UrgencyHigh,
	"immediately": types.UrgencyCritical,
	"emergency": types.UrgencyCritical,
	"critical":  types.UrgencyCritical,
	"whenever":  types.UrgencyLow,
	"no rush":   types.UrgencyLow,
}

var domainMarkers = map[string]string{
	"invoice":   "finance",
	"revenue":   "finance",
	"tax":       "finance",
	"diagnosis": "medical",
	"patient":   "medical",
	"contract":  "legal",
	"lawsuit":   "legal",
	"statute":   "legal",
}

// ExtractSignalTags is a lightweight intent/urgency/domain/entity pass
// over the raw text, standing in for an LLM-backed structured extraction
// when no inference kit is configured (the common case for a first-pass
// Gate-In that must stay within its 10s wall-clock budget).
func ExtractSignalTags(in types.RawInput, requiredTools, requiredSkills map[string]struct{}) types.SignalTags {
	tags := types.NewSignalTags()
	lower := strings.ToLower(in.Text)

	tags.Urgency = types.UrgencyNormal
	for marker, band := range urgencyMarkers {
		if strings.Contains(lower, marker) {
			tags.Urgency = band
			break
		}
	}

	tags.Domain = "general"
	for marker, domain := range domainMarkers {
		if strings.Contains(lower, marker) {
			tags.Domain = domain
			break
		}
	}

	tags.PrimaryIntent = inferIntent(lower)
	tags.ContentKeywords = keywordsOf(in.Text)
	if requiredTools != nil {
		tags.RequiredTools = requiredTools
	}
	if requiredSkills != nil {
		tags.RequiredSkills = requiredSkills
	}
	return tags
}

func inferIntent(lower string) string {
	switch {
	case strings.Contains(lower, "?"):
		return "question"
	case strings.HasPrefix(strings.TrimSpace(lower), "summarize") || strings.Contains(lower, "summary"):
		return "summarize"
	case strings.Contains(lower, "compare"):
		return "compare"
	case strings.Contains(lower, "generate") || strings.Contains(lower, "write"):
		return "generate"
	default:
		return "inform"
	}
}

// keywordsOf returns the distinct tokens over 3 characters, a crude
// stand-in for the original's entity-recognition pass.
func keywordsOf(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	seen := make(map[string]struct{}, len(fields))
	var out []string
	for _, f := range fields {
		f = strings.Trim(f, ".,!?;:\"'()")
		if len(f) <= 3 {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

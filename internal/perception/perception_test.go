package perception

import (
	"testing"

	"github.com/azzindani/cogkernel/internal/types"
)

func TestDetectModalityPrefersFileOverText(t *testing.T) {
	in := types.RawInput{Text: "hello", FileRef: "/tmp/a.pdf"}
	if DetectModality(in) != ModalityDocument {
		t.Fatal("expected DOCUMENT when a file ref is present")
	}
}

func TestExtractSignalTagsUrgencyMarker(t *testing.T) {
	in := types.RawInput{Text: "This is an emergency, respond immediately"}
	tags := ExtractSignalTags(in, nil, nil)
	if tags.Urgency != types.UrgencyCritical {
		t.Fatalf("expected CRITICAL urgency, got %s", tags.Urgency)
	}
}

func TestExtractSignalTagsDomainMarker(t *testing.T) {
	in := types.RawInput{Text: "Please review this invoice for Q3 revenue"}
	tags := ExtractSignalTags(in, nil, nil)
	if tags.Domain != "finance" {
		t.Fatalf("expected finance domain, got %s", tags.Domain)
	}
}

func TestExtractSignalTagsDefaultsToGeneral(t *testing.T) {
	in := types.RawInput{Text: "tell me about the weather today"}
	tags := ExtractSignalTags(in, nil, nil)
	if tags.Domain != "general" {
		t.Fatalf("expected general domain, got %s", tags.Domain)
	}
}

package calibration

import (
	"math"
	"testing"
)

func TestCalibratedNeverExceedsGrounding(t *testing.T) {
	s := NewStore()
	cfg := Config{OverconfidenceThreshold: 0.15, EMADecay: 0.1}

	result := s.Calibrate(0.95, 0.4, "finance", cfg)
	if result.Calibrated > 0.4 {
		t.Fatalf("calibrated %f must not exceed grounding 0.4", result.Calibrated)
	}
}

func TestOverconfidenceFlag(t *testing.T) {
	s := NewStore()
	cfg := Config{OverconfidenceThreshold: 0.15, EMADecay: 0.1}

	result := s.Calibrate(0.95, 0.5, "finance", cfg)
	if !result.IsOverconfident {
		t.Fatalf("expected overconfidence when stated 0.95 far exceeds calibrated %f", result.Calibrated)
	}
}

func TestFeedbackConvergesTowardObserved(t *testing.T) {
	s := NewStore()
	cfg := Config{OverconfidenceThreshold: 0.15, EMADecay: 0.1}

	for i := 0; i < 50; i++ {
		s.Feedback(0.9, 0.6, "finance", cfg)
	}
	curve := s.CurveSnapshot("finance")
	got := curve.Bins[binIndex(0.9)].ObservedAccuracy
	if math.Abs(got-0.6) > 0.05 {
		t.Fatalf("expected bin to converge near 0.6, got %f", got)
	}
}

func TestDomainsAreIsolated(t *testing.T) {
	s := NewStore()
	cfg := Config{OverconfidenceThreshold: 0.15, EMADecay: 0.5}
	s.Feedback(0.9, 0.2, "finance", cfg)

	other := s.CurveSnapshot("legal").Bins[binIndex(0.9)].ObservedAccuracy
	finance := s.CurveSnapshot("finance").Bins[binIndex(0.9)].ObservedAccuracy
	if other == finance {
		t.Fatalf("expected independent domain curves, both read %f", other)
	}
}

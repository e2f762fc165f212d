// Package calibration implements the Confidence Calibrator (spec.md
// §4.5): domain-specific calibration curves, EMA feedback learning, and
// overconfidence/underconfidence detection.
//
// The EMA update is grounded on octoreflex's
// internal/escalation/pressure.go Accumulator, with the weighting
// direction corrected to match spec.md's exact formula
// bin_new = (1-alpha)*bin_old + alpha*observed (the teacher's
// accumulator uses alpha as the OLD-value weight; this spec uses alpha
// as the NEW-observation weight, so the multiplication is flipped
// relative to the teacher).
package calibration

import (
	"math"
	"sync"

	"github.com/azzindani/cogkernel/internal/types"
)

// binWidth discretizes stated confidence into ten bins: [0,0.1), [0.1,0.2), ...
const binWidth = 0.1
const numBins = 10

// Curve is a process-scoped, mutex-guarded calibration curve for one
// domain. EMA updates are serialized per domain, per spec.md §5.
type Curve struct {
	mu   sync.Mutex
	data types.CalibrationCurve
}

func newIdentityCurve(domain string) *Curve {
	bins := make([]types.CalibrationBin, numBins)
	for i := range bins {
		lower := float64(i) * binWidth
		bins[i] = types.CalibrationBin{Lower: lower, ObservedAccuracy: lower + binWidth/2, SampleCount: 0}
	}
	return &Curve{data: types.CalibrationCurve{Domain: domain, Bins: bins}}
}

func binIndex(stated float64) int {
	idx := int(stated / binWidth)
	if idx < 0 {
		idx = 0
	}
	if idx >= numBins {
		idx = numBins - 1
	}
	return idx
}

// Map returns the observed accuracy the curve assigns to stated
// confidence s.
func (c *Curve) Map(s float64) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data.Bins[binIndex(s)].ObservedAccuracy
}

// Update applies the EMA feedback rule to the bin nearest `stated`.
func (c *Curve) Update(stated, observed, decay float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := binIndex(stated)
	b := &c.data.Bins[i]
	b.ObservedAccuracy = (1-decay)*b.ObservedAccuracy + decay*observed
	b.SampleCount++
}

func (c *Curve) Snapshot() types.CalibrationCurve {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := types.CalibrationCurve{Domain: c.data.Domain, Bins: append([]types.CalibrationBin(nil), c.data.Bins...)}
	return out
}

// Store is the process-scoped, domain-keyed calibration curve store.
type Store struct {
	mu     sync.RWMutex
	curves map[string]*Curve
}

// NewStore creates an empty calibration store.
func NewStore() *Store {
	return &Store{curves: make(map[string]*Curve)}
}

// curveFor returns the curve for domain, creating a default identity
// curve on first use.
func (s *Store) curveFor(domain string) *Curve {
	s.mu.RLock()
	c, ok := s.curves[domain]
	s.mu.RUnlock()
	if ok {
		return c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.curves[domain]; ok {
		return c
	}
	c = newIdentityCurve(domain)
	s.curves[domain] = c
	return c
}

// Config bundles the Confidence Calibrator's tunables.
type Config struct {
	OverconfidenceThreshold float64
	EMADecay                float64
}

// Calibrate reconciles stated confidence with grounding for domain,
// implementing spec.md §4.5 exactly: calibrated = min(curve(stated),
// grounding); over/underconfidence are symmetric around the threshold.
func (s *Store) Calibrate(stated, grounding float64, domain string, cfg Config) types.CalibratedConfidence {
	curve := s.curveFor(domain)
	c0 := curve.Map(stated)
	calibrated := math.Min(c0, grounding)

	delta := stated - calibrated
	return types.CalibratedConfidence{
		Stated:           stated,
		Calibrated:       calibrated,
		CorrectionFactor: c0,
		IsOverconfident:  delta > cfg.OverconfidenceThreshold,
		IsUnderconfident: -delta > cfg.OverconfidenceThreshold,
	}
}

// Feedback updates the domain curve from an observed accuracy sample.
func (s *Store) Feedback(stated, observedAccuracy float64, domain string, cfg Config) {
	s.curveFor(domain).Update(stated, observedAccuracy, cfg.EMADecay)
}

// CurveSnapshot returns the current curve for domain, for persistence or
// inspection.
func (s *Store) CurveSnapshot(domain string) types.CalibrationCurve {
	return s.curveFor(domain).Snapshot()
}

// LoadCurve installs a previously-persisted curve verbatim, used on
// process startup to restore state from internal/storage.
func (s *Store) LoadCurve(curve types.CalibrationCurve) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.curves[curve.Domain] = &Curve{data: curve}
}

// Domains returns every domain with a live curve, for bulk persistence.
func (s *Store) Domains() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.curves))
	for d := range s.curves {
		out = append(out, d)
	}
	return out
}

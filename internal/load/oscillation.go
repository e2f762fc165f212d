package load

import "github.com/azzindani/cogkernel/internal/types"

// OscillationDetection is the Oscillation detector's verdict.
type OscillationDetection struct {
	IsOscillating bool
	Period        int
}

var candidatePeriods = []int{2, 3, 4}

// DetectOscillation checks, for each candidate period p, whether the
// last 2p decisions form two identical halves. The smallest p wins.
func DetectOscillation(history []types.Decision) OscillationDetection {
	fps := make([]string, len(history))
	for i, d := range history {
		fps[i] = fingerprintDecision(d)
	}

	for _, p := range candidatePeriods {
		if len(fps) < 2*p {
			continue
		}
		tail := fps[len(fps)-2*p:]
		first, second := tail[:p], tail[p:]
		equal := true
		for i := range first {
			if first[i] != second[i] {
				equal = false
				break
			}
		}
		if equal {
			return OscillationDetection{IsOscillating: true, Period: p}
		}
	}
	return OscillationDetection{}
}

// DetectStall reports a stall when a cycle ran more than twice its
// expected duration.
func DetectStall(t types.CycleTelemetry) bool {
	if t.ExpectedWallTime <= 0 {
		return false
	}
	return t.WallTime > 2*t.ExpectedWallTime
}

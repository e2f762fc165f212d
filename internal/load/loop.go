package load

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/azzindani/cogkernel/internal/types"
)

// LoopDetection is the Loop detector's verdict.
type LoopDetection struct {
	IsLooping bool
	Length    int
	Fingerprint string
}

// fingerprintDecision hashes a decision's action and reasoning into the
// 12-char fingerprint spec.md §4.3 uses for repeat counting.
func fingerprintDecision(d types.Decision) string {
	sum := sha256.Sum256([]byte(string(d.Action) + "|" + d.Reasoning))
	return hex.EncodeToString(sum[:])[:12]
}

// DetectLoop reports a loop when any fingerprint in the trailing window
// appears at least repeatThreshold times. Length is the smallest period p
// such that the last p*repeatThreshold decisions are repeatThreshold
// back-to-back repeats of a p-long block — a pure stuck-on-one-decision
// loop reports Length 1. When the repeats are not back-to-back (no such p
// exists), Length is the triggering fingerprint's occurrence count in the
// window.
func DetectLoop(history []types.Decision, window, repeatThreshold int) LoopDetection {
	tail := history
	if len(tail) > window {
		tail = tail[len(tail)-window:]
	}

	fps := make([]string, len(tail))
	counts := make(map[string]int, len(tail))
	for i, d := range tail {
		fp := fingerprintDecision(d)
		fps[i] = fp
		counts[fp]++
	}

	triggered := ""
	for fp, n := range counts {
		if n >= repeatThreshold {
			triggered = fp
			break
		}
	}
	if triggered == "" {
		return LoopDetection{}
	}

	for p := 1; p*repeatThreshold <= len(fps); p++ {
		block := fps[len(fps)-p:]
		if isRepeatingBlock(fps, p, repeatThreshold) && contains(block, triggered) {
			return LoopDetection{IsLooping: true, Length: p, Fingerprint: triggered}
		}
	}
	return LoopDetection{IsLooping: true, Length: counts[triggered], Fingerprint: triggered}
}

func isRepeatingBlock(fps []string, period, repeats int) bool {
	n := period * repeats
	if n > len(fps) {
		return false
	}
	window := fps[len(fps)-n:]
	block := window[len(window)-period:]
	for r := 0; r < repeats; r++ {
		segment := window[r*period : (r+1)*period]
		for i := range block {
			if segment[i] != block[i] {
				return false
			}
		}
	}
	return true
}

func contains(items []string, target string) bool {
	for _, i := range items {
		if i == target {
			return true
		}
	}
	return false
}

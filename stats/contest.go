package stats

import "math"

// ContestFunc converts a raw stat matchup (attacker vs defender, no level
// scaling) into a benefit multiplier in [0,1]. The shape is a tuning knob, so
// callers take the function rather than hard-coding one.
type ContestFunc func(attacker, defender int) float64

// contestMaxDelta is the advantage at which a contest pays out in full.
const contestMaxDelta = 300.0

// SqrtContest is the default contest shape: parity or disadvantage negates
// the benefit entirely; advantage pays out with diminishing returns, full at
// +300.
func SqrtContest(attacker, defender int) float64 {
	delta := float64(attacker - defender)
	if delta <= 0 {
		return 0
	}
	normalized := delta / contestMaxDelta
	if normalized > 1 {
		normalized = 1
	}
	return math.Sqrt(normalized)
}

// LinearContest is an alternative shape kept for balance experiments.
func LinearContest(attacker, defender int) float64 {
	delta := float64(attacker - defender)
	if delta <= 0 {
		return 0
	}
	if delta > contestMaxDelta {
		return 1
	}
	return delta / contestMaxDelta
}

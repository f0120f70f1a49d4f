package stats

// AttributeID enumerates the six derived attributes produced by the three
// bipolar investment pairs.
type AttributeID uint8

const (
	Might AttributeID = iota
	Grace
	Vitality
	Focus
	Instinct
	Presence

	AttributeCount
)

// Pair identifies one bipolar investment pair. The negative axis side maps to
// the first attribute of the pair, the positive side to the second.
type Pair uint8

const (
	PairMightGrace Pair = iota
	PairVitalityFocus
	PairInstinctPresence

	PairCount
)

const (
	axisScale     = 10 // one axis level buys 10 points of reach on its side
	spectrumScale = 7  // one spectrum level buys 7 points of reach on both sides
)

// Investment stores raw invested levels for one pair. Axis is signed
// (negative = left attribute, positive = right), Spectrum is flexibility
// shared by both sides, Shift is the tactical slider within ±Spectrum.
type Investment struct {
	Axis     int8
	Spectrum int8
	Shift    int8
}

// Attributes is the per-entity raw investment record. It is immutable during
// combat; only level-up, respec, and shift adjustments mutate it.
type Attributes struct {
	pairs [PairCount]Investment
}

// New builds an attribute record, clamping each spectrum to non-negative and
// each shift into its spectrum range.
func New(mightGrace, vitalityFocus, instinctPresence Investment) Attributes {
	var a Attributes
	a.pairs[PairMightGrace] = sanitize(mightGrace)
	a.pairs[PairVitalityFocus] = sanitize(vitalityFocus)
	a.pairs[PairInstinctPresence] = sanitize(instinctPresence)
	return a
}

func sanitize(inv Investment) Investment {
	if inv.Spectrum < 0 {
		inv.Spectrum = 0
	}
	if inv.Shift > inv.Spectrum {
		inv.Shift = inv.Spectrum
	}
	if inv.Shift < -inv.Spectrum {
		inv.Shift = -inv.Spectrum
	}
	return inv
}

// Pair returns the raw investment for one pair.
func (a Attributes) Pair(p Pair) Investment {
	if p >= PairCount {
		return Investment{}
	}
	return a.pairs[p]
}

// SetShift adjusts the tactical slider for a pair, clamped to ±spectrum.
func (a *Attributes) SetShift(p Pair, shift int8) {
	if a == nil || p >= PairCount {
		return
	}
	inv := a.pairs[p]
	inv.Shift = shift
	a.pairs[p] = sanitize(inv)
}

func pairFor(id AttributeID) (Pair, bool) {
	switch id {
	case Might, Grace:
		return PairMightGrace, id == Grace
	case Vitality, Focus:
		return PairVitalityFocus, id == Focus
	case Instinct, Presence:
		return PairInstinctPresence, id == Presence
	default:
		return PairCount, false
	}
}

// Value returns the current derived value for an attribute: the axis reach on
// the invested side plus spectrum reach, slid by the shift. Never negative.
func (a Attributes) Value(id AttributeID) int {
	pair, positiveSide := pairFor(id)
	if pair >= PairCount {
		return 0
	}
	inv := a.pairs[pair]
	spectrum := int(inv.Spectrum) * spectrumScale
	shift := int(inv.Shift) * spectrumScale

	var value int
	if positiveSide {
		value = spectrum + shift
		if inv.Axis >= 0 {
			value += int(inv.Axis) * axisScale
		}
	} else {
		value = spectrum - shift
		if inv.Axis <= 0 {
			value += int(-inv.Axis) * axisScale
		}
	}
	if value < 0 {
		return 0
	}
	return value
}

// Reach returns the maximum value an attribute could take with the shift slid
// fully toward it.
func (a Attributes) Reach(id AttributeID) int {
	pair, positiveSide := pairFor(id)
	if pair >= PairCount {
		return 0
	}
	inv := a.pairs[pair]
	reach := int(inv.Spectrum) * spectrumScale
	if positiveSide && inv.Axis >= 0 {
		reach += int(inv.Axis) * axisScale
	}
	if !positiveSide && inv.Axis <= 0 {
		reach += int(-inv.Axis) * axisScale
	}
	return reach
}

// TotalLevel counts invested points: |axis| + spectrum per pair. Shift is a
// free slider and never counts.
func (a Attributes) TotalLevel() int {
	total := 0
	for _, inv := range a.pairs {
		axis := int(inv.Axis)
		if axis < 0 {
			axis = -axis
		}
		total += axis + int(inv.Spectrum)
	}
	return total
}

// TotalBudget sums all six derived values. It is the denominator for
// commitment-tier percentages, distinct from TotalLevel.
func (a Attributes) TotalBudget() int {
	total := 0
	for id := AttributeID(0); id < AttributeCount; id++ {
		total += a.Value(id)
	}
	return total
}

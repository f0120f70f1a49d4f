package stats

import (
	"math"
	"testing"
	"time"
)

func TestValueDerivation(t *testing.T) {
	a := New(
		Investment{Axis: 3, Spectrum: 2, Shift: 0},
		Investment{},
		Investment{},
	)
	// Axis 3 on the Grace side: 30 reach, plus spectrum 2: 14 on both sides.
	if got := a.Value(Grace); got != 44 {
		t.Fatalf("grace = %d, want 44", got)
	}
	if got := a.Value(Might); got != 14 {
		t.Fatalf("might = %d, want 14", got)
	}
}

func TestValueWithShift(t *testing.T) {
	a := New(
		Investment{Axis: -2, Spectrum: 3, Shift: -3},
		Investment{},
		Investment{},
	)
	// Axis -2 favors Might (20), spectrum 3 gives 21 each side, shift fully
	// toward Might moves 21 from Grace to Might.
	if got := a.Value(Might); got != 62 {
		t.Fatalf("might = %d, want 62", got)
	}
	if got := a.Value(Grace); got != 0 {
		t.Fatalf("grace = %d, want 0", got)
	}
}

func TestValueNeverNegative(t *testing.T) {
	a := New(
		Investment{Axis: 5, Spectrum: 1, Shift: 1},
		Investment{},
		Investment{},
	)
	if got := a.Value(Might); got != 0 {
		t.Fatalf("might floored = %d, want 0", got)
	}
}

func TestSetShiftClampsToSpectrum(t *testing.T) {
	a := New(Investment{Axis: 1, Spectrum: 2}, Investment{}, Investment{})
	a.SetShift(PairMightGrace, 5)
	if got := a.Pair(PairMightGrace).Shift; got != 2 {
		t.Fatalf("shift clamped high = %d, want 2", got)
	}
	a.SetShift(PairMightGrace, -5)
	if got := a.Pair(PairMightGrace).Shift; got != -2 {
		t.Fatalf("shift clamped low = %d, want -2", got)
	}
}

func TestShiftNeverExceedsReach(t *testing.T) {
	a := New(Investment{Axis: 2, Spectrum: 3}, Investment{}, Investment{})
	a.SetShift(PairMightGrace, 3)
	if got, reach := a.Value(Grace), a.Reach(Grace); got != reach {
		t.Fatalf("grace at full shift = %d, reach = %d", got, reach)
	}
	a.SetShift(PairMightGrace, -3)
	if got, reach := a.Value(Might), a.Reach(Might); got != reach {
		t.Fatalf("might at full shift = %d, reach = %d", got, reach)
	}
}

func TestTotalLevelIgnoresShift(t *testing.T) {
	a := New(
		Investment{Axis: -4, Spectrum: 2, Shift: 1},
		Investment{Axis: 3, Spectrum: 0},
		Investment{},
	)
	if got := a.TotalLevel(); got != 9 {
		t.Fatalf("total level = %d, want 9", got)
	}
	a.SetShift(PairMightGrace, -2)
	if got := a.TotalLevel(); got != 9 {
		t.Fatalf("total level after shift = %d, want 9", got)
	}
}

func TestTierBoundaries(t *testing.T) {
	cases := []struct {
		derived int
		budget  int
		want    CommitmentTier
	}{
		{0, 0, T0},
		{29, 100, T0},
		{30, 100, T1},
		{44, 100, T1},
		{45, 100, T2},
		{59, 100, T2},
		{60, 100, T3},
		{100, 100, T3},
	}
	for _, tc := range cases {
		if got := TierFor(tc.derived, tc.budget); got != tc.want {
			t.Fatalf("TierFor(%d, %d) = %d, want %d", tc.derived, tc.budget, got, tc.want)
		}
	}
}

func TestWindowSizePerTier(t *testing.T) {
	wants := map[CommitmentTier]int{T0: 1, T1: 2, T2: 3, T3: 4}
	for tier, want := range wants {
		a := attributesWithTier(t, Focus, tier)
		if got := a.WindowSize(); got != want {
			t.Fatalf("tier %d window = %d, want %d", tier, got, want)
		}
	}
}

func TestCadencePerTier(t *testing.T) {
	wants := map[CommitmentTier]time.Duration{
		T0: 3000 * time.Millisecond,
		T1: 2500 * time.Millisecond,
		T2: 2000 * time.Millisecond,
		T3: 1500 * time.Millisecond,
	}
	for tier, want := range wants {
		a := attributesWithTier(t, Presence, tier)
		if got := a.CadenceInterval(); got != want {
			t.Fatalf("tier %d cadence = %v, want %v", tier, got, want)
		}
	}
}

func TestEvasionPerTier(t *testing.T) {
	wants := map[CommitmentTier]float64{T0: 0, T1: 0.10, T2: 0.20, T3: 0.30}
	for tier, want := range wants {
		a := attributesWithTier(t, Grace, tier)
		if got := a.EvasionChance(); got != want {
			t.Fatalf("tier %d evasion = %v, want %v", tier, got, want)
		}
	}
}

// attributesWithTier builds a record whose commitment tier for id matches the
// requested bracket, keeping the other pairs as budget ballast.
func attributesWithTier(t *testing.T, id AttributeID, tier CommitmentTier) Attributes {
	t.Helper()
	pair, positive := pairFor(id)
	axis := int8(0)
	switch tier {
	case T0:
		axis = 1
	case T1:
		axis = 4
	case T2:
		axis = 7
	case T3:
		axis = 20
	}
	if !positive {
		axis = -axis
	}
	var invs [PairCount]Investment
	invs[pair] = Investment{Axis: axis}
	for p := Pair(0); p < PairCount; p++ {
		if p != pair {
			invs[p] = Investment{Axis: 3}
		}
	}
	a := New(invs[0], invs[1], invs[2])
	if got := a.Tier(id); got != tier {
		t.Fatalf("fixture tier = %d, want %d (value %d of budget %d)",
			got, tier, a.Value(id), a.TotalBudget())
	}
	return a
}

func TestLevelMultiplierIdentityAtZero(t *testing.T) {
	if got := LevelMultiplier(0, 0.15, 2.0); got != 1 {
		t.Fatalf("level 0 multiplier = %v, want 1", got)
	}
	if got := LevelMultiplier(-3, 0.10, 1.5); got != 1 {
		t.Fatalf("negative level multiplier = %v, want 1", got)
	}
}

func TestLevelMultiplierMonotonic(t *testing.T) {
	prev := 0.0
	for level := 0; level <= 60; level++ {
		got := LevelMultiplier(level, 0.10, 1.5)
		if got <= prev {
			t.Fatalf("multiplier not increasing at level %d: %v <= %v", level, got, prev)
		}
		prev = got
	}
}

func TestLevelMultiplierSuperLinear(t *testing.T) {
	// Doubling the level should more than double the growth over baseline.
	g10 := LevelMultiplier(10, 0.15, 2.0) - 1
	g20 := LevelMultiplier(20, 0.15, 2.0) - 1
	if g20 <= 2*g10 {
		t.Fatalf("growth not super-linear: g20 %v <= 2*g10 %v", g20, 2*g10)
	}
}

func TestReactionCurveStaysBelowHPCurve(t *testing.T) {
	var zero Attributes
	if got := zero.ReactionLevelMultiplier(); got != 1 {
		t.Fatalf("level 0 reaction multiplier = %v, want 1", got)
	}
	// Reaction speed grows more gently than survivability at every level, so
	// outleveled defenders never react their way past the HP gap.
	for axis := 1; axis <= 25; axis++ {
		a := New(Investment{Axis: int8(axis)}, Investment{Axis: int8(axis)}, Investment{})
		if a.ReactionLevelMultiplier() >= a.HPLevelMultiplier() {
			t.Fatalf("reaction curve overtakes hp curve at level %d: %v >= %v",
				a.TotalLevel(), a.ReactionLevelMultiplier(), a.HPLevelMultiplier())
		}
	}
}

func TestContestZeroAtParityAndBelow(t *testing.T) {
	if got := SqrtContest(50, 50); got != 0 {
		t.Fatalf("parity contest = %v, want 0", got)
	}
	if got := SqrtContest(10, 200); got != 0 {
		t.Fatalf("disadvantage contest = %v, want 0", got)
	}
}

func TestContestMonotonicAndCapped(t *testing.T) {
	prev := -1.0
	for delta := 0; delta <= 400; delta += 25 {
		got := SqrtContest(delta, 0)
		if got < prev {
			t.Fatalf("contest decreasing at delta %d: %v < %v", delta, got, prev)
		}
		if got > 1 {
			t.Fatalf("contest exceeds cap at delta %d: %v", delta, got)
		}
		prev = got
	}
	if got := SqrtContest(300, 0); got != 1 {
		t.Fatalf("contest at full delta = %v, want 1", got)
	}
	if got := SqrtContest(600, 0); got != 1 {
		t.Fatalf("contest past full delta = %v, want 1", got)
	}
}

func TestContestDiminishingReturns(t *testing.T) {
	// The first half of the delta range buys more than the second half.
	firstHalf := SqrtContest(150, 0)
	secondHalf := SqrtContest(300, 0) - firstHalf
	if firstHalf <= secondHalf {
		t.Fatalf("no diminishing returns: first %v <= second %v", firstHalf, secondHalf)
	}
}

func TestResourcePools(t *testing.T) {
	var zero Attributes
	if got := zero.MaxHealth(); got != 100 {
		t.Fatalf("baseline health = %v, want 100", got)
	}
	if got := zero.MaxStamina(); got != 100 {
		t.Fatalf("baseline stamina = %v, want 100", got)
	}
	if got := zero.MaxMana(); got != 100 {
		t.Fatalf("baseline mana = %v, want 100", got)
	}

	a := New(
		Investment{Axis: -3}, // might 30
		Investment{Axis: -2}, // vitality 20
		Investment{Axis: 4},  // presence 40
	)
	if got, want := a.MaxStamina(), 100+30+0.3*20; math.Abs(got-want) > 1e-9 {
		t.Fatalf("stamina = %v, want %v", got, want)
	}
	if got, want := a.MaxMana(), 100+0.3*40; math.Abs(got-want) > 1e-9 {
		t.Fatalf("mana = %v, want %v", got, want)
	}
	linear := 100 + 3.8*20
	if got, want := a.MaxHealth(), linear*a.HPLevelMultiplier(); math.Abs(got-want) > 1e-9 {
		t.Fatalf("health = %v, want %v", got, want)
	}
}

func TestMitigationCap(t *testing.T) {
	// Overwhelming defense still leaves the 25% damage floor.
	if got := Mitigation(10000, 0, SqrtContest); got != MaxMitigation {
		t.Fatalf("mitigation = %v, want cap %v", got, MaxMitigation)
	}
	if got := Mitigation(100, 500, SqrtContest); got != 0 {
		t.Fatalf("outmatched mitigation = %v, want 0", got)
	}
}

func TestMitigationHalfScenario(t *testing.T) {
	// 165 defense fully contested yields exactly 50% reduction.
	got := Mitigation(165, 0, func(int, int) float64 { return 1 })
	if math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("mitigation = %v, want 0.5", got)
	}
}

func TestPushbackCap(t *testing.T) {
	if got := Pushback(10000, 0, SqrtContest); got != MaxPushback {
		t.Fatalf("pushback = %v, want cap %v", got, MaxPushback)
	}
	if got := Pushback(100, 400, SqrtContest); got != 0 {
		t.Fatalf("contested-out pushback = %v, want 0", got)
	}
}

func TestReactionWindowBounds(t *testing.T) {
	var novice, veteran Attributes
	if got := ReactionWindow(novice, veteran, SqrtContest); got != 3*time.Second {
		t.Fatalf("baseline window = %v, want 3s", got)
	}

	// Extreme gap and instinct together hit the combined bonus cap.
	defender := New(
		Investment{},
		Investment{Axis: 30},
		Investment{Axis: -90},
	)
	if got := ReactionWindow(defender, veteran, SqrtContest); got != 10*time.Second {
		t.Fatalf("capped window = %v, want 10s", got)
	}
}

func TestGapBonusOnlyWhenOutleveled(t *testing.T) {
	if got := GapBonus(10, 40); got != 0 {
		t.Fatalf("higher-level defender bonus = %v, want 0", got)
	}
	if got := GapBonus(40, 10); got <= 0 {
		t.Fatalf("outleveled defender bonus = %v, want > 0", got)
	}
	// Squared growth: doubling the gap more than doubles the bonus.
	g25 := GapBonus(25, 0)
	g50 := GapBonus(50, 0)
	if g50 <= 2*g25 {
		t.Fatalf("gap bonus not super-linear: %v <= %v", g50, 2*g25)
	}
	if g50 != 6*time.Second {
		t.Fatalf("full gap bonus = %v, want 6s", g50)
	}
}

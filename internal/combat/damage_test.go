package combat

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"emberhex/server/stats"
)

func fullContest(int, int) float64 { return 1 }

func TestNewThreatFreezesAttackerScaling(t *testing.T) {
	attacker := stats.New(
		stats.Investment{Axis: -6}, // might 60
		stats.Investment{},
		stats.Investment{Axis: 2}, // presence 20
	)
	var defender stats.Attributes

	threat := NewThreat(uuid.New(), "strike", 20, Physical, attacker, defender, stats.SqrtContest, 0)

	want := 20 * attacker.OffenseScaling(stats.Might)
	if math.Abs(threat.Damage-want) > 1e-9 {
		t.Fatalf("outgoing = %v, want %v", threat.Damage, want)
	}
	if threat.Pressure != attacker.Value(stats.Presence) {
		t.Fatalf("pressure = %d, want %d", threat.Pressure, attacker.Value(stats.Presence))
	}
	if threat.Duration < 3*time.Second || threat.Duration > 10*time.Second {
		t.Fatalf("timer = %v, outside 3s..10s", threat.Duration)
	}

	// Buffing the attacker after insert must not touch the frozen threat.
	attacker.SetShift(stats.PairMightGrace, -3)
	if math.Abs(threat.Damage-want) > 1e-9 {
		t.Fatalf("outgoing changed after attacker mutation: %v", threat.Damage)
	}
}

func TestResolveThreatHalfMitigation(t *testing.T) {
	// 30 outgoing against 165 toughness at full contest reduces to 15.
	threat := QueuedThreat{Damage: 30, Kind: Physical}
	m := stats.Mitigation(165, threat.Pressure, fullContest)
	final := threat.Damage * (1 - m)
	if math.Abs(final-15) > 1e-9 {
		t.Fatalf("final = %v, want 15", final)
	}
}

func TestResolveThreatUsesResolutionTimeDefense(t *testing.T) {
	attacker := stats.New(stats.Investment{Axis: -3}, stats.Investment{}, stats.Investment{})
	defender := stats.New(stats.Investment{}, stats.Investment{Axis: -10, Spectrum: 3, Shift: -3}, stats.Investment{})

	threat := NewThreat(uuid.New(), "strike", 20, Physical, attacker, defender, stats.SqrtContest, 0)
	before := ResolveThreat(threat, defender, fullContest)

	// Shifting defense away before resolution raises the final damage.
	weakened := stats.New(stats.Investment{}, stats.Investment{Axis: -10, Spectrum: 3, Shift: 3}, stats.Investment{})
	after := ResolveThreat(threat, weakened, fullContest)
	if after <= before {
		t.Fatalf("resolution ignored defender change: before %v, after %v", before, after)
	}
}

func TestResolveThreatDamageFloor(t *testing.T) {
	threat := QueuedThreat{Damage: 100, Kind: Physical}
	// Absurd toughness still lands a quarter of the outgoing damage.
	final := ResolveThreat(threat, stats.New(
		stats.Investment{},
		stats.Investment{Axis: -120},
		stats.Investment{},
	), fullContest)
	if math.Abs(final-25) > 1e-9 {
		t.Fatalf("final = %v, want floor 25", final)
	}
}

func TestMagicThreatMitigatedByFocus(t *testing.T) {
	threat := QueuedThreat{Damage: 40, Kind: Magic}
	focused := stats.New(stats.Investment{}, stats.Investment{Axis: 10}, stats.Investment{})
	var mundane stats.Attributes

	if f := ResolveThreat(threat, focused, fullContest); f >= ResolveThreat(threat, mundane, fullContest) {
		t.Fatal("focus did not mitigate magic damage")
	}
}

func TestEvaded(t *testing.T) {
	var plain stats.Attributes
	if Evaded(plain, 0.0) {
		t.Fatal("zero-grace actor evaded")
	}
	nimble := stats.New(stats.Investment{Axis: 20}, stats.Investment{Axis: -1}, stats.Investment{Axis: 1})
	if nimble.EvasionChance() == 0 {
		t.Fatalf("fixture has no evasion (grace %d of %d)", nimble.Value(stats.Grace), nimble.TotalBudget())
	}
	if !Evaded(nimble, 0.0) {
		t.Fatal("roll below chance did not evade")
	}
	if Evaded(nimble, 0.99) {
		t.Fatal("roll above chance evaded")
	}
}

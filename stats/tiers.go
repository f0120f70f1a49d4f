package stats

import "time"

// CommitmentTier is the discrete identity bracket derived from the share of
// the total budget invested in one attribute. Thresholds force hard build
// choices: T3+T1 (90%) or dual T2 (90%) fit, T3+T2 (105%) cannot.
type CommitmentTier uint8

const (
	// T0 — no commitment identity, baseline only (<30% of budget).
	T0 CommitmentTier = iota
	// T1 — identity unlocked (≥30%).
	T1
	// T2 — identity deepened (≥45%).
	T2
	// T3 — identity defining (≥60%).
	T3
)

// TierFor computes the commitment tier from a derived value and a total
// budget. Pure: it does not care which attribute produced the value.
func TierFor(derived, totalBudget int) CommitmentTier {
	if totalBudget <= 0 {
		return T0
	}
	pct := float64(derived) / float64(totalBudget) * 100
	switch {
	case pct >= 60:
		return T3
	case pct >= 45:
		return T2
	case pct >= 30:
		return T1
	default:
		return T0
	}
}

// Tier returns the commitment tier for one of this entity's attributes.
func (a Attributes) Tier(id AttributeID) CommitmentTier {
	return TierFor(a.Value(id), a.TotalBudget())
}

// WindowSize is the reaction-queue visibility window from the Focus tier.
// Entries beyond it still resolve but cannot be targeted by reactions.
func (a Attributes) WindowSize() int {
	switch a.Tier(Focus) {
	case T3:
		return 4
	case T2:
		return 3
	case T1:
		return 2
	default:
		return 1
	}
}

// CadenceInterval is the passive attack period from the Presence tier.
func (a Attributes) CadenceInterval() time.Duration {
	switch a.Tier(Presence) {
	case T3:
		return 1500 * time.Millisecond
	case T2:
		return 2000 * time.Millisecond
	case T1:
		return 2500 * time.Millisecond
	default:
		return 3000 * time.Millisecond
	}
}

// EvasionChance is the probability an incoming threat is negated outright
// before it queues, from the Grace tier.
func (a Attributes) EvasionChance() float64 {
	switch a.Tier(Grace) {
	case T3:
		return 0.30
	case T2:
		return 0.20
	case T1:
		return 0.10
	default:
		return 0
	}
}

package combat

import (
	"time"

	"github.com/google/uuid"

	"emberhex/server/stats"
)

// NewThreat runs damage phase 1: the ability's base damage is scaled by the
// attacker's offensive stat and level curve exactly once, at attack time.
// Everything about the attacker is frozen into the threat; later buffs,
// deaths, or respecs on the attacker cannot change it.
func NewThreat(source uuid.UUID, ability string, baseDamage float64, kind DamageKind, attacker, defender stats.Attributes, contest stats.ContestFunc, now time.Duration) QueuedThreat {
	return QueuedThreat{
		ID:         uuid.New(),
		Source:     source,
		Ability:    ability,
		Damage:     baseDamage * attacker.OffenseScaling(offenseStat(kind)),
		Kind:       kind,
		Pressure:   attacker.Value(stats.Presence),
		Impact:     attacker.Value(stats.Might),
		InsertedAt: now,
		Duration:   stats.ReactionWindow(defender, attacker, contest),
	}
}

// ResolveThreat runs damage phase 2: mitigation from the defender's current
// stats, contested by the pressure frozen at insert. The mitigation cap
// guarantees at least a quarter of the outgoing damage lands.
func ResolveThreat(t QueuedThreat, defender stats.Attributes, contest stats.ContestFunc) float64 {
	m := stats.Mitigation(defender.Value(mitigationStat(t.Kind)), t.Pressure, contest)
	return t.Damage * (1 - m)
}

// Evaded rolls the defender's evasion against a uniform sample in [0,1).
// A successful roll negates the threat before it ever queues.
func Evaded(defender stats.Attributes, roll float64) bool {
	chance := defender.EvasionChance()
	return chance > 0 && roll < chance
}

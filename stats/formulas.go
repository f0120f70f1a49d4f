package stats

import (
	"math"
	"time"
)

const (
	baseHealthFlat       = 100.0
	vitalityHealthScalar = 3.8

	baseStaminaFlat       = 100.0
	mightStaminaScalar    = 1.0
	vitalityStaminaScalar = 0.3

	baseManaFlat       = 100.0
	focusManaScalar    = 0.5
	presenceManaScalar = 0.3

	staminaRegenPerSecond = 10.0
	manaRegenPerSecond    = 8.0

	// MaxMitigation guarantees a damage floor: mitigation never exceeds 75%.
	MaxMitigation     = 0.75
	mitigationDivisor = 330.0

	// MaxPushback caps how much of a recovery's duration a single hit can add.
	MaxPushback     = 0.50
	pushbackDivisor = 600.0

	baseForceFlat   = 20.0
	mightForceScale = 0.5

	offenseScaleDivisor  = 300.0
	recoverySpeedDivisor = 600.0
)

const (
	baseReactionWindow = 3 * time.Second
	maxCombinedBonus   = 7 * time.Second
	gapNormalizer      = 50.0
	gapBonusCeiling    = 6.0 // seconds at a full 50-level gap
	msPerInstinct      = 10.0
)

// LevelMultiplier is the super-linear progression curve (1 + k·L)^p.
// Level 0 always yields exactly 1.
func LevelMultiplier(level int, k, p float64) float64 {
	if level <= 0 {
		return 1
	}
	return math.Pow(1+float64(level)*k, p)
}

// HPLevelMultiplier scales survivability moderately so equal-level foes stay
// dangerous.
func (a Attributes) HPLevelMultiplier() float64 {
	return LevelMultiplier(a.TotalLevel(), 0.10, 1.5)
}

// DamageLevelMultiplier scales offense aggressively.
func (a Attributes) DamageLevelMultiplier() float64 {
	return LevelMultiplier(a.TotalLevel(), 0.15, 2.0)
}

// ReactionLevelMultiplier scales reaction stats gently, bounded by human
// reaction limits.
func (a Attributes) ReactionLevelMultiplier() float64 {
	return LevelMultiplier(a.TotalLevel(), 0.10, 1.2)
}

// MaxHealth derives the health pool from current vitality and the HP
// progression curve. Uses Value (not Reach) so health responds to shift drag.
func (a Attributes) MaxHealth() float64 {
	linear := baseHealthFlat + float64(a.Value(Vitality))*vitalityHealthScalar
	return linear * a.HPLevelMultiplier()
}

// MaxStamina derives the stamina pool from might and vitality.
func (a Attributes) MaxStamina() float64 {
	return baseStaminaFlat +
		float64(a.Value(Might))*mightStaminaScalar +
		float64(a.Value(Vitality))*vitalityStaminaScalar
}

// MaxMana derives the mana pool from focus and presence.
func (a Attributes) MaxMana() float64 {
	return baseManaFlat +
		float64(a.Value(Focus))*focusManaScalar +
		float64(a.Value(Presence))*presenceManaScalar
}

// StaminaRegenRate is flat for now; kept as a method so balancing can hang
// attribute scaling on it without touching callers.
func (a Attributes) StaminaRegenRate() float64 { return staminaRegenPerSecond }

// ManaRegenRate is flat for now.
func (a Attributes) ManaRegenRate() float64 { return manaRegenPerSecond }

// Force is the offensive meta-stat abilities quote their base damage against.
func (a Attributes) Force() float64 {
	return (baseForceFlat + float64(a.Value(Might))*mightForceScale) * a.DamageLevelMultiplier()
}

// OffenseScaling is the phase-1 multiplier applied to an ability's base
// damage, evaluated once at attack time. Physical keys off might, magic off
// focus; both ride the damage progression curve.
func (a Attributes) OffenseScaling(stat AttributeID) float64 {
	return (1 + float64(a.Value(stat))/offenseScaleDivisor) * a.DamageLevelMultiplier()
}

// Mitigation is the phase-2 damage reduction, evaluated at resolution time
// against the defender's current stats. The benefit is contested against the
// attacker's pressure stat captured at insertion, and capped so a damage
// floor always survives.
func Mitigation(defenderStat, attackerPressure int, contest ContestFunc) float64 {
	if contest == nil {
		contest = SqrtContest
	}
	base := float64(defenderStat) / mitigationDivisor
	contested := base * contest(defenderStat, attackerPressure)
	if contested > MaxMitigation {
		return MaxMitigation
	}
	return contested
}

// Pushback converts an attacker's impact stat, contested by the defender's
// composure, into the fraction of a recovery's duration added by a landing
// hit. Capped at 50% per hit.
func Pushback(attackerImpact, defenderComposure int, contest ContestFunc) float64 {
	if contest == nil {
		contest = SqrtContest
	}
	base := float64(attackerImpact) / pushbackDivisor
	contested := base * contest(attackerImpact, defenderComposure)
	if contested > MaxPushback {
		return MaxPushback
	}
	return contested
}

// RecoverySpeed is the drain multiplier on lockout timers. Grace shortens
// recoveries; 600 grace would halve them.
func (a Attributes) RecoverySpeed() float64 {
	return 1 + float64(a.Value(Grace))/recoverySpeedDivisor
}

// GapBonus extends the defender's reaction window when outleveled. Squared
// normalization gives fast growth that slows; no penalty when the defender
// outlevels the attacker.
func GapBonus(defenderLevel, attackerLevel int) time.Duration {
	gap := defenderLevel - attackerLevel
	if gap <= 0 {
		return 0
	}
	normalized := float64(gap) / gapNormalizer
	if normalized > 1 {
		normalized = 1
	}
	seconds := normalized * normalized * gapBonusCeiling
	return time.Duration(seconds * float64(time.Second))
}

// InstinctBonus extends the reaction window from the defender's instinct,
// contested by the attacker's grace. Weaker than the level gap on purpose.
func InstinctBonus(defenderInstinct, attackerGrace int, contest ContestFunc) time.Duration {
	if contest == nil {
		contest = SqrtContest
	}
	ms := float64(defenderInstinct) * msPerInstinct * contest(defenderInstinct, attackerGrace)
	return time.Duration(ms * float64(time.Millisecond))
}

// ReactionWindow is the full threat timer: every threat from the same
// attacker against the same defender gets an identical duration regardless of
// ability. Base 3s, bonuses combined-capped at +7s, so the range is 3s–10s.
func ReactionWindow(defender, attacker Attributes, contest ContestFunc) time.Duration {
	bonus := GapBonus(defender.TotalLevel(), attacker.TotalLevel()) +
		InstinctBonus(defender.Value(Instinct), attacker.Value(Grace), contest)
	if bonus > maxCombinedBonus {
		bonus = maxCombinedBonus
	}
	return baseReactionWindow + bonus
}

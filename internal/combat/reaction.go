package combat

import (
	"github.com/google/uuid"

	"emberhex/server/stats"
)

// ReactionKind enumerates the closed set of queue manipulations. There is no
// generic clear-N operation; each kind has fixed semantics and cost.
type ReactionKind uint8

const (
	ReactionCounter ReactionKind = iota
	ReactionDeflect
	ReactionDismiss
)

func (k ReactionKind) String() string {
	switch k {
	case ReactionCounter:
		return "counter"
	case ReactionDeflect:
		return "deflect"
	case ReactionDismiss:
		return "dismiss"
	default:
		return "unknown"
	}
}

// ParseReactionKind maps a wire string to a kind.
func ParseReactionKind(s string) (ReactionKind, bool) {
	switch s {
	case "counter":
		return ReactionCounter, true
	case "deflect":
		return ReactionDeflect, true
	case "dismiss":
		return ReactionDismiss, true
	default:
		return ReactionCounter, false
	}
}

// StaminaCost is the reaction's discrete stamina price. Dismiss is free; its
// cost is paid in unmitigated damage instead.
func (k ReactionKind) StaminaCost() float64 {
	switch k {
	case ReactionCounter:
		return counterStaminaCost
	case ReactionDeflect:
		return deflectStaminaCost
	default:
		return 0
	}
}

// TriggersRecovery reports whether using the reaction locks the actor.
func (k ReactionKind) TriggersRecovery() bool {
	return k == ReactionCounter || k == ReactionDeflect
}

const (
	counterStaminaCost = 30.0
	deflectStaminaCost = 45.0

	counterForceShare  = 0.2
	counterDamageShare = 0.3
	counterReflectCap  = 2.0 // multiples of the reactor's force
)

// Reflection is counter-damage headed back at one attacker. The engine turns
// each into a fresh phase-1 threat on the attacker's own queue.
type Reflection struct {
	Target uuid.UUID
	Damage float64
}

// ReactionOutcome describes what a reaction did to the queue. Dismissed holds
// the single entry that must resolve immediately at full unmitigated damage;
// Cleared entries are simply gone.
type ReactionOutcome struct {
	Kind      ReactionKind
	Cleared   []QueuedThreat
	Dismissed []QueuedThreat
	Reflected []Reflection
}

// ApplyReaction validates and executes a reaction against the actor's own
// queue. The stamina pool must already be advanced to now; the cost is only
// deducted once the queue check passes, so a rejected reaction never spends.
func ApplyReaction(kind ReactionKind, q *ReactionQueue, stamina *Pool, actor stats.Attributes) (ReactionOutcome, error) {
	if q.Len() == 0 {
		return ReactionOutcome{}, ErrEmptyQueue
	}
	if err := stamina.Spend(kind.StaminaCost()); err != nil {
		return ReactionOutcome{}, err
	}

	out := ReactionOutcome{Kind: kind}
	switch kind {
	case ReactionCounter:
		out.Cleared = q.ClearVisible()
		force := actor.Force()
		cap := force * counterReflectCap
		for _, t := range out.Cleared {
			dmg := counterForceShare*force + counterDamageShare*t.Damage
			if dmg > cap {
				dmg = cap
			}
			out.Reflected = append(out.Reflected, Reflection{Target: t.Source, Damage: dmg})
		}
	case ReactionDeflect:
		out.Cleared = q.ClearAll()
	case ReactionDismiss:
		front, err := q.PopFront()
		if err != nil {
			return ReactionOutcome{}, err
		}
		out.Dismissed = []QueuedThreat{front}
	default:
		return ReactionOutcome{}, ErrUnknownAbility
	}
	return out, nil
}

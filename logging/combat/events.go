package combat

import (
	"context"

	"emberhex/server/logging"
)

const (
	// EventThreatQueued is emitted when a threat lands on a reaction queue.
	EventThreatQueued logging.EventType = "combat.threat_queued"
	// EventDamage is emitted when a threat resolves and deals damage.
	EventDamage logging.EventType = "combat.damage"
	// EventReaction is emitted when an actor consumes queue entries with a reaction.
	EventReaction logging.EventType = "combat.reaction"
	// EventDefeat is emitted when an actor's health reaches zero.
	EventDefeat logging.EventType = "combat.defeat"
	// EventRecoveryPushback is emitted when a landing hit extends a recovery.
	EventRecoveryPushback logging.EventType = "combat.recovery_pushback"
	// EventPredictionMismatch is emitted whenever a client prediction is reverted or snapped.
	EventPredictionMismatch logging.EventType = "combat.prediction_mismatch"
)

// ThreatQueuedPayload captures the frozen phase-1 values of a new threat.
type ThreatQueuedPayload struct {
	Ability        string  `json:"ability"`
	Outgoing       float64 `json:"outgoing"`
	Kind           string  `json:"kind"`
	DurationMillis int64   `json:"durationMillis"`
	QueueDepth     int     `json:"queueDepth"`
}

// DamagePayload captures the phase-2 outcome against a single target.
type DamagePayload struct {
	Ability      string  `json:"ability,omitempty"`
	Outgoing     float64 `json:"outgoing"`
	Final        float64 `json:"final"`
	TargetHealth float64 `json:"targetHealth"`
	Dismissed    bool    `json:"dismissed,omitempty"`
}

// ReactionPayload captures what a reaction removed from the queue.
type ReactionPayload struct {
	Reaction  string  `json:"reaction"`
	Cleared   int     `json:"cleared"`
	Reflected float64 `json:"reflected,omitempty"`
}

// DefeatPayload describes the fatal blow.
type DefeatPayload struct {
	Ability string `json:"ability,omitempty"`
}

// RecoveryPushbackPayload captures a lockout extension.
type RecoveryPushbackPayload struct {
	AddedMillis     int64 `json:"addedMillis"`
	RemainingMillis int64 `json:"remainingMillis"`
}

// PredictionMismatchPayload captures a client-side revert or snap.
type PredictionMismatchPayload struct {
	Field     string  `json:"field"`
	Predicted float64 `json:"predicted"`
	Confirmed float64 `json:"confirmed"`
	Reason    string  `json:"reason,omitempty"`
}

// ThreatQueued publishes a threat insertion event.
func ThreatQueued(ctx context.Context, pub logging.Publisher, tick uint64, attacker, defender logging.EntityRef, payload ThreatQueuedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventThreatQueued,
		Tick:     tick,
		Actor:    attacker,
		Targets:  []logging.EntityRef{defender},
		Severity: logging.SeverityDebug,
		Category: logging.CategoryCombat,
		Payload:  payload,
	})
}

// Damage publishes a threat resolution event.
func Damage(ctx context.Context, pub logging.Publisher, tick uint64, attacker, defender logging.EntityRef, payload DamagePayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventDamage,
		Tick:     tick,
		Actor:    attacker,
		Targets:  []logging.EntityRef{defender},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
		Payload:  payload,
	})
}

// Reaction publishes a queue manipulation event.
func Reaction(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload ReactionPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventReaction,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
		Payload:  payload,
	})
}

// Defeat publishes a defeat event for the eliminated actor.
func Defeat(ctx context.Context, pub logging.Publisher, tick uint64, attacker, defeated logging.EntityRef, payload DefeatPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventDefeat,
		Tick:     tick,
		Actor:    attacker,
		Targets:  []logging.EntityRef{defeated},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
		Payload:  payload,
	})
}

// RecoveryPushback publishes a lockout extension event.
func RecoveryPushback(ctx context.Context, pub logging.Publisher, tick uint64, attacker, locked logging.EntityRef, payload RecoveryPushbackPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventRecoveryPushback,
		Tick:     tick,
		Actor:    attacker,
		Targets:  []logging.EntityRef{locked},
		Severity: logging.SeverityDebug,
		Category: logging.CategoryCombat,
		Payload:  payload,
	})
}

// PredictionMismatch publishes a client reconciliation event. These should be
// rare; a sustained rate above one percent of intents indicates drift.
func PredictionMismatch(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload PredictionMismatchPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventPredictionMismatch,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryCombat,
		Payload:  payload,
	})
}

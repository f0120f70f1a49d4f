package combat

import (
	"context"

	"github.com/google/uuid"

	"emberhex/server/logging"
	loggingcombat "emberhex/server/logging/combat"
)

// TelemetryConfig captures the dependencies required to publish combat events
// from inside the engine tick.
type TelemetryConfig struct {
	Publisher    logging.Publisher
	LookupEntity func(id uuid.UUID) logging.EntityRef
	CurrentTick  func() uint64
}

// Telemetry publishes combat events with entity refs resolved through the
// injected lookup. A zero value is safe and publishes nothing.
type Telemetry struct {
	publisher logging.Publisher
	lookup    func(id uuid.UUID) logging.EntityRef
	tick      func() uint64
}

// NewTelemetry wires a telemetry helper. Missing lookups and tick sources
// fall back to zero values rather than fail.
func NewTelemetry(cfg TelemetryConfig) *Telemetry {
	t := &Telemetry{
		publisher: cfg.Publisher,
		lookup:    cfg.LookupEntity,
		tick:      cfg.CurrentTick,
	}
	if t.publisher == nil {
		t.publisher = logging.NopPublisher()
	}
	if t.lookup == nil {
		t.lookup = func(uuid.UUID) logging.EntityRef { return logging.EntityRef{} }
	}
	if t.tick == nil {
		t.tick = func() uint64 { return 0 }
	}
	return t
}

// ThreatQueued records a phase-1 insertion.
func (t *Telemetry) ThreatQueued(threat QueuedThreat, defender uuid.UUID, queueDepth int) {
	if t == nil {
		return
	}
	loggingcombat.ThreatQueued(context.Background(), t.publisher, t.tick(),
		t.lookup(threat.Source), t.lookup(defender),
		loggingcombat.ThreatQueuedPayload{
			Ability:        threat.Ability,
			Outgoing:       threat.Damage,
			Kind:           threat.Kind.String(),
			DurationMillis: threat.Duration.Milliseconds(),
			QueueDepth:     queueDepth,
		})
}

// Damage records a phase-2 resolution against a defender.
func (t *Telemetry) Damage(threat QueuedThreat, defender uuid.UUID, final, targetHealth float64, dismissed bool) {
	if t == nil {
		return
	}
	loggingcombat.Damage(context.Background(), t.publisher, t.tick(),
		t.lookup(threat.Source), t.lookup(defender),
		loggingcombat.DamagePayload{
			Ability:      threat.Ability,
			Outgoing:     threat.Damage,
			Final:        final,
			TargetHealth: targetHealth,
			Dismissed:    dismissed,
		})
}

// Reaction records a queue manipulation by its owner.
func (t *Telemetry) Reaction(actor uuid.UUID, outcome ReactionOutcome) {
	if t == nil {
		return
	}
	reflected := 0.0
	for _, r := range outcome.Reflected {
		reflected += r.Damage
	}
	loggingcombat.Reaction(context.Background(), t.publisher, t.tick(),
		t.lookup(actor),
		loggingcombat.ReactionPayload{
			Reaction:  outcome.Kind.String(),
			Cleared:   len(outcome.Cleared) + len(outcome.Dismissed),
			Reflected: reflected,
		})
}

// Defeat records an actor death.
func (t *Telemetry) Defeat(attacker, defeated uuid.UUID, ability string) {
	if t == nil {
		return
	}
	loggingcombat.Defeat(context.Background(), t.publisher, t.tick(),
		t.lookup(attacker), t.lookup(defeated),
		loggingcombat.DefeatPayload{Ability: ability})
}

// RecoveryPushback records a lockout extension from a landing hit.
func (t *Telemetry) RecoveryPushback(attacker, locked uuid.UUID, added, remaining int64) {
	if t == nil {
		return
	}
	loggingcombat.RecoveryPushback(context.Background(), t.publisher, t.tick(),
		t.lookup(attacker), t.lookup(locked),
		loggingcombat.RecoveryPushbackPayload{
			AddedMillis:     added,
			RemainingMillis: remaining,
		})
}

// Package predict is the client-side speculation mirror. It applies intents
// locally the instant they are issued, tracks them until the server confirms
// or rejects, and reconciles its state against authoritative confirmations.
// The server never runs it; it exists so bots, tests, and the reference client
// share one reconciliation implementation.
package predict

import (
	"context"
	"time"

	"github.com/google/uuid"

	"emberhex/server/abilities/catalog"
	"emberhex/server/internal/combat"
	"emberhex/server/internal/sim"
	"emberhex/server/logging"
	loggingcombat "emberhex/server/logging/combat"
	"emberhex/server/stats"
)

// pendingIntent records everything needed to revert one speculative apply.
type pendingIntent struct {
	seq          uint64
	ability      string
	staminaSpent float64
	manaSpent    float64

	recoveryReplaced bool
	prevRecovery     *combat.GlobalRecovery
	prevUnlocks      []combat.SynergyUnlock

	removedThreats []combat.QueuedThreat
}

// Predictor mirrors one actor's combat state ahead of the server. All methods
// must be called from a single goroutine, the client's frame loop.
type Predictor struct {
	self      uuid.UUID
	attrs     stats.Attributes
	catalog   *catalog.Catalog
	contest   stats.ContestFunc
	publisher logging.Publisher

	Resources combat.Resources
	Queue     combat.ReactionQueue
	Recovery  combat.RecoveryState

	pending []pendingIntent
	now     time.Duration
}

// Config seeds a predictor from the join snapshot.
type Config struct {
	Self      uuid.UUID
	Attrs     stats.Attributes
	Catalog   *catalog.Catalog
	Contest   stats.ContestFunc
	Publisher logging.Publisher
	Now       time.Duration
}

// New builds a predictor with full pools. Callers reconcile real pool values
// from the snapshot immediately after.
func New(cfg Config) (*Predictor, error) {
	cat := cfg.Catalog
	if cat == nil {
		var err error
		cat, err = catalog.Load()
		if err != nil {
			return nil, err
		}
	}
	contest := cfg.Contest
	if contest == nil {
		contest = stats.SqrtContest
	}
	pub := cfg.Publisher
	if pub == nil {
		pub = logging.NopPublisher()
	}
	return &Predictor{
		self:      cfg.Self,
		attrs:     cfg.Attrs,
		catalog:   cat,
		contest:   contest,
		publisher: pub,
		Resources: combat.NewResources(cfg.Attrs, cfg.Now),
		Queue:     combat.NewReactionQueue(cfg.Attrs.WindowSize()),
		now:       cfg.Now,
	}, nil
}

// Advance runs local regeneration up to the shared-clock offset now. Both
// sides run the same pool math, so steady-state regen needs no traffic.
func (p *Predictor) Advance(now time.Duration) {
	dt := now - p.now
	p.now = now
	p.Resources.Advance(now)
	if dt > 0 {
		p.TickRecovery(dt)
	}
}

// TickRecovery drains the predicted lockout by dt.
func (p *Predictor) TickRecovery(dt time.Duration) {
	p.Recovery.Tick(dt, p.attrs.RecoverySpeed())
}

// Pending reports how many intents are still awaiting a server verdict.
func (p *Predictor) Pending() int { return len(p.pending) }

// PredictUseAbility validates and speculatively applies an ability intent.
// A returned error means the intent must not be sent; nothing was mutated.
func (p *Predictor) PredictUseAbility(seq uint64, abilityID string) error {
	ability, ok := p.catalog.Resolve(abilityID)
	if !ok {
		return combat.ErrUnknownAbility
	}
	if !p.Recovery.CanUse(ability.ID) {
		return combat.ErrLocked
	}
	if p.Resources.Stamina.Predicted < ability.StaminaCost ||
		p.Resources.Mana.Predicted < ability.ManaCost {
		return combat.ErrInsufficientResource
	}

	intent := pendingIntent{seq: seq, ability: ability.ID}
	if err := p.Resources.Stamina.SpendPredicted(ability.StaminaCost); err != nil {
		return err
	}
	intent.staminaSpent = ability.StaminaCost
	if err := p.Resources.Mana.SpendPredicted(ability.ManaCost); err != nil {
		p.Resources.Stamina.RefundPredicted(ability.StaminaCost)
		return err
	}
	intent.manaSpent = ability.ManaCost

	p.applyRecovery(&intent, ability)
	p.pending = append(p.pending, intent)
	return nil
}

// PredictUseReaction validates and speculatively applies a reaction intent
// against the local queue mirror.
func (p *Predictor) PredictUseReaction(seq uint64, kind combat.ReactionKind) error {
	if p.Queue.Len() == 0 {
		return combat.ErrEmptyQueue
	}
	if kind.TriggersRecovery() && !p.Recovery.CanUse(kind.String()) {
		return combat.ErrLocked
	}
	cost := kind.StaminaCost()
	if p.Resources.Stamina.Predicted < cost {
		return combat.ErrInsufficientResource
	}

	intent := pendingIntent{seq: seq, ability: kind.String()}
	if err := p.Resources.Stamina.SpendPredicted(cost); err != nil {
		return err
	}
	intent.staminaSpent = cost

	switch kind {
	case combat.ReactionCounter:
		intent.removedThreats = p.Queue.ClearVisible()
	case combat.ReactionDeflect:
		intent.removedThreats = p.Queue.ClearAll()
	case combat.ReactionDismiss:
		front, err := p.Queue.PopFront()
		if err != nil {
			p.Resources.Stamina.RefundPredicted(cost)
			return err
		}
		intent.removedThreats = []combat.QueuedThreat{front}
	}

	if kind.TriggersRecovery() {
		if ability, ok := p.catalog.Resolve(kind.String()); ok {
			p.applyRecovery(&intent, ability)
		}
	}
	p.pending = append(p.pending, intent)
	return nil
}

func (p *Predictor) applyRecovery(intent *pendingIntent, ability catalog.Ability) {
	if ability.Recovery() <= 0 {
		return
	}
	intent.recoveryReplaced = true
	if p.Recovery.Active != nil {
		prev := *p.Recovery.Active
		intent.prevRecovery = &prev
		intent.prevUnlocks = p.Recovery.Unlocks
	}
	unlocks := make([]combat.SynergyUnlock, 0, len(ability.Synergies))
	for _, s := range ability.Synergies {
		unlocks = append(unlocks, combat.SynergyUnlock{
			Ability:     s.Target,
			UnlockAt:    time.Duration(s.UnlockMillis) * time.Millisecond,
			TriggeredBy: ability.ID,
		})
	}
	p.Recovery.Trigger(ability.ID, ability.Recovery(), unlocks)
}

// Ack drops a confirmed intent. The speculative effects stand; authoritative
// values arrive separately as confirmations.
func (p *Predictor) Ack(seq uint64) {
	for i, intent := range p.pending {
		if intent.seq == seq {
			p.pending = append(p.pending[:i], p.pending[i+1:]...)
			return
		}
	}
}

// Reject reverts a failed intent: refunds predicted costs, restores removed
// queue entries at the front, and rolls the predicted recovery back.
func (p *Predictor) Reject(seq uint64, reason string) {
	for i, intent := range p.pending {
		if intent.seq != seq {
			continue
		}
		p.pending = append(p.pending[:i], p.pending[i+1:]...)
		p.Resources.Stamina.RefundPredicted(intent.staminaSpent)
		p.Resources.Mana.RefundPredicted(intent.manaSpent)
		p.Queue.RestoreFront(intent.removedThreats)
		if intent.recoveryReplaced {
			p.Recovery.Active = intent.prevRecovery
			p.Recovery.Unlocks = intent.prevUnlocks
		}
		p.publishMismatch("intent", 0, 0, reason)
		return
	}
}

// Observe folds one broadcast confirmation into the mirror. Confirmations
// about other actors are ignored except threats they queue on us.
func (p *Predictor) Observe(u sim.Update) {
	switch u.Kind {
	case sim.UpdateInsertThreat:
		if t := u.InsertThreat; t != nil && t.Target == p.self {
			kind, _ := combat.ParseDamageKind(t.Kind)
			p.Queue.Insert(combat.QueuedThreat{
				ID:         t.ThreatID,
				Source:     t.Source,
				Ability:    t.Ability,
				Damage:     t.Damage,
				Kind:       kind,
				InsertedAt: time.Duration(t.InsertedAtMillis) * time.Millisecond,
				Duration:   time.Duration(t.DurationMillis) * time.Millisecond,
			})
		}
	case sim.UpdateResolveThreat:
		if r := u.ResolveThreat; r != nil && r.Target == p.self {
			p.Queue.Remove(r.ThreatID)
		}
	case sim.UpdateClearQueue:
		if c := u.ClearQueue; c != nil && c.Target == p.self {
			p.reconcileClear(c)
		}
	case sim.UpdateResourceDelta:
		if d := u.ResourceDelta; d != nil && d.Entity == p.self {
			p.reconcilePool(d)
		}
	case sim.UpdateRecovery:
		if r := u.Recovery; r != nil && r.Entity == p.self {
			p.reconcileRecovery(r)
		}
	case sim.UpdateAbilityFailed:
		if f := u.AbilityFailed; f != nil && f.Entity == p.self && f.Seq > 0 {
			p.Reject(f.Seq, f.Reason)
		}
	case sim.UpdateDespawn:
		if l := u.Lifecycle; l != nil && l.Entity == p.self {
			p.resetOnDeath()
		}
	case sim.UpdateRespawn:
		if l := u.Lifecycle; l != nil && l.Entity == p.self {
			p.Resources.RefillAll()
		}
	}
}

// resetOnDeath mirrors the server's death cleanup: the queue and lockout are
// destroyed with the actor, pools zero, and in-flight intents can never be
// confirmed, so local pre-checks must start from the empty state.
func (p *Predictor) resetOnDeath() {
	p.Queue.ClearAll()
	p.Recovery.Active = nil
	p.Recovery.Unlocks = nil
	p.pending = nil
	p.Resources.Zero()
}

// reconcileClear trusts the authoritative count. A predicted reaction usually
// already emptied the mirror, in which case this is a no-op.
func (p *Predictor) reconcileClear(c *sim.ClearQueueUpdate) {
	for i := 0; i < c.Count && p.Queue.Len() > 0; i++ {
		_, _ = p.Queue.PopFront()
	}
}

func (p *Predictor) reconcilePool(d *sim.ResourceDeltaUpdate) {
	kind, ok := parseResourceKind(d.Resource)
	if !ok {
		return
	}
	pool := p.Resources.Pool(kind)
	pool.SetMax(d.Max)
	predicted := pool.Predicted
	if pool.Reconcile(d.Value) {
		p.publishMismatch(d.Resource, predicted, d.Value, "pool_snap")
	}
}

func (p *Predictor) reconcileRecovery(r *sim.RecoveryUpdate) {
	remaining := time.Duration(r.RemainingMillis) * time.Millisecond
	duration := time.Duration(r.DurationMillis) * time.Millisecond
	if remaining <= 0 {
		p.Recovery.Active = nil
		p.Recovery.Unlocks = nil
		return
	}
	if p.Recovery.Active == nil {
		p.Recovery.Active = &combat.GlobalRecovery{}
	}
	p.Recovery.Active.Remaining = remaining
	p.Recovery.Active.Duration = duration
	p.Recovery.Active.TriggeredBy = r.TriggeredBy
}

// SetShift mutates the local attribute mirror and rescales derived state, the
// client half of a shift intent. Shifts are not speculated per seq; the
// confirmation echoes the same deterministic result.
func (p *Predictor) SetShift(pair stats.Pair, shift int8) {
	p.attrs.SetShift(pair, shift)
	p.Resources.RefreshMax(p.attrs)
	p.Queue.SetWindow(p.attrs.WindowSize())
}

func (p *Predictor) publishMismatch(field string, predicted, confirmed float64, reason string) {
	loggingcombat.PredictionMismatch(context.Background(), p.publisher, 0,
		logging.EntityRef{ID: p.self.String(), Kind: logging.EntityKindPlayer},
		loggingcombat.PredictionMismatchPayload{
			Field:     field,
			Predicted: predicted,
			Confirmed: confirmed,
			Reason:    reason,
		})
}

func parseResourceKind(s string) (combat.ResourceKind, bool) {
	switch s {
	case "health":
		return combat.Health, true
	case "stamina":
		return combat.Stamina, true
	case "mana":
		return combat.Mana, true
	default:
		return combat.Health, false
	}
}

package sim

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"emberhex/server/abilities/catalog"
	"emberhex/server/internal/combat"
	"emberhex/server/logging"
	"emberhex/server/stats"
)

// Domain-level reject reasons carried on abilityFailed confirmations and
// command rejects.
const (
	RejectInsufficientResource = "insufficient_resource"
	RejectLocked               = "locked"
	RejectEmptyQueue           = "empty_queue"
	RejectInvalidTarget        = "invalid_target"
	RejectUnknownAbility       = "unknown_ability"
	RejectDead                 = "dead"
)

// EngineCore is the surface the loop drives each tick.
type EngineCore interface {
	Deps() Deps
	Apply(cmds []Command) error
	Step()
	StepDelta(dt time.Duration)
	Snapshot() Snapshot
	DrainUpdates() []Update
}

// Engine is the full surface the hub consumes: the core plus command
// ingestion and the runner.
type Engine interface {
	EngineCore
	Enqueue(cmd Command) (bool, string)
	Pending() int
	Advance(ctx LoopTickContext) LoopStepResult
	Run(stop <-chan struct{})
}

// Actor is one combat-capable entity owned by the world.
type Actor struct {
	ID        uuid.UUID
	Kind      logging.EntityKind
	Faction   string
	Attrs     stats.Attributes
	Resources combat.Resources
	Queue     combat.ReactionQueue
	Recovery  combat.RecoveryState
	State     combat.CombatState

	// AutoTarget drives cadence attacks: while set and both actors live,
	// the world inserts a basic strike every CadenceInterval.
	AutoTarget uuid.UUID
	nextAutoAt time.Duration

	lastHitBy      uuid.UUID
	lastHitAbility string
}

// ActorConfig seeds a new actor.
type ActorConfig struct {
	ID         uuid.UUID
	Kind       logging.EntityKind
	Faction    string
	Attrs      stats.Attributes
	AutoTarget uuid.UUID
}

// World is the authoritative combat state container. All mutation happens on
// the tick goroutine; the mutex only guards snapshot reads from other
// goroutines.
type World struct {
	mu      sync.Mutex
	deps    Deps
	cfg     WorldConfig
	catalog *catalog.Catalog
	contest stats.ContestFunc

	tick   uint64
	now    time.Duration
	actors map[uuid.UUID]*Actor
	order  []uuid.UUID

	staged    []Command
	updates   []Update
	telemetry *combat.Telemetry
}

// NewWorld builds an empty world. A nil catalog loads the default ability
// table; a nil contest uses the square-root shape.
func NewWorld(cfg WorldConfig, deps Deps, abilityCatalog *catalog.Catalog, contest stats.ContestFunc) (*World, error) {
	cfg = cfg.normalized()
	if abilityCatalog == nil {
		var err error
		abilityCatalog, err = catalog.Load()
		if err != nil {
			return nil, err
		}
	}
	if contest == nil {
		contest = stats.SqrtContest
	}
	w := &World{
		deps:    deps,
		cfg:     cfg,
		catalog: abilityCatalog,
		contest: contest,
		actors:  make(map[uuid.UUID]*Actor),
	}
	w.telemetry = combat.NewTelemetry(combat.TelemetryConfig{
		Publisher: deps.Publisher,
		LookupEntity: func(id uuid.UUID) logging.EntityRef {
			if a, ok := w.actors[id]; ok {
				return logging.EntityRef{ID: a.ID.String(), Kind: a.Kind}
			}
			return logging.EntityRef{ID: id.String(), Kind: logging.EntityKindUnknown}
		},
		CurrentTick: func() uint64 { return w.tick },
	})
	return w, nil
}

// Deps returns the injected dependencies.
func (w *World) Deps() Deps { return w.deps }

// Tick returns the last completed tick number.
func (w *World) Tick() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tick
}

// NowMillis returns the sim-timeline clock. Every broadcast timestamp rides
// this timeline, never the wall clock, so both sides compute expiry from the
// same "now" even when the loop clamps catch-up.
func (w *World) NowMillis() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.now.Milliseconds()
}

// Config returns the tuning snapshot echoed to clients.
func (w *World) Config() WorldConfig { return w.cfg }

// AddActor spawns an actor with full pools and an empty queue.
func (w *World) AddActor(cfg ActorConfig) *Actor {
	w.mu.Lock()
	defer w.mu.Unlock()

	id := cfg.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	kind := cfg.Kind
	if kind == "" {
		kind = logging.EntityKindPlayer
	}
	a := &Actor{
		ID:         id,
		Kind:       kind,
		Faction:    cfg.Faction,
		Attrs:      cfg.Attrs,
		Resources:  combat.NewResources(cfg.Attrs, w.now),
		Queue:      combat.NewReactionQueue(cfg.Attrs.WindowSize()),
		AutoTarget: cfg.AutoTarget,
	}
	w.actors[id] = a
	w.order = append(w.order, id)
	sort.Slice(w.order, func(i, j int) bool {
		return w.order[i].String() < w.order[j].String()
	})
	return a
}

// RemoveActor drops an actor entirely, as on disconnect.
func (w *World) RemoveActor(id uuid.UUID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.actors[id]; !ok {
		return
	}
	delete(w.actors, id)
	for i, other := range w.order {
		if other == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
}

// Actor returns the live actor record. Tick-goroutine use only.
func (w *World) Actor(id uuid.UUID) (*Actor, bool) {
	a, ok := w.actors[id]
	return a, ok
}

// Apply stages commands for processing inside the next Step, preserving
// arrival order.
func (w *World) Apply(cmds []Command) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.staged = append(w.staged, cmds...)
	return nil
}

// Step advances the world by one fixed tick. Systems run in a strict order:
// resource regeneration, queue expiry, recovery timers, cadence attacks,
// death detection, command processing, combat-state idle check.
func (w *World) Step() {
	w.StepDelta(time.Second / time.Duration(w.cfg.TickRate))
}

// StepDelta advances by an explicit dt, used by the loop's catch-up clamp.
func (w *World) StepDelta(dt time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.tick++
	w.now += dt

	w.regenerate()
	w.resolveExpired()
	w.tickRecoveries(dt)
	w.cadenceAttacks()
	w.detectDeaths()
	w.processCommands()
	w.idleChecks()
}

// DrainUpdates returns the confirmations accumulated since the last drain.
func (w *World) DrainUpdates() []Update {
	w.mu.Lock()
	defer w.mu.Unlock()
	updates := w.updates
	w.updates = nil
	return updates
}

// Snapshot renders the full authoritative state.
func (w *World) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	snap := Snapshot{
		Tick:      w.tick,
		NowMillis: w.now.Milliseconds(),
		Config:    w.cfg,
		Actors:    make([]ActorSnapshot, 0, len(w.order)),
	}
	for _, id := range w.order {
		a := w.actors[id]
		as := ActorSnapshot{
			ID:       a.ID,
			Kind:     string(a.Kind),
			Faction:  a.Faction,
			Pairs:    snapshotPairs(a.Attrs),
			Health:   snapshotPool(a.Resources.Health),
			Stamina:  snapshotPool(a.Resources.Stamina),
			Mana:     snapshotPool(a.Resources.Mana),
			Queue:    snapshotThreats(a.Queue.All()),
			Window:   a.Queue.Window(),
			InCombat: a.State.InCombat,
			Alive:    a.Resources.Alive(),
		}
		if a.Recovery.Active != nil {
			as.Recovery = &RecoverySnapshot{
				RemainingMillis: a.Recovery.Active.Remaining.Milliseconds(),
				DurationMillis:  a.Recovery.Active.Duration.Milliseconds(),
				TriggeredBy:     a.Recovery.Active.TriggeredBy,
			}
		}
		snap.Actors = append(snap.Actors, as)
	}
	return snap
}

func (w *World) regenerate() {
	for _, id := range w.order {
		a := w.actors[id]
		if a.State.AwaitRespawn {
			// Corpses stay empty until respawn refills them.
			a.Resources.Health.LastUpdate = w.now
			a.Resources.Stamina.LastUpdate = w.now
			a.Resources.Mana.LastUpdate = w.now
			continue
		}
		a.Resources.Advance(w.now)
	}
}

func (w *World) resolveExpired() {
	for _, id := range w.order {
		defender := w.actors[id]
		if !defender.Resources.Alive() {
			continue
		}
		for _, threat := range defender.Queue.PopExpired(w.now) {
			w.resolveThreat(defender, threat, false)
		}
	}
}

// resolveThreat runs damage phase 2 and the on-hit side effects: resource
// delta, recovery pushback, combat engagement.
func (w *World) resolveThreat(defender *Actor, threat combat.QueuedThreat, dismissed bool) {
	final := threat.Damage
	if !dismissed {
		final = combat.ResolveThreat(threat, defender.Attrs, w.contest)
	}
	health := defender.Resources.Health.Damage(final)
	defender.State.Engage(w.now)
	defender.lastHitBy = threat.Source
	defender.lastHitAbility = threat.Ability

	w.emit(Update{Kind: UpdateResolveThreat, Tick: w.tick, ResolveThreat: &ResolveThreatUpdate{
		Target:    defender.ID,
		Source:    threat.Source,
		ThreatID:  threat.ID,
		Final:     final,
		Dismissed: dismissed,
	}})
	w.emitResourceDelta(defender, combat.Health)
	w.telemetry.Damage(threat, defender.ID, final, health, dismissed)

	if defender.Recovery.Locked() {
		// Composure against pushback is focus, not presence.
		fraction := stats.Pushback(threat.Impact, defender.Attrs.Value(stats.Focus), w.contest)
		if added := defender.Recovery.Pushback(fraction); added > 0 {
			w.emitRecovery(defender)
			w.telemetry.RecoveryPushback(threat.Source, defender.ID,
				added.Milliseconds(), defender.Recovery.Active.Remaining.Milliseconds())
		}
	}
}

func (w *World) tickRecoveries(dt time.Duration) {
	for _, id := range w.order {
		a := w.actors[id]
		a.Recovery.Tick(dt, a.Attrs.RecoverySpeed())
	}
}

func (w *World) cadenceAttacks() {
	for _, id := range w.order {
		a := w.actors[id]
		if a.AutoTarget == uuid.Nil || !a.Resources.Alive() || a.Recovery.Locked() {
			continue
		}
		target, ok := w.actors[a.AutoTarget]
		if !ok || !target.Resources.Alive() {
			continue
		}
		if w.now < a.nextAutoAt {
			continue
		}
		a.nextAutoAt = w.now + a.Attrs.CadenceInterval()
		strike, ok := w.catalog.Resolve("strike")
		if !ok {
			continue
		}
		w.insertThreat(a, target, strike)
	}
}

func (w *World) detectDeaths() {
	for _, id := range w.order {
		a := w.actors[id]
		if a.State.AwaitRespawn {
			if a.Kind == logging.EntityKindPlayer && a.State.RespawnDue(w.now) {
				a.State.ClearRespawn()
				a.Resources.RefillAll()
				w.emit(Update{Kind: UpdateRespawn, Tick: w.tick, Lifecycle: &LifecycleUpdate{Entity: a.ID}})
				w.emitResourceDelta(a, combat.Health)
				w.emitResourceDelta(a, combat.Stamina)
				w.emitResourceDelta(a, combat.Mana)
			}
			continue
		}
		if a.Resources.Alive() {
			continue
		}
		a.Resources.Zero()
		a.Queue.ClearAll()
		a.Recovery.Trigger("", 0, nil)
		a.State.MarkDead(w.now)
		w.emit(Update{Kind: UpdateDespawn, Tick: w.tick, Lifecycle: &LifecycleUpdate{Entity: a.ID}})
		w.telemetry.Defeat(a.lastHitBy, a.ID, a.lastHitAbility)
	}
}

func (w *World) processCommands() {
	staged := w.staged
	w.staged = nil
	for _, cmd := range staged {
		actor, ok := w.actors[cmd.ActorID]
		if !ok {
			continue
		}
		switch cmd.Type {
		case CommandUseAbility:
			if cmd.UseAbility == nil {
				continue
			}
			if reason := w.useAbility(actor, *cmd.UseAbility); reason != "" {
				w.emitAbilityFailed(actor, cmd.Seq, cmd.UseAbility.Ability, reason)
			}
		case CommandUseReaction:
			if cmd.UseReaction == nil {
				continue
			}
			if reason := w.useReaction(actor, cmd.UseReaction.Kind); reason != "" {
				w.emitAbilityFailed(actor, cmd.Seq, cmd.UseReaction.Kind.String(), reason)
			}
		case CommandSetShift:
			if cmd.SetShift == nil {
				continue
			}
			w.setShift(actor, *cmd.SetShift)
		case CommandHeartbeat:
			// Connectivity metadata is tracked hub-side.
		}
	}
}

func (w *World) useAbility(actor *Actor, cmd UseAbilityCommand) string {
	if !actor.Resources.Alive() {
		return RejectDead
	}
	ability, ok := w.catalog.Resolve(cmd.Ability)
	if !ok {
		return RejectUnknownAbility
	}
	if !actor.Recovery.CanUse(ability.ID) {
		return RejectLocked
	}
	target, ok := w.actors[cmd.Target]
	if !ok || target.ID == actor.ID || !target.Resources.Alive() {
		return RejectInvalidTarget
	}
	// Both costs are checked before either is taken so the commit is atomic.
	if actor.Resources.Stamina.Authoritative < ability.StaminaCost ||
		actor.Resources.Mana.Authoritative < ability.ManaCost {
		return RejectInsufficientResource
	}
	if err := actor.Resources.Stamina.Spend(ability.StaminaCost); err != nil {
		return RejectInsufficientResource
	}
	if err := actor.Resources.Mana.Spend(ability.ManaCost); err != nil {
		return RejectInsufficientResource
	}
	if ability.StaminaCost > 0 {
		w.emitResourceDelta(actor, combat.Stamina)
	}
	if ability.ManaCost > 0 {
		w.emitResourceDelta(actor, combat.Mana)
	}

	actor.State.Engage(w.now)
	target.State.Engage(w.now)

	if ability.BaseDamage > 0 {
		evaded := combat.Evaded(target.Attrs, w.roll())
		if !evaded {
			w.insertThreat(actor, target, ability)
		}
	}
	w.triggerRecovery(actor, ability)
	return ""
}

func (w *World) insertThreat(attacker, defender *Actor, ability catalog.Ability) {
	kind, _ := combat.ParseDamageKind(ability.Kind)
	threat := combat.NewThreat(attacker.ID, ability.ID, ability.BaseDamage, kind,
		attacker.Attrs, defender.Attrs, w.contest, w.now)
	defender.Queue.Insert(threat)

	w.emit(Update{Kind: UpdateInsertThreat, Tick: w.tick, InsertThreat: &InsertThreatUpdate{
		Target:           defender.ID,
		Source:           attacker.ID,
		ThreatID:         threat.ID,
		Ability:          threat.Ability,
		Damage:           threat.Damage,
		Kind:             threat.Kind.String(),
		InsertedAtMillis: threat.InsertedAt.Milliseconds(),
		DurationMillis:   threat.Duration.Milliseconds(),
	}})
	w.telemetry.ThreatQueued(threat, defender.ID, defender.Queue.Len())
}

func (w *World) useReaction(actor *Actor, kind combat.ReactionKind) string {
	if !actor.Resources.Alive() {
		return RejectDead
	}
	if kind.TriggersRecovery() && !actor.Recovery.CanUse(kind.String()) {
		return RejectLocked
	}
	outcome, err := combat.ApplyReaction(kind, &actor.Queue, &actor.Resources.Stamina, actor.Attrs)
	if err != nil {
		switch {
		case err == combat.ErrEmptyQueue:
			return RejectEmptyQueue
		case err == combat.ErrInsufficientResource:
			return RejectInsufficientResource
		default:
			return RejectUnknownAbility
		}
	}
	if kind.StaminaCost() > 0 {
		w.emitResourceDelta(actor, combat.Stamina)
	}
	actor.State.Engage(w.now)

	if n := len(outcome.Cleared); n > 0 {
		w.emit(Update{Kind: UpdateClearQueue, Tick: w.tick, ClearQueue: &ClearQueueUpdate{
			Target: actor.ID,
			Mode:   kind.String(),
			Count:  n,
		}})
	}
	for _, t := range outcome.Dismissed {
		w.resolveThreat(actor, t, true)
	}
	for _, r := range outcome.Reflected {
		source, ok := w.actors[r.Target]
		if !ok || !source.Resources.Alive() {
			continue
		}
		reflect := combat.NewThreat(actor.ID, "counter", 0, combat.Physical,
			actor.Attrs, source.Attrs, w.contest, w.now)
		// The reflection amount is already final phase-1 damage; counter's
		// base damage never rides offense scaling twice.
		reflect.Damage = r.Damage
		source.Queue.Insert(reflect)
		w.emit(Update{Kind: UpdateInsertThreat, Tick: w.tick, InsertThreat: &InsertThreatUpdate{
			Target:           source.ID,
			Source:           actor.ID,
			ThreatID:         reflect.ID,
			Ability:          reflect.Ability,
			Damage:           reflect.Damage,
			Kind:             reflect.Kind.String(),
			InsertedAtMillis: reflect.InsertedAt.Milliseconds(),
			DurationMillis:   reflect.Duration.Milliseconds(),
		}})
		w.telemetry.ThreatQueued(reflect, source.ID, source.Queue.Len())
	}
	w.telemetry.Reaction(actor.ID, outcome)

	if kind.TriggersRecovery() {
		if ability, ok := w.catalog.Resolve(kind.String()); ok {
			w.triggerRecovery(actor, ability)
		}
	}
	return ""
}

func (w *World) triggerRecovery(actor *Actor, ability catalog.Ability) {
	if ability.Recovery() <= 0 {
		return
	}
	unlocks := make([]combat.SynergyUnlock, 0, len(ability.Synergies))
	for _, s := range ability.Synergies {
		unlocks = append(unlocks, combat.SynergyUnlock{
			Ability:     s.Target,
			UnlockAt:    time.Duration(s.UnlockMillis) * time.Millisecond,
			TriggeredBy: ability.ID,
		})
	}
	actor.Recovery.Trigger(ability.ID, ability.Recovery(), unlocks)
	w.emitRecovery(actor)
}

func (w *World) setShift(actor *Actor, cmd SetShiftCommand) {
	actor.Attrs.SetShift(cmd.Pair, cmd.Shift)
	// Pool ceilings and the queue window follow the new derived values.
	actor.Resources.RefreshMax(actor.Attrs)
	actor.Queue.SetWindow(actor.Attrs.WindowSize())
}

func (w *World) idleChecks() {
	for _, id := range w.order {
		a := w.actors[id]
		a.State.Update(w.now, w.hostileNearby(a))
	}
}

// hostileNearby reports whether any living actor of another faction exists.
// Spatial filtering is out of scope; a real deployment narrows this with a
// range query.
func (w *World) hostileNearby(a *Actor) bool {
	for _, id := range w.order {
		other := w.actors[id]
		if other.ID == a.ID || !other.Resources.Alive() {
			continue
		}
		if other.Faction != a.Faction {
			return true
		}
	}
	return false
}

func (w *World) roll() float64 {
	if w.deps.RNG != nil {
		return w.deps.RNG.Float64()
	}
	return 1 // no RNG injected: never evade, keep tests deterministic
}

func (w *World) emit(u Update) {
	w.updates = append(w.updates, u)
}

func (w *World) emitResourceDelta(a *Actor, kind combat.ResourceKind) {
	pool := a.Resources.Pool(kind)
	w.emit(Update{Kind: UpdateResourceDelta, Tick: w.tick, ResourceDelta: &ResourceDeltaUpdate{
		Entity:   a.ID,
		Resource: kind.String(),
		Value:    pool.Authoritative,
		Max:      pool.Max,
	}})
}

func (w *World) emitRecovery(a *Actor) {
	if a.Recovery.Active == nil {
		return
	}
	w.emit(Update{Kind: UpdateRecovery, Tick: w.tick, Recovery: &RecoveryUpdate{
		Entity:          a.ID,
		RemainingMillis: a.Recovery.Active.Remaining.Milliseconds(),
		DurationMillis:  a.Recovery.Active.Duration.Milliseconds(),
		TriggeredBy:     a.Recovery.Active.TriggeredBy,
	}})
}

func (w *World) emitAbilityFailed(a *Actor, seq uint64, ability, reason string) {
	w.emit(Update{Kind: UpdateAbilityFailed, Tick: w.tick, AbilityFailed: &AbilityFailedUpdate{
		Entity:  a.ID,
		Seq:     seq,
		Ability: ability,
		Reason:  reason,
	}})
}

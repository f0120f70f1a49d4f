package combat

import (
	"time"

	"emberhex/server/stats"
)

// ResourceKind identifies one of the three simulated pools.
type ResourceKind uint8

const (
	Health ResourceKind = iota
	Stamina
	Mana

	resourceKindCount
)

func (k ResourceKind) String() string {
	switch k {
	case Health:
		return "health"
	case Stamina:
		return "stamina"
	case Mana:
		return "mana"
	default:
		return "unknown"
	}
}

// maxRegenStep guards against stale timestamps: a single Advance never regens
// more than one second of value no matter how old LastUpdate is.
const maxRegenStep = time.Second

// reconcileTolerance is the relative divergence (fraction of Max) above which
// a predicted value snaps back to the authoritative one.
const reconcileTolerance = 0.05

// Pool is one continuously regenerating resource. Authoritative is the
// server-confirmed value; Predicted is the locally simulated one. On the
// server the two move in lockstep; on a client they diverge while intents are
// in flight.
type Pool struct {
	Authoritative float64
	Predicted     float64
	Max           float64
	RegenRate     float64 // per second
	LastUpdate    time.Duration
}

// NewPool returns a full pool anchored at now.
func NewPool(max, regenRate float64, now time.Duration) Pool {
	if max < 0 {
		max = 0
	}
	return Pool{
		Authoritative: max,
		Predicted:     max,
		Max:           max,
		RegenRate:     regenRate,
		LastUpdate:    now,
	}
}

// Advance applies continuous regeneration up to now. The elapsed step is
// clamped to [0, 1s]; both sides run the same computation so steady-state
// regen never needs a broadcast.
func (p *Pool) Advance(now time.Duration) {
	dt := now - p.LastUpdate
	p.LastUpdate = now
	if dt <= 0 || p.RegenRate == 0 {
		return
	}
	if dt > maxRegenStep {
		dt = maxRegenStep
	}
	gain := p.RegenRate * dt.Seconds()
	p.Authoritative = clampPool(p.Authoritative+gain, p.Max)
	p.Predicted = clampPool(p.Predicted+gain, p.Max)
}

// Spend deducts a discrete cost from both values, failing without mutation
// when the authoritative value cannot cover it.
func (p *Pool) Spend(amount float64) error {
	if amount <= 0 {
		return nil
	}
	if p.Authoritative < amount {
		return ErrInsufficientResource
	}
	p.Authoritative = clampPool(p.Authoritative-amount, p.Max)
	p.Predicted = clampPool(p.Predicted-amount, p.Max)
	return nil
}

// SpendPredicted deducts a speculative cost from the predicted value only.
// Client predictors use this while the intent is in flight.
func (p *Pool) SpendPredicted(amount float64) error {
	if amount <= 0 {
		return nil
	}
	if p.Predicted < amount {
		return ErrInsufficientResource
	}
	p.Predicted = clampPool(p.Predicted-amount, p.Max)
	return nil
}

// RefundPredicted restores a reverted speculative cost.
func (p *Pool) RefundPredicted(amount float64) {
	if amount > 0 {
		p.Predicted = clampPool(p.Predicted+amount, p.Max)
	}
}

// Damage deducts a hit from both values, flooring at zero, and returns the
// new authoritative value.
func (p *Pool) Damage(amount float64) float64 {
	if amount > 0 {
		p.Authoritative = clampPool(p.Authoritative-amount, p.Max)
		p.Predicted = clampPool(p.Predicted-amount, p.Max)
	}
	return p.Authoritative
}

// Reconcile folds a server-confirmed value into the pool. The prediction is
// kept when it is within tolerance of the confirmed value and snapped
// otherwise; the return reports whether a snap happened.
func (p *Pool) Reconcile(server float64) bool {
	p.Authoritative = clampPool(server, p.Max)
	tolerance := p.Max * reconcileTolerance
	if diff := p.Predicted - p.Authoritative; diff > tolerance || diff < -tolerance {
		p.Predicted = p.Authoritative
		return true
	}
	return false
}

// SetMax rescales the pool ceiling, clamping both values into the new range.
func (p *Pool) SetMax(max float64) {
	if max < 0 {
		max = 0
	}
	p.Max = max
	p.Authoritative = clampPool(p.Authoritative, max)
	p.Predicted = clampPool(p.Predicted, max)
}

// Refill restores the pool to full on both sides.
func (p *Pool) Refill() {
	p.Authoritative = p.Max
	p.Predicted = p.Max
}

func clampPool(v, max float64) float64 {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}

// Resources bundles the three pools for one actor.
type Resources struct {
	Health  Pool
	Stamina Pool
	Mana    Pool
}

// NewResources derives full pools from the actor's current attributes.
func NewResources(a stats.Attributes, now time.Duration) Resources {
	return Resources{
		Health:  NewPool(a.MaxHealth(), 0, now),
		Stamina: NewPool(a.MaxStamina(), a.StaminaRegenRate(), now),
		Mana:    NewPool(a.MaxMana(), a.ManaRegenRate(), now),
	}
}

// Advance regenerates all pools up to now.
func (r *Resources) Advance(now time.Duration) {
	r.Health.Advance(now)
	r.Stamina.Advance(now)
	r.Mana.Advance(now)
}

// RefreshMax re-derives pool ceilings after a level-up or respec.
func (r *Resources) RefreshMax(a stats.Attributes) {
	r.Health.SetMax(a.MaxHealth())
	r.Stamina.SetMax(a.MaxStamina())
	r.Mana.SetMax(a.MaxMana())
}

// Pool returns the pool for a kind, or nil for an unknown kind.
func (r *Resources) Pool(kind ResourceKind) *Pool {
	switch kind {
	case Health:
		return &r.Health
	case Stamina:
		return &r.Stamina
	case Mana:
		return &r.Mana
	default:
		return nil
	}
}

// Alive reports whether the actor's authoritative health is above zero.
func (r *Resources) Alive() bool {
	return r.Health.Authoritative > 0
}

// Zero empties every pool on both sides, as happens on death.
func (r *Resources) Zero() {
	for kind := ResourceKind(0); kind < resourceKindCount; kind++ {
		p := r.Pool(kind)
		p.Authoritative = 0
		p.Predicted = 0
	}
}

// RefillAll restores every pool to full, as happens on respawn.
func (r *Resources) RefillAll() {
	r.Health.Refill()
	r.Stamina.Refill()
	r.Mana.Refill()
}

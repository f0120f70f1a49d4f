package sim

import (
	"github.com/google/uuid"

	"emberhex/server/internal/combat"
	"emberhex/server/stats"
)

// PairSnapshot mirrors one raw investment pair on the wire.
type PairSnapshot struct {
	Axis     int8 `json:"axis"`
	Spectrum int8 `json:"spectrum"`
	Shift    int8 `json:"shift"`
}

// PoolSnapshot carries the authoritative side of one resource pool.
type PoolSnapshot struct {
	Value float64 `json:"value"`
	Max   float64 `json:"max"`
	Regen float64 `json:"regen"`
}

// ThreatSnapshot mirrors one queued threat.
type ThreatSnapshot struct {
	ID               uuid.UUID `json:"id"`
	Source           uuid.UUID `json:"source"`
	Ability          string    `json:"ability"`
	Damage           float64   `json:"damage"`
	Kind             string    `json:"kind"`
	InsertedAtMillis int64     `json:"insertedAt"`
	DurationMillis   int64     `json:"duration"`
}

// RecoverySnapshot mirrors an active lockout.
type RecoverySnapshot struct {
	RemainingMillis int64  `json:"remaining"`
	DurationMillis  int64  `json:"duration"`
	TriggeredBy     string `json:"triggeredBy"`
}

// ActorSnapshot is the full authoritative state of one actor, sent at join
// and on resync.
type ActorSnapshot struct {
	ID       uuid.UUID         `json:"id"`
	Kind     string            `json:"kind"`
	Faction  string            `json:"faction"`
	Pairs    [3]PairSnapshot   `json:"pairs"`
	Health   PoolSnapshot      `json:"health"`
	Stamina  PoolSnapshot      `json:"stamina"`
	Mana     PoolSnapshot      `json:"mana"`
	Queue    []ThreatSnapshot  `json:"queue,omitempty"`
	Window   int               `json:"window"`
	Recovery *RecoverySnapshot `json:"recovery,omitempty"`
	InCombat bool              `json:"inCombat"`
	Alive    bool              `json:"alive"`
}

// Snapshot is the full world state at one tick.
type Snapshot struct {
	Tick      uint64          `json:"tick"`
	NowMillis int64           `json:"now"`
	Config    WorldConfig     `json:"config"`
	Actors    []ActorSnapshot `json:"actors"`
}

func snapshotPool(p combat.Pool) PoolSnapshot {
	return PoolSnapshot{Value: p.Authoritative, Max: p.Max, Regen: p.RegenRate}
}

func snapshotThreats(threats []combat.QueuedThreat) []ThreatSnapshot {
	if len(threats) == 0 {
		return nil
	}
	out := make([]ThreatSnapshot, len(threats))
	for i, t := range threats {
		out[i] = ThreatSnapshot{
			ID:               t.ID,
			Source:           t.Source,
			Ability:          t.Ability,
			Damage:           t.Damage,
			Kind:             t.Kind.String(),
			InsertedAtMillis: t.InsertedAt.Milliseconds(),
			DurationMillis:   t.Duration.Milliseconds(),
		}
	}
	return out
}

func snapshotPairs(a stats.Attributes) [3]PairSnapshot {
	var out [3]PairSnapshot
	for p := stats.Pair(0); p < stats.PairCount; p++ {
		inv := a.Pair(p)
		out[p] = PairSnapshot{Axis: inv.Axis, Spectrum: inv.Spectrum, Shift: inv.Shift}
	}
	return out
}

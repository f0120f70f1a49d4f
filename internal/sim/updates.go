package sim

import "github.com/google/uuid"

// UpdateKind enumerates the confirmation records the engine emits for
// broadcast after each tick.
type UpdateKind string

const (
	UpdateInsertThreat  UpdateKind = "insertThreat"
	UpdateResolveThreat UpdateKind = "resolveThreat"
	UpdateClearQueue    UpdateKind = "clearQueue"
	UpdateResourceDelta UpdateKind = "resourceDelta"
	UpdateRecovery      UpdateKind = "recovery"
	UpdateAbilityFailed UpdateKind = "abilityFailed"
	UpdateDespawn       UpdateKind = "despawn"
	UpdateRespawn       UpdateKind = "respawn"
)

// InsertThreatUpdate confirms a phase-1 insertion on a defender's queue.
type InsertThreatUpdate struct {
	Target           uuid.UUID `json:"target"`
	Source           uuid.UUID `json:"source"`
	ThreatID         uuid.UUID `json:"threatId"`
	Ability          string    `json:"ability"`
	Damage           float64   `json:"damage"`
	Kind             string    `json:"kind"`
	InsertedAtMillis int64     `json:"insertedAt"`
	DurationMillis   int64     `json:"duration"`
}

// ResolveThreatUpdate confirms a phase-2 resolution.
type ResolveThreatUpdate struct {
	Target    uuid.UUID `json:"target"`
	Source    uuid.UUID `json:"source"`
	ThreatID  uuid.UUID `json:"threatId"`
	Final     float64   `json:"final"`
	Dismissed bool      `json:"dismissed,omitempty"`
}

// ClearQueueUpdate confirms a reaction removed queue entries without
// resolving them.
type ClearQueueUpdate struct {
	Target uuid.UUID `json:"target"`
	Mode   string    `json:"mode"`
	Count  int       `json:"count"`
}

// ResourceDeltaUpdate confirms a discrete resource mutation. Steady-state
// regeneration is never broadcast; both sides simulate it.
type ResourceDeltaUpdate struct {
	Entity   uuid.UUID `json:"entity"`
	Resource string    `json:"resource"`
	Value    float64   `json:"value"`
	Max      float64   `json:"max"`
}

// RecoveryUpdate confirms a lockout trigger or extension.
type RecoveryUpdate struct {
	Entity          uuid.UUID `json:"entity"`
	RemainingMillis int64     `json:"remaining"`
	DurationMillis  int64     `json:"duration"`
	TriggeredBy     string    `json:"triggeredBy"`
}

// AbilityFailedUpdate reports a domain-level command failure so the issuing
// client can revert its speculation.
type AbilityFailedUpdate struct {
	Entity  uuid.UUID `json:"entity"`
	Seq     uint64    `json:"seq,omitempty"`
	Ability string    `json:"ability,omitempty"`
	Reason  string    `json:"reason"`
}

// LifecycleUpdate reports a despawn or respawn.
type LifecycleUpdate struct {
	Entity uuid.UUID `json:"entity"`
}

// Update is one broadcastable confirmation. Exactly one payload pointer is
// set, matching Kind.
type Update struct {
	Kind          UpdateKind           `json:"kind"`
	Tick          uint64               `json:"tick"`
	InsertThreat  *InsertThreatUpdate  `json:"insertThreat,omitempty"`
	ResolveThreat *ResolveThreatUpdate `json:"resolveThreat,omitempty"`
	ClearQueue    *ClearQueueUpdate    `json:"clearQueue,omitempty"`
	ResourceDelta *ResourceDeltaUpdate `json:"resourceDelta,omitempty"`
	Recovery      *RecoveryUpdate      `json:"recovery,omitempty"`
	AbilityFailed *AbilityFailedUpdate `json:"abilityFailed,omitempty"`
	Lifecycle     *LifecycleUpdate     `json:"lifecycle,omitempty"`
}

package sim

import (
	"time"

	"github.com/google/uuid"

	"emberhex/server/internal/combat"
	"emberhex/server/stats"
)

// CommandType enumerates the supported simulation commands.
type CommandType string

const (
	CommandUseAbility  CommandType = "UseAbility"
	CommandUseReaction CommandType = "UseReaction"
	CommandSetShift    CommandType = "SetShift"
	CommandHeartbeat   CommandType = "Heartbeat"
)

// UseAbilityCommand commits an ability against a target.
type UseAbilityCommand struct {
	Ability string    `json:"ability"`
	Target  uuid.UUID `json:"target"`
}

// UseReactionCommand consumes entries from the actor's own reaction queue.
type UseReactionCommand struct {
	Kind combat.ReactionKind `json:"kind"`
}

// SetShiftCommand slides one attribute pair's tactical slider.
type SetShiftCommand struct {
	Pair  stats.Pair `json:"pair"`
	Shift int8       `json:"shift"`
}

// HeartbeatCommand updates connectivity metadata for an actor.
type HeartbeatCommand struct {
	ReceivedAt time.Time     `json:"receivedAt"`
	ClientSent int64         `json:"clientSent"`
	RTT        time.Duration `json:"rtt"`
}

// Command represents an intent captured for processing on the next tick.
type Command struct {
	OriginTick  uint64              `json:"originTick"`
	ActorID     uuid.UUID           `json:"actorId"`
	Seq         uint64              `json:"seq"`
	Type        CommandType         `json:"type"`
	IssuedAt    time.Time           `json:"issuedAt"`
	UseAbility  *UseAbilityCommand  `json:"useAbility,omitempty"`
	UseReaction *UseReactionCommand `json:"useReaction,omitempty"`
	SetShift    *SetShiftCommand    `json:"setShift,omitempty"`
	Heartbeat   *HeartbeatCommand   `json:"heartbeat,omitempty"`
}

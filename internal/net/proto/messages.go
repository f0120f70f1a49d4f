// Package proto defines the versioned JSON frames exchanged over the
// websocket: client intents in, confirmations and snapshots out.
package proto

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"emberhex/server/internal/combat"
	"emberhex/server/internal/sim"
	"emberhex/server/stats"
)

const (
	// Version tracks the wire-protocol revision expected by clients.
	Version = 1

	// Type identifiers for outbound websocket payloads.
	typeCommandAck    = "commandAck"
	typeCommandReject = "commandReject"
	typeHeartbeat     = "heartbeat"
	typeClockInit     = "clockInit"
	typeState         = "state"
	typeSnapshot      = "snapshot"
)

// Client message type identifiers.
const (
	TypeUseAbility  = "useAbility"
	TypeUseReaction = "useReaction"
	TypeSetShift    = "setShift"
	TypeHeartbeat   = "heartbeat"
	TypeResync      = "resyncRequest"
)

// Exported aliases for outbound message type identifiers.
const (
	TypeState     = typeState
	TypeSnapshot  = typeSnapshot
	TypeClockInit = typeClockInit
)

// ClientMessage captures an inbound websocket message from the client.
type ClientMessage struct {
	Ver      int     `json:"ver,omitempty"`
	Type     string  `json:"type"`
	Ability  string  `json:"ability,omitempty"`
	Target   string  `json:"target,omitempty"`
	Reaction string  `json:"reaction,omitempty"`
	Pair     *int    `json:"pair,omitempty"`
	Shift    *int    `json:"shift,omitempty"`
	SentAt   int64   `json:"sentAt,omitempty"`
	Seq      *uint64 `json:"seq,omitempty"`
}

// DecodeClientMessage converts raw websocket payloads into a structured message.
func DecodeClientMessage(payload []byte) (ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return msg, err
	}
	if msg.Ver == 0 {
		msg.Ver = Version
	}
	if msg.Ver != Version {
		return msg, fmt.Errorf("unsupported client protocol version %d", msg.Ver)
	}
	return msg, nil
}

// ClientCommand converts a decoded message into a simulation command. Origin
// metadata is populated by the hub when the command is accepted.
func ClientCommand(msg ClientMessage) (sim.Command, bool) {
	switch msg.Type {
	case TypeUseAbility:
		if msg.Ability == "" {
			return sim.Command{}, false
		}
		target, err := uuid.Parse(msg.Target)
		if err != nil {
			return sim.Command{}, false
		}
		return sim.Command{
			Type: sim.CommandUseAbility,
			UseAbility: &sim.UseAbilityCommand{
				Ability: msg.Ability,
				Target:  target,
			},
		}, true
	case TypeUseReaction:
		kind, ok := combat.ParseReactionKind(msg.Reaction)
		if !ok {
			return sim.Command{}, false
		}
		return sim.Command{
			Type:        sim.CommandUseReaction,
			UseReaction: &sim.UseReactionCommand{Kind: kind},
		}, true
	case TypeSetShift:
		if msg.Pair == nil || msg.Shift == nil {
			return sim.Command{}, false
		}
		pair := *msg.Pair
		shift := *msg.Shift
		if pair < 0 || pair >= int(stats.PairCount) || shift < -127 || shift > 127 {
			return sim.Command{}, false
		}
		return sim.Command{
			Type: sim.CommandSetShift,
			SetShift: &sim.SetShiftCommand{
				Pair:  stats.Pair(pair),
				Shift: int8(shift),
			},
		}, true
	default:
		return sim.Command{}, false
	}
}

// CommandAck describes an acknowledgement of an accepted command.
type CommandAck struct {
	Seq  uint64
	Tick uint64
}

// EncodeCommandAck renders a command acknowledgement response.
func EncodeCommandAck(msg CommandAck) ([]byte, error) {
	frame := struct {
		Ver  int    `json:"ver"`
		Type string `json:"type"`
		Seq  uint64 `json:"seq"`
		Tick uint64 `json:"tick,omitempty"`
	}{
		Ver:  Version,
		Type: typeCommandAck,
		Seq:  msg.Seq,
	}
	if msg.Tick > 0 {
		frame.Tick = msg.Tick
	}
	return json.Marshal(frame)
}

// CommandReject notifies the client that a command was refused at intake.
type CommandReject struct {
	Seq    uint64
	Reason string
	Retry  bool
	Tick   uint64
}

// EncodeCommandReject renders a command rejection response.
func EncodeCommandReject(msg CommandReject) ([]byte, error) {
	frame := struct {
		Ver    int    `json:"ver"`
		Type   string `json:"type"`
		Seq    uint64 `json:"seq"`
		Reason string `json:"reason"`
		Retry  bool   `json:"retry,omitempty"`
		Tick   uint64 `json:"tick,omitempty"`
	}{
		Ver:    Version,
		Type:   typeCommandReject,
		Seq:    msg.Seq,
		Reason: msg.Reason,
	}
	if msg.Retry {
		frame.Retry = true
	}
	if msg.Tick > 0 {
		frame.Tick = msg.Tick
	}
	return json.Marshal(frame)
}

// Heartbeat echoes timing metadata back to the client.
type Heartbeat struct {
	ServerTime int64
	ClientTime int64
	RTTMillis  int64
}

// EncodeHeartbeat renders a heartbeat acknowledgement payload.
func EncodeHeartbeat(msg Heartbeat) ([]byte, error) {
	frame := struct {
		Ver        int    `json:"ver"`
		Type       string `json:"type"`
		ServerTime int64  `json:"serverTime"`
		ClientTime int64  `json:"clientTime"`
		RTTMillis  int64  `json:"rtt"`
	}{
		Ver:        Version,
		Type:       typeHeartbeat,
		ServerTime: msg.ServerTime,
		ClientTime: msg.ClientTime,
		RTTMillis:  msg.RTTMillis,
	}
	return json.Marshal(frame)
}

// ClockInit carries the shared-clock handshake: the session epoch plus the
// server's current offset so the client can project the shared timeline.
type ClockInit struct {
	EpochMillis  int64
	ServerOffset int64
}

// EncodeClockInit renders the clock handshake payload.
func EncodeClockInit(msg ClockInit) ([]byte, error) {
	frame := struct {
		Ver          int    `json:"ver"`
		Type         string `json:"type"`
		EpochMillis  int64  `json:"epochMillis"`
		ServerOffset int64  `json:"serverOffset"`
	}{
		Ver:          Version,
		Type:         typeClockInit,
		EpochMillis:  msg.EpochMillis,
		ServerOffset: msg.ServerOffset,
	}
	return json.Marshal(frame)
}

// StateUpdateV1 is the per-tick confirmation batch. Steady-state regeneration
// never appears here; only discrete events do.
type StateUpdateV1 struct {
	Ver        int          `json:"ver"`
	Type       string       `json:"type"`
	Tick       uint64       `json:"t"`
	ServerTime int64        `json:"serverTime"`
	Updates    []sim.Update `json:"updates"`
}

// ProtoStateUpdate tags the struct as a websocket state payload.
func (StateUpdateV1) ProtoStateUpdate() {}

// EncodeStateUpdateV1 renders a versioned confirmation batch.
func EncodeStateUpdateV1(msg StateUpdateV1) ([]byte, error) {
	if msg.Type == "" {
		msg.Type = TypeState
	}
	msg.Ver = Version
	return json.Marshal(msg)
}

// SnapshotV1 is the full-state frame sent on join and on resync.
type SnapshotV1 struct {
	Ver      int          `json:"ver"`
	Type     string       `json:"type"`
	Snapshot sim.Snapshot `json:"snapshot"`
	Resync   bool         `json:"resync,omitempty"`
}

// ProtoSnapshot tags the struct as a websocket snapshot payload.
func (SnapshotV1) ProtoSnapshot() {}

// EncodeSnapshotV1 renders a versioned snapshot payload.
func EncodeSnapshotV1(msg SnapshotV1) ([]byte, error) {
	if msg.Type == "" {
		msg.Type = TypeSnapshot
	}
	msg.Ver = Version
	return json.Marshal(msg)
}

// JoinResponseV1 captures the version 1 join response layout.
type JoinResponseV1 struct {
	Ver         int             `json:"ver"`
	ID          string          `json:"id"`
	EpochMillis int64           `json:"epochMillis"`
	Config      sim.WorldConfig `json:"config"`
	Snapshot    sim.Snapshot    `json:"snapshot"`
	CatalogHash string          `json:"catalogHash,omitempty"`
}

// ProtoJoinResponse tags the struct as a websocket join response payload.
func (JoinResponseV1) ProtoJoinResponse() {}

// EncodeJoinResponseV1 renders a versioned join response payload.
func EncodeJoinResponseV1(msg JoinResponseV1) ([]byte, error) {
	msg.Ver = Version
	return json.Marshal(msg)
}

// Package intake validates inbound client messages and stages them on the
// simulation loop, translating transport failures into reject reasons.
package intake

import (
	"time"

	"github.com/google/uuid"

	server "emberhex/server"
	"emberhex/server/internal/net/proto"
	"emberhex/server/internal/sim"
)

// CommandContext carries the hub capabilities intake needs. Function fields
// keep the package free of a hub dependency cycle.
type CommandContext struct {
	Enqueue  func(sim.Command) (bool, string)
	HasActor func(uuid.UUID) bool
	Tick     func() uint64
	Now      func() time.Time
}

// StageClientCommand converts a decoded message into a command and stages it.
// The returned reason is non-empty exactly when ok is false.
func StageClientCommand(ctx CommandContext, playerID uuid.UUID, seq uint64, msg proto.ClientMessage) (sim.Command, bool, string) {
	var zero sim.Command

	command, ok := proto.ClientCommand(msg)
	if !ok {
		return zero, false, server.CommandRejectInvalidIntent
	}

	if ctx.HasActor != nil && !ctx.HasActor(playerID) {
		return zero, false, server.CommandRejectUnknownActor
	}

	command.ActorID = playerID
	command.Seq = seq
	if ctx.Tick != nil {
		command.OriginTick = ctx.Tick()
	}
	if ctx.Now != nil {
		command.IssuedAt = ctx.Now()
	} else {
		command.IssuedAt = time.Now()
	}

	if ctx.Enqueue == nil {
		return zero, false, server.CommandRejectQueueFull
	}
	if ok, reason := ctx.Enqueue(command); !ok {
		return zero, false, reason
	}
	return command, true, ""
}

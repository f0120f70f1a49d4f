package server

import "emberhex/server/internal/sim"

// Intake-level reject reasons returned before a command ever reaches the
// simulation. Domain-level failures arrive later as abilityFailed updates.
const (
	CommandRejectUnknownActor  = "unknown_actor"
	CommandRejectInvalidIntent = "invalid_intent"

	CommandRejectQueueLimit = sim.CommandRejectQueueLimit
	CommandRejectQueueFull  = sim.CommandRejectQueueFull
)

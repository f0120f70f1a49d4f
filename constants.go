package server

import "time"

const (
	// ProtocolVersion mirrors the wire revision in internal/net/proto.
	ProtocolVersion = 1

	tickRate          = 15 // simulation ticks per second
	writeWait         = 10 * time.Second
	heartbeatInterval = 2 * time.Second
	disconnectAfter   = 3 * heartbeatInterval

	commandCapacity  = 256
	perActorLimit    = 8
	queueWarningStep = 64
	catchupMaxTicks  = 4
)

// TickRate exposes the simulation rate for diagnostics.
func TickRate() int { return tickRate }

// HeartbeatInterval exposes the expected client heartbeat cadence.
func HeartbeatInterval() time.Duration { return heartbeatInterval }

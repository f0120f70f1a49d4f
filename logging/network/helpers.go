package network

import (
	"context"

	"emberhex/server/logging"
)

const (
	// EventIntentRejected is emitted when an inbound intent fails validation.
	EventIntentRejected logging.EventType = "network.intent_rejected"
	// EventSessionStale is emitted when a session misses its heartbeat deadline.
	EventSessionStale logging.EventType = "network.session_stale"
)

// IntentRejectedPayload captures why an intent was refused.
type IntentRejectedPayload struct {
	Intent string `json:"intent"`
	Seq    uint64 `json:"seq"`
	Reason string `json:"reason"`
}

// SessionStalePayload captures heartbeat staleness details.
type SessionStalePayload struct {
	SinceMillis int64 `json:"sinceMillis"`
}

// IntentRejected publishes a debug event when an intent is refused.
func IntentRejected(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload IntentRejectedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventIntentRejected,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryNetwork,
		Payload:  payload,
	})
}

// SessionStale publishes a warning when a session stops heartbeating.
func SessionStale(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload SessionStalePayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventSessionStale,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryNetwork,
		Payload:  payload,
	})
}

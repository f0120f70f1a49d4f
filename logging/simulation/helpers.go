package simulation

import (
	"context"

	"emberhex/server/logging"
)

const (
	// EventTickBudgetOverrun is emitted when a tick exceeds its time budget.
	EventTickBudgetOverrun logging.EventType = "simulation.tick_budget_overrun"
	// EventCatchUpClamped is emitted when the loop discards backlog after a stall.
	EventCatchUpClamped logging.EventType = "simulation.catch_up_clamped"
)

// TickBudgetOverrunPayload captures timing details for a tick budget breach.
type TickBudgetOverrunPayload struct {
	DurationMillis int64   `json:"durationMillis"`
	BudgetMillis   int64   `json:"budgetMillis"`
	Ratio          float64 `json:"ratio"`
}

// CatchUpClampedPayload captures how many pending ticks were dropped.
type CatchUpClampedPayload struct {
	PendingTicks int64 `json:"pendingTicks"`
	MaxTicks     int64 `json:"maxTicks"`
}

// TickBudgetOverrun publishes a warning when a tick runs long.
func TickBudgetOverrun(ctx context.Context, pub logging.Publisher, tick uint64, payload TickBudgetOverrunPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventTickBudgetOverrun,
		Tick:     tick,
		Severity: logging.SeverityWarn,
		Category: logging.CategorySystem,
		Payload:  payload,
	})
}

// CatchUpClamped publishes a warning when the loop abandons backlog.
func CatchUpClamped(ctx context.Context, pub logging.Publisher, tick uint64, payload CatchUpClampedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventCatchUpClamped,
		Tick:     tick,
		Severity: logging.SeverityWarn,
		Category: logging.CategorySystem,
		Payload:  payload,
	})
}

package domain

import (
	"context"

	"propwatch/internal/core/market"
)

// HandlerPort gates and dispatches the change events of one cycle
type HandlerPort interface {
	// HandleEvents evaluates events in order against the effective gate
	// config for their location, audits every decision, and dispatches
	// the allowed ones. Dispatch failures are recorded, never retried
	HandleEvents(ctx context.Context, cycleID string, events []market.ChangeEvent) (HandleResult, error)
}

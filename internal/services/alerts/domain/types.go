// Package domain defines the types and interfaces for the alerts service
package domain

import (
	"time"

	"propwatch/internal/core/gate"
)

// DecisionRow is one audited gate verdict, allowed or suppressed
type DecisionRow struct {
	ID            string
	CycleID       string
	Decision      gate.Decision
	DispatchError string
	CreatedAt     time.Time
}

// HandleResult summarizes one HandleEvents pass
type HandleResult struct {
	Evaluated  int
	Sent       int
	Suppressed int
}

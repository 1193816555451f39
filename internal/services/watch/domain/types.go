// Package domain defines the types and interfaces for the watch orchestrator
package domain

import (
	"time"

	"propwatch/internal/core/market"
)

// StatusRow mirrors one location_states row
type StatusRow struct {
	LocationSlug  string             `json:"location_slug"`
	Status        market.CycleStatus `json:"status"`
	CycleID       string             `json:"cycle_id,omitempty"`
	CapturedAt    time.Time          `json:"captured_at"`
	ListingCount  int                `json:"listing_count"`
	FailureCount  int                `json:"failure_count"`
	LastError     string             `json:"last_error,omitempty"`
	LedgerPending bool               `json:"ledger_pending"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// SweepCommand is one queued on-demand cycle request
type SweepCommand struct {
	ID           string    `json:"id"`
	LocationSlug string    `json:"location_slug"`
	Attempts     int       `json:"attempts"`
	RequestedAt  time.Time `json:"requested_at"`
}

// CycleResult summarizes one completed cycle
type CycleResult struct {
	CycleID      string        `json:"cycle_id"`
	LocationSlug string        `json:"location_slug"`
	Listings     int           `json:"listings"`
	Events       int           `json:"events"`
	Sent         int           `json:"sent"`
	Suppressed   int           `json:"suppressed"`
	Duration     time.Duration `json:"duration"`
}

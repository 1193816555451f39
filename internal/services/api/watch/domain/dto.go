// Package domain holds DTOs for the watch admin http contract
package domain

import (
	"time"

	ptime "propwatch/internal/platform/time"
	watchdom "propwatch/internal/services/watch/domain"
)

// SweepInput queues an immediate cycle for one location
type SweepInput struct {
	Location string `json:"location" validate:"required,min=1,max=64" example:"dubai-marina"`
}

// SweepOutput acknowledges a queued sweep
type SweepOutput struct {
	ID       string `json:"id" example:"0b1f8aa2-14d5-4bbf-a7d2-6a19a1a2b3c4"`
	Location string `json:"location" example:"dubai-marina"`
}

// StatusView is the wire shape of one location state row.
// Timestamps are pointers so locations that never ran serialize without
// a zero time
type StatusView struct {
	LocationSlug  string     `json:"location_slug"`
	Status        string     `json:"status"`
	CycleID       string     `json:"cycle_id,omitempty"`
	CapturedAt    *time.Time `json:"captured_at,omitempty"`
	ListingCount  int        `json:"listing_count"`
	FailureCount  int        `json:"failure_count"`
	LastError     string     `json:"last_error,omitempty"`
	LedgerPending bool       `json:"ledger_pending"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

// NewStatusView maps a state row onto the wire shape
func NewStatusView(r watchdom.StatusRow) StatusView {
	return StatusView{
		LocationSlug:  r.LocationSlug,
		Status:        string(r.Status),
		CycleID:       r.CycleID,
		CapturedAt:    ptime.Ptr(r.CapturedAt),
		ListingCount:  r.ListingCount,
		FailureCount:  r.FailureCount,
		LastError:     r.LastError,
		LedgerPending: r.LedgerPending,
		UpdatedAt:     ptime.Ptr(r.UpdatedAt),
	}
}

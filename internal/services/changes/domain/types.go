// Package domain defines the types and interfaces for the changes feed
package domain

import (
	"time"

	"propwatch/internal/core/market"
)

// AfterKey is the keyset cursor for the feed, ordered (observed_at, id)
type AfterKey struct {
	ObservedAt time.Time `json:"observed_at"`
	ID         string    `json:"id"` // uuid
}

// ListInput filters the feed
type ListInput struct {
	Location string
	Types    []market.ChangeType
	Since    time.Time
	Until    time.Time
	After    AfterKey
	Limit    int
}

// Row is one persisted change event as served by the feed
type Row struct {
	ID            string            `json:"id"`
	CycleID       string            `json:"cycle_id"`
	Type          market.ChangeType `json:"type"`
	LocationSlug  string            `json:"location_slug"`
	ExternalID    string            `json:"external_id"`
	Title         string            `json:"title"`
	OldPrice      int64             `json:"old_price"`
	NewPrice      int64             `json:"new_price"`
	DeltaPct      *float64          `json:"delta_pct,omitempty"`
	ChangedFields []string          `json:"changed_fields,omitempty"`
	ObservedAt    time.Time         `json:"observed_at"`
}

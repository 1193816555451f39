// Package domain defines the types and interfaces for the daily digest
package domain

import (
	"context"
	"time"
)

// EventCounts tallies the last day's change events for one location
type EventCounts struct {
	New          int64 `json:"new"`
	Removed      int64 `json:"removed"`
	Updated      int64 `json:"updated"`
	PriceChanged int64 `json:"price_changed"`
}

// Total sums all counters
func (c EventCounts) Total() int64 { return c.New + c.Removed + c.Updated + c.PriceChanged }

// RunnerPort drives digest generation
type RunnerPort interface {
	// RunOnce builds and dispatches the digest for day. A day already
	// claimed by another replica is a clean skip
	RunOnce(ctx context.Context, day time.Time) error

	// Start schedules RunOnce at the configured time of day until ctx ends
	Start(ctx context.Context) error
}

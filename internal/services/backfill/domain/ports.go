// Package domain defines the ports for replaying cached captures
package domain

import (
	"context"
	"time"

	"propwatch/internal/core/market"
)

// RunnerPort replays cached snapshot captures through the cycle pipeline
type RunnerPort interface {
	// RunRange replays captures in [from, to) for slug, or for every
	// enabled location when slug is empty. Notifications stay off;
	// the ledger's idempotent append makes re-runs safe
	RunRange(ctx context.Context, slug string, from, to time.Time) ([]RunStats, error)

	// Plan lists the captures RunRange would replay without running them
	Plan(ctx context.Context, slug string, from, to time.Time) ([]PlanEntry, error)
}

// ReplayPort rebuilds snapshots from the on-disk page cache
type ReplayPort interface {
	Captures(location string) ([]time.Time, error)
	Snapshot(location string, capturedAt time.Time) (market.Snapshot, error)
}

// PlanEntry is one capture RunRange would replay
type PlanEntry struct {
	LocationSlug string    `json:"location_slug"`
	CapturedAt   time.Time `json:"captured_at"`
}

// RunStats summarizes one location's replay
type RunStats struct {
	LocationSlug string `json:"location_slug"`
	Captures     int    `json:"captures"`
	Replayed     int    `json:"replayed"`
	Skipped      int    `json:"skipped"`
	Failed       int    `json:"failed"`
	Listings     int    `json:"listings"`
	Events       int    `json:"events"`
}

package domain

import (
	"context"

	"propwatch/internal/core/market"
	listdom "propwatch/internal/services/listings/domain"
)

// SnapshotSource produces one full observation of a location
type SnapshotSource interface {
	Fetch(ctx context.Context, loc market.Location, maxPages int) (market.Snapshot, error)
}

// LocationDirectory lists the watched locations.
// Satisfied by the listings catalog port
type LocationDirectory interface {
	Locations(ctx context.Context) ([]listdom.LocationRow, error)
}

// CyclePort runs one full cycle for a location
type CyclePort interface {
	// RunCycle claims the location lease, runs
	// fetch -> detect -> persist -> notify, and releases the lease.
	// A held lease returns a conflict error without running
	RunCycle(ctx context.Context, loc listdom.LocationRow) (CycleResult, error)
}

// WorkerPort runs the per-location tickers and the sweep consumer until ctx ends
type WorkerPort interface {
	Run(ctx context.Context) error
}

// EnqueuerPort queues on-demand sweeps
type EnqueuerPort interface {
	// EnqueueSweep queues an immediate cycle for slug.
	// created=false means a command for the location was already pending
	EnqueueSweep(ctx context.Context, slug string) (id string, created bool, err error)
}

// StatusPort reads per-location cycle state
type StatusPort interface {
	Statuses(ctx context.Context) ([]StatusRow, error)
}

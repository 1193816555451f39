package service

import (
	"context"
	"sync"

	"propwatch/internal/core/market"
	perr "propwatch/internal/platform/errors"
)

// ReplaySource hands pre-built snapshots to the cycle runner.
// The replay loop pushes one snapshot, runs the cycle, then clears
type ReplaySource struct {
	mu     sync.Mutex
	queued map[string][]market.Snapshot
}

// NewReplaySource constructs an empty source
func NewReplaySource() *ReplaySource {
	return &ReplaySource{queued: make(map[string][]market.Snapshot)}
}

// Push queues snap for its location
func (r *ReplaySource) Push(snap market.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queued[snap.LocationSlug] = append(r.queued[snap.LocationSlug], snap)
}

// Clear drops anything still queued for slug, e.g. after a failed cycle
func (r *ReplaySource) Clear(slug string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.queued, slug)
}

// Fetch pops the next queued snapshot for loc. An empty queue is a
// non retryable error so the cycle fails fast instead of backing off
func (r *ReplaySource) Fetch(_ context.Context, loc market.Location, _ int) (market.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q := r.queued[loc.Slug]
	if len(q) == 0 {
		return market.Snapshot{}, perr.Newf(perr.ErrorCodeInvalidArgument,
			"no snapshot queued for %s", loc.Slug)
	}
	snap := q[0]
	r.queued[loc.Slug] = q[1:]
	return snap, nil
}

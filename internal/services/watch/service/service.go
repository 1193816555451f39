// Package service contains the watch orchestrator workflows
package service

import (
	"math/rand"
	"time"

	"github.com/google/uuid"

	"propwatch/internal/core/market"
	"propwatch/internal/modkit/repokit"
	"propwatch/internal/platform/logger"
	alertdom "propwatch/internal/services/alerts/domain"
	ledgerdom "propwatch/internal/services/ledger/domain"
	listdom "propwatch/internal/services/listings/domain"
	"propwatch/internal/services/watch/domain"
	"propwatch/internal/services/watch/repo"
)

// Config carries runtime knobs for the cycle runner and worker loops
type Config struct {
	// Workers caps concurrently running cycles; defaults to 4
	Workers int
	// Interval is the default cycle cadence for locations whose
	// watchlist entry carries none; defaults to 1h
	Interval time.Duration
	// JitterFrac spreads each tick by ±frac of the interval; defaults to 0.1
	JitterFrac float64
	// MaxPages is the fetch page cap for locations without their own
	MaxPages int
	// MaxRetries bounds in-cycle retries of retryable fetch/persist errors
	MaxRetries int
	// RetryBase seeds the exponential backoff between retries
	RetryBase time.Duration
	// LeaseTTL is the per-location lease duration; it must exceed the
	// longest plausible cycle. Defaults to 5m
	LeaseTTL time.Duration
	// SweepBatch is how many queued sweeps one poll leases
	SweepBatch int
	// Owner identifies this replica on leases; defaults to a random uuid
	Owner string
	// Notify disables alert handling when false (backfill replays)
	Notify bool
}

// Svc implements domain.CyclePort, domain.WorkerPort, domain.EnqueuerPort
// and domain.StatusPort
type Svc struct {
	db     repokit.TxRunner
	binder repokit.Binder[repo.Storage]
	lease  repo.Storage // lease and queue ops run outside cycle transactions

	source    domain.SnapshotSource
	directory domain.LocationDirectory
	ledger    ledgerdom.AppendPort
	alerts    alertdom.HandlerPort

	cfg Config
	log logger.Logger
	now func() time.Time
	rnd *rand.Rand
}

// New constructs the watch service.
// alerts may be nil; events are then detected and persisted but never dispatched
func New(
	db repokit.TxRunner,
	b repokit.Binder[repo.Storage],
	source domain.SnapshotSource,
	directory domain.LocationDirectory,
	ledger ledgerdom.AppendPort,
	alerts alertdom.HandlerPort,
	cfg Config,
) *Svc {
	if db == nil {
		panic("watch.Svc requires a non nil TxRunner")
	}
	if source == nil {
		panic("watch.Svc requires a SnapshotSource")
	}
	if ledger == nil {
		panic("watch.Svc requires a ledger AppendPort")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.JitterFrac <= 0 || cfg.JitterFrac >= 1 {
		cfg.JitterFrac = 0.1
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 20
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 500 * time.Millisecond
	}
	if cfg.LeaseTTL <= 0 {
		cfg.LeaseTTL = 5 * time.Minute
	}
	if cfg.SweepBatch <= 0 {
		cfg.SweepBatch = 8
	}
	if cfg.Owner == "" {
		cfg.Owner = uuid.NewString()
	}

	return &Svc{
		db:        db,
		binder:    b,
		lease:     b.Bind(db),
		source:    source,
		directory: directory,
		ledger:    ledger,
		alerts:    alerts,
		cfg:       cfg,
		log:       *logger.Named("watch"),
		now:       func() time.Time { return time.Now().UTC() },
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// interval resolves the effective cadence for one location
func (s *Svc) interval(loc listdom.LocationRow) time.Duration {
	if loc.IntervalMinutes > 0 {
		return time.Duration(loc.IntervalMinutes) * time.Minute
	}
	return s.cfg.Interval
}

// maxPages resolves the effective page cap for one location
func (s *Svc) maxPages(loc listdom.LocationRow) int {
	if loc.MaxPages > 0 {
		return loc.MaxPages
	}
	return s.cfg.MaxPages
}

// jittered returns d stretched by ±JitterFrac
func (s *Svc) jittered(d time.Duration) time.Duration {
	spread := float64(d) * s.cfg.JitterFrac
	off := (s.rnd.Float64()*2 - 1) * spread
	return time.Duration(float64(d) + off)
}

// backoffFor doubles the base per attempt, capped at 30s
func (s *Svc) backoffFor(attempt int) time.Duration {
	d := s.cfg.RetryBase << uint(attempt)
	if d > 30*time.Second {
		d = 30 * time.Second
	}
	return d
}

// toLocation maps a stored location row onto the fetch input
func toLocation(loc listdom.LocationRow) market.Location {
	return market.Location{Slug: loc.Slug, Name: loc.Name, Query: loc.Query}
}

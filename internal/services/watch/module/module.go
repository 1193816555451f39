// Package module wires the watch orchestrator and exposes its ports
package module

import (
	"propwatch/internal/adapters/catalog"
	"propwatch/internal/modkit"
	"propwatch/internal/modkit/httpkit"
	alertdom "propwatch/internal/services/alerts/domain"
	ledgerdom "propwatch/internal/services/ledger/domain"
	"propwatch/internal/services/watch/domain"
	"propwatch/internal/services/watch/repo"
	"propwatch/internal/services/watch/service"
)

// Ports defines watch module ports exposed via the registry
type Ports struct {
	Cycle    domain.CyclePort
	Worker   domain.WorkerPort
	Enqueuer domain.EnqueuerPort
	Status   domain.StatusPort
}

// Wiring carries the cross-module ports the orchestrator consumes.
// Source nil builds the live catalog fetcher from config; Alerts nil
// disables notification entirely (backfill replays)
type Wiring struct {
	Source    domain.SnapshotSource
	Directory domain.LocationDirectory
	Ledger    ledgerdom.AppendPort
	Alerts    alertdom.HandlerPort
}

// Module defines the watch module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs the watch module with its ports
func New(deps modkit.Deps, w Wiring) *Module {
	opts := FromConfig(deps.Cfg)

	if w.Directory == nil {
		panic("watch module requires a location directory (from services/listings)")
	}
	if w.Ledger == nil {
		panic("watch module requires a ledger append port (from services/ledger)")
	}
	if w.Source == nil {
		w.Source = buildFetcher(deps)
	}

	svc := service.New(deps.PG, repo.NewPG(), w.Source, w.Directory, w.Ledger, w.Alerts, service.Config{
		Workers:    opts.Workers,
		Interval:   opts.Interval,
		JitterFrac: opts.JitterFrac,
		MaxPages:   opts.MaxPages,
		MaxRetries: opts.MaxRetries,
		RetryBase:  opts.RetryBase,
		LeaseTTL:   opts.LeaseTTL,
		SweepBatch: opts.SweepBatch,
		Notify:     opts.Notify && w.Alerts != nil,
	})

	m := &Module{deps: deps}
	m.ports = Ports{
		Cycle:    svc,
		Worker:   svc,
		Enqueuer: svc,
		Status:   svc,
	}
	return m
}

// buildFetcher assembles the live snapshot source from config
func buildFetcher(deps modkit.Deps) domain.SnapshotSource {
	co := CatalogFromConfig(deps.Cfg)
	client := catalog.NewClient(catalog.Options{
		BaseURL:     co.BaseURL,
		Index:       co.Index,
		AppID:       co.AppID,
		APIKey:      co.APIKey,
		SiteURL:     co.SiteURL,
		Currency:    co.Currency,
		UserAgent:   co.UserAgent,
		Timeout:     co.Timeout,
		HitsPerPage: co.HitsPerPage,
		MaxRetries:  co.MaxRetries,
		RetryBase:   co.RetryBase,
	})

	fo := catalog.FetcherOptions{PageDelay: co.PageDelay}
	if co.CacheDir != "" {
		fo.Cache = catalog.NewPageCache(co.CacheDir,
			catalog.WithRetention(co.CacheMaxAge, int64(co.CacheMaxMB)<<20))
	}
	return catalog.NewFetcher(client, fo)
}

// Name returns the module name
func (m *Module) Name() string { return "watch" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Prefix returns the module route prefix (none; watch is a worker service)
func (m *Module) Prefix() string { return "" }

// MountRoutes returns no HTTP routes for watch; the admin API mounts its own
func (m *Module) MountRoutes(_ httpkit.Router) {}

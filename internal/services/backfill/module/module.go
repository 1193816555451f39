// Package module wires the backfill replay runner
package module

import (
	"propwatch/internal/adapters/catalog"
	"propwatch/internal/modkit"
	"propwatch/internal/modkit/httpkit"
	"propwatch/internal/services/backfill/domain"
	"propwatch/internal/services/backfill/service"
	ledgerdom "propwatch/internal/services/ledger/domain"
	watchdom "propwatch/internal/services/watch/domain"
	watchmod "propwatch/internal/services/watch/module"
)

// Ports defines the backfill module ports
type Ports struct {
	Runner domain.RunnerPort
}

// Wiring carries the cross-module ports the replay pipeline consumes
type Wiring struct {
	Directory watchdom.LocationDirectory
	Ledger    ledgerdom.AppendPort
}

// Module implements the backfill module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs the backfill module. It builds a private cycle runner
// around a replay source so replays never touch the live fetcher and
// never dispatch alerts
func New(deps modkit.Deps, w Wiring) *Module {
	opts := FromConfig(deps.Cfg)

	co := watchmod.CatalogFromConfig(deps.Cfg)
	if co.CacheDir == "" {
		panic("backfill requires CORE_CATALOG_CACHE_DIR")
	}
	cache := catalog.NewPageCache(co.CacheDir,
		catalog.WithRetention(co.CacheMaxAge, int64(co.CacheMaxMB)<<20))
	replay := catalog.NewReplay(cache, co.Currency, co.SiteURL)

	source := service.NewReplaySource()
	watch := watchmod.New(deps, watchmod.Wiring{
		Source:    source,
		Directory: w.Directory,
		Ledger:    w.Ledger,
		// Alerts stays nil: replayed events are persisted, never dispatched
	})
	cycle := watch.Ports().(watchmod.Ports).Cycle

	svc := service.New(cycle, w.Directory, replay, source, service.Config{
		MaxRangeDays:    opts.MaxRangeDays,
		DelayPerCapture: opts.DelayPerCapture,
	})

	m := &Module{deps: deps}
	m.ports = Ports{Runner: svc}
	return m
}

// Name returns the module name
func (m *Module) Name() string { return "backfill" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Prefix returns the module route prefix (none)
func (m *Module) Prefix() string { return "" }

// MountRoutes is a no-op; backfill is a CLI-driven worker
func (m *Module) MountRoutes(_ httpkit.Router) {}

// Package module provides the listings module
package module

import (
	"context"
	"net/http"

	"propwatch/internal/modkit"
	"propwatch/internal/modkit/httpkit"
	"propwatch/internal/modkit/repokit"
	"propwatch/internal/services/listings/domain"
	"propwatch/internal/services/listings/repo"
	"propwatch/internal/services/listings/service"
)

// Ports exposed by the listings module
type Ports struct {
	Catalog domain.CatalogPort
	Seeder  domain.SeederPort
}

// Module implements modkit.Module
type Module struct {
	deps  modkit.Deps
	ports Ports
	opts  Options
}

// New constructs a new listings module
func New(deps modkit.Deps) *Module {
	opts := FromConfig(deps.Cfg)

	binder := repo.NewPG()
	svc := service.New(repokit.TxRunner(deps.PG), binder, service.Config{
		HardLimit: opts.HardLimit,
	})

	m := &Module{deps: deps, opts: opts}
	m.ports = Ports{Catalog: svc, Seeder: svc}
	return m
}

// Seed loads the configured watchlist file and seeds the locations table.
// Called once at watcher boot
func (m *Module) Seed(ctx context.Context) error {
	wl, err := domain.LoadWatchlist(m.opts.WatchlistPath)
	if err != nil {
		return err
	}
	rows, err := wl.Rows()
	if err != nil {
		return err
	}
	return m.ports.Seeder.SeedWatchlist(ctx, rows)
}

// Name implements modkit.Module
func (m *Module) Name() string { return "listings" }

// Ports implements modkit.Module
func (m *Module) Ports() any { return m.ports }

// Prefix implements modkit.Module
func (m *Module) Prefix() string { return "" }

// Middlewares implements modkit.Module
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return nil }

// MountRoutes implements modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {}

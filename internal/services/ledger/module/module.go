// Package module implements the ledger service module
package module

import (
	"propwatch/internal/modkit"
	"propwatch/internal/modkit/httpkit"
	"propwatch/internal/modkit/repokit"
	"propwatch/internal/services/ledger/domain"
	"propwatch/internal/services/ledger/repo"
	"propwatch/internal/services/ledger/service"
)

// Ports exposed by the ledger module
type Ports struct {
	Append domain.AppendPort
	Query  domain.QueryPort
}

// Module implements the ledger service module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs a new ledger module
func New(deps modkit.Deps) *Module {
	opts := FromConfig(deps.Cfg)

	binder := repo.NewPG()
	svc := service.New(repokit.TxRunner(deps.PG), binder, deps.CH, service.Config{
		HardLimit: opts.HardLimit,
	})

	m := &Module{deps: deps}
	m.ports = Ports{
		Append: svc,
		Query:  svc,
	}
	return m
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return "ledger" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// Prefix satisfies modkit.Module
func (m *Module) Prefix() string { return "" }

// MountRoutes satisfies modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {}

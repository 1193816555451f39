// Package module provides the changes module
package module

import (
	"net/http"

	"propwatch/internal/modkit"
	"propwatch/internal/modkit/httpkit"
	"propwatch/internal/modkit/repokit"
	"propwatch/internal/services/changes/domain"
	"propwatch/internal/services/changes/repo"
	"propwatch/internal/services/changes/service"
)

// Ports exposed by the changes module
type Ports struct {
	Reader domain.ReaderPort
}

// Module implements modkit.Module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs a new changes module
func New(deps modkit.Deps) *Module {
	opts := FromConfig(deps.Cfg)

	binder := repo.NewPG()
	svc := service.New(repokit.TxRunner(deps.PG), binder, service.Config{
		HardLimit: opts.HardLimit,
	})

	m := &Module{deps: deps}
	m.ports = Ports{Reader: svc}
	return m
}

// Name implements modkit.Module
func (m *Module) Name() string { return "changes" }

// Ports implements modkit.Module
func (m *Module) Ports() any { return m.ports }

// Prefix implements modkit.Module
func (m *Module) Prefix() string { return "" }

// Middlewares implements modkit.Module
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return nil }

// MountRoutes implements modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {}

// Package module provides the insights module
package module

import (
	"net/http"

	"propwatch/internal/modkit"
	"propwatch/internal/modkit/httpkit"
	"propwatch/internal/services/insights/domain"
	"propwatch/internal/services/insights/service"
	ledgerdom "propwatch/internal/services/ledger/domain"
)

// Ports exposed by the insights module
type Ports struct {
	Analyzer domain.AnalyzerPort
}

// Module implements modkit.Module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs a new insights module over the ledger query port
func New(deps modkit.Deps, ledger ledgerdom.QueryPort) *Module {
	opts := FromConfig(deps.Cfg)

	svc := service.New(ledger, service.Config{
		DefaultWindowDays: opts.DefaultWindowDays,
		MaxWindowDays:     opts.MaxWindowDays,
		MinPoints:         opts.MinPoints,
		MinOverlap:        opts.MinOverlap,
	})

	m := &Module{deps: deps}
	m.ports = Ports{Analyzer: svc}
	return m
}

// Name implements modkit.Module
func (m *Module) Name() string { return "insights" }

// Ports implements modkit.Module
func (m *Module) Ports() any { return m.ports }

// Prefix implements modkit.Module
func (m *Module) Prefix() string { return "" }

// Middlewares implements modkit.Module
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return nil }

// MountRoutes implements modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {}

// Package module implements the alerts service module
package module

import (
	"propwatch/internal/adapters/notify"
	"propwatch/internal/core/rulebook"
	"propwatch/internal/modkit"
	"propwatch/internal/modkit/httpkit"
	"propwatch/internal/modkit/repokit"
	"propwatch/internal/services/alerts/domain"
	"propwatch/internal/services/alerts/repo"
	"propwatch/internal/services/alerts/service"
)

// Ports exposed by the alerts module
type Ports struct {
	Handler domain.HandlerPort
}

// Module implements the alerts service module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs a new alerts module.
// dispatcher nil falls back to the log channel
func New(deps modkit.Deps, dispatcher notify.Dispatcher) *Module {
	opts := FromConfig(deps.Cfg)

	book, err := rulebook.Load()
	if err != nil {
		panic(err)
	}

	svc := service.New(
		repokit.TxRunner(deps.PG), repo.NewPG(), book, dispatcher,
		service.Config{
			EnvOverrides:    opts.EnvOverrides,
			HistoryLookback: opts.HistoryLookback,
		},
	)

	m := &Module{deps: deps}
	m.ports = Ports{Handler: svc}
	return m
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return "alerts" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// Prefix satisfies modkit.Module
func (m *Module) Prefix() string { return "" }

// MountRoutes satisfies modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {}

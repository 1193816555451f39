// Package module wires the digest service and exposes its ports
package module

import (
	"net/http"

	"propwatch/internal/adapters/notify"
	"propwatch/internal/modkit"
	"propwatch/internal/modkit/httpkit"
	"propwatch/internal/services/digest/domain"
	"propwatch/internal/services/digest/repo"
	"propwatch/internal/services/digest/service"
	insightdom "propwatch/internal/services/insights/domain"
	watchdom "propwatch/internal/services/watch/domain"
)

// Ports exposed by the digest module
type Ports struct {
	Runner domain.RunnerPort
}

// Wiring carries the cross-module ports the digest consumes
type Wiring struct {
	Directory  watchdom.LocationDirectory
	Insights   insightdom.AnalyzerPort
	Dispatcher notify.Dispatcher
}

// Module implements modkit.Module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs the digest module
func New(deps modkit.Deps, w Wiring) *Module {
	opts := FromConfig(deps.Cfg)

	svc := service.New(deps.PG, repo.NewPG(), w.Directory, w.Insights, w.Dispatcher, service.Config{
		At:         opts.At,
		WindowDays: opts.WindowDays,
	})

	m := &Module{deps: deps}
	m.ports = Ports{Runner: svc}
	return m
}

// Name implements modkit.Module
func (m *Module) Name() string { return "digest" }

// Ports implements modkit.Module
func (m *Module) Ports() any { return m.ports }

// Prefix implements modkit.Module
func (m *Module) Prefix() string { return "" }

// Middlewares implements modkit.Module
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return nil }

// MountRoutes implements modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {}

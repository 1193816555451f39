// Package module wires the watch admin surface into the API using modkit
package module

import (
	"crypto/subtle"
	"net/http"

	modkit "propwatch/internal/modkit"
	"propwatch/internal/modkit/httpkit"
	perr "propwatch/internal/platform/errors"
	str "propwatch/internal/platform/strings"
	whttp "propwatch/internal/services/api/watch/http"
	watchdom "propwatch/internal/services/watch/domain"
)

// Ports declares the injected worker port(s) for this API module
type Ports struct {
	Enqueuer watchdom.EnqueuerPort
	Status   watchdom.StatusPort
}

// Module implements the watch admin API module.
// Every route requires the static ops bearer token; the module fails
// closed when no token is configured
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string

	mws       []func(http.Handler) http.Handler
	ports     any
	swaggerOn bool

	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)

	auth *httpkit.Port
}

// New constructs the watch admin API module
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("watch"),
		modkit.WithPrefix("/watch"),
	}, opts...)...)

	cfg := FromConfig(deps.Cfg)
	if cfg.OpsToken == "" {
		panic("watch API module requires CORE_API_OPS_TOKEN")
	}

	var injected Ports
	if p, ok := b.Ports.(Ports); ok {
		injected = p
	}
	if injected.Enqueuer == nil || injected.Status == nil {
		panic("watch API module requires Enqueuer and Status ports (from services/watch)")
	}

	auth := httpkit.NewPortFunc(func(token string) (string, string, error) {
		if subtle.ConstantTimeCompare([]byte(token), []byte(cfg.OpsToken)) != 1 {
			return "", "", perr.Unauthorizedf("invalid ops token")
		}
		return "ops", "", nil
	})

	m := &Module{
		deps:      deps,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		swaggerOn: b.SwaggerOn,
		subrouter: b.Subrouter,
		ports:     injected,
		auth:      auth,
	}

	external := b.Register
	m.register = func(r httpkit.Router) {
		whttp.Register(r, injected.Enqueuer, injected.Status)
		if external != nil {
			external(r)
		}
	}
	return m
}

// MountRoutes mounts the module routes behind the ops token
func (m *Module) MountRoutes(r httpkit.Router) {
	r.Route(m.prefix, func(rr httpkit.Router) {
		for _, mw := range m.mws {
			rr.Use(mw)
		}
		if m.subrouter != nil {
			rr = m.subrouter(rr)
		}
		httpkit.Protected(rr, m.auth, func(sr httpkit.Router) {
			if m.register != nil {
				m.register(sr)
			}
		})
	})
}

// Name returns the module name
func (m *Module) Name() string { return str.MustString(m.name, "module name") }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return str.MustPrefix(m.prefix) }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Middlewares returns the module middlewares
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return m.mws }

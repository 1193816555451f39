// Package api provides the HTTP API for the application
package api

import (
	"propwatch/internal/platform/config"
	"propwatch/internal/platform/logger"
	phttp "propwatch/internal/platform/net/http"
	"propwatch/internal/platform/store"

	"propwatch/internal/modkit"
	"propwatch/internal/modkit/httpkit"
	"propwatch/internal/modkit/module"
	"propwatch/internal/modkit/swaggerkit"

	apichanges "propwatch/internal/services/api/changes/module"
	apiinsights "propwatch/internal/services/api/insights/module"
	apilistings "propwatch/internal/services/api/listings/module"
	metamod "propwatch/internal/services/api/meta/module"
	apiwatch "propwatch/internal/services/api/watch/module"

	// Worker-side modules that own the ports the API exposes
	changesmod "propwatch/internal/services/changes/module"
	insightsmod "propwatch/internal/services/insights/module"
	ledgermod "propwatch/internal/services/ledger/module"
	listingsmod "propwatch/internal/services/listings/module"
	watchmod "propwatch/internal/services/watch/module"
)

// Options are the API options
type Options struct {
	Config         config.Conf
	Store          *store.Store
	Logger         *logger.Logger
	EnableSwagger  bool
	EnableProfiler bool
}

// Mount mounts the API service onto the given router
func Mount(r phttp.Router, opt Options) {
	// shared deps for modules
	deps := modkit.Deps{
		Cfg: opt.Config,
		PG:  opt.Store.PG,
		CH:  opt.Store.CH,
	}

	// Worker-side modules first; the API modules borrow their ports
	ledger := ledgermod.New(deps)
	lports := module.MustPortsOf[ledgermod.Ports](ledger)

	listings := listingsmod.New(deps)
	catalog := module.MustPortsOf[listingsmod.Ports](listings).Catalog

	changes := changesmod.New(deps)
	insights := insightsmod.New(deps, lports.Query)

	// The watch module here serves the admin surface only: Enqueuer and
	// Status ride the shared tables; no worker loop runs in the API process
	watch := watchmod.New(deps, watchmod.Wiring{
		Directory: catalog,
		Ledger:    lports.Append,
	})
	wports := module.MustPortsOf[watchmod.Ports](watch)

	mods := []module.Module{
		metamod.New(deps),
		apiinsights.New(deps, modkit.WithPorts(apiinsights.Ports{
			Analyzer: module.MustPortsOf[insightsmod.Ports](insights).Analyzer,
		})),
		apichanges.New(deps, modkit.WithPorts(apichanges.Ports{
			Reader: module.MustPortsOf[changesmod.Ports](changes).Reader,
		})),
		apilistings.New(deps, modkit.WithPorts(apilistings.Ports{
			Catalog: catalog,
		})),
		apiwatch.New(deps, modkit.WithPorts(apiwatch.Ports{
			Enqueuer: wports.Enqueuer,
			Status:   wports.Status,
		})),
	}

	// versioned API with a common middleware stack
	httpkit.MountAPIV1(r, httpkit.CommonStack(), func(api httpkit.Router) {
		// Swagger + profiler
		swaggerkit.Mount(r, opt.EnableSwagger)
		phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

		for _, m := range mods {
			// register each module's ports under its own name (for cross-module lookups)
			module.Register(m.Name(), m.Ports())

			// mount module routes under its Prefix()
			m.MountRoutes(api)
		}
	})
}

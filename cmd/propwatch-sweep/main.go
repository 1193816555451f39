// Command propwatch-sweep queues on-demand cycles from the CLI.
// The watcher's sweep consumer picks the commands up from the shared table
package main

import (
	"context"
	"flag"

	"github.com/joho/godotenv"

	"propwatch/internal/modkit"
	"propwatch/internal/modkit/module"
	"propwatch/internal/platform/config"
	"propwatch/internal/platform/logger"
	"propwatch/internal/platform/store"

	ledgermod "propwatch/internal/services/ledger/module"
	listingsmod "propwatch/internal/services/listings/module"
	watchmod "propwatch/internal/services/watch/module"
)

func main() {
	// .env is optional; real env always wins
	_ = godotenv.Load()

	root := config.New()
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_")

	l := logger.Get()

	st, err := store.Open(context.Background(), store.Config{
		PG: store.PGConfig{
			Enabled:     true,
			URL:         pgCfg.MustString("DBURL"),
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 2)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", false),
		},
		CH: store.CHConfig{
			Enabled:    true,
			URL:        chCfg.MustString("DBURL"),
			ClientName: "propwatch",
			ClientTag:  "sweep",
		},
	}, store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	var (
		fLocation = flag.String("location", "", "location slug to sweep")
		fAll      = flag.Bool("all", false, "queue a sweep for every enabled location")
	)
	flag.Parse()

	if (*fLocation == "") == !*fAll {
		l.Fatal().Msg("exactly one of -location or -all is required")
	}

	deps := modkit.Deps{
		Cfg: root,
		PG:  st.PG,
		CH:  st.CH,
		Log: *l,
	}

	ledger := ledgermod.New(deps)
	listings := listingsmod.New(deps)
	catalog := module.MustPortsOf[listingsmod.Ports](listings).Catalog

	watch := watchmod.New(deps, watchmod.Wiring{
		Directory: catalog,
		Ledger:    module.MustPortsOf[ledgermod.Ports](ledger).Append,
	})
	enq := module.MustPortsOf[watchmod.Ports](watch).Enqueuer

	ctx := context.Background()

	var slugs []string
	if *fAll {
		locs, err := catalog.Locations(ctx)
		if err != nil {
			l.Fatal().Err(err).Msg("list locations failed")
		}
		for _, loc := range locs {
			if loc.Enabled {
				slugs = append(slugs, loc.Slug)
			}
		}
		if len(slugs) == 0 {
			l.Warn().Msg("no enabled locations to sweep")
		}
	} else {
		slugs = []string{*fLocation}
	}

	failed := 0
	for _, slug := range slugs {
		id, created, err := enq.EnqueueSweep(ctx, slug)
		switch {
		case err != nil:
			l.Error().Err(err).Str("location", slug).Msg("enqueue failed")
			failed++
		case created:
			l.Info().Str("location", slug).Str("id", id).Msg("sweep queued")
		default:
			l.Info().Str("location", slug).Str("id", id).Msg("sweep already pending")
		}
	}
	if failed > 0 {
		l.Fatal().Int("failed", failed).Msg("some sweeps could not be queued")
	}
}

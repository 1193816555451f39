// Command propwatch-watcher runs the per-location watch loops, the sweep
// consumer and the daily digest scheduler in one process
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"flag"

	"github.com/joho/godotenv"

	"propwatch/internal/modkit"
	"propwatch/internal/modkit/module"
	"propwatch/internal/platform/config"
	"propwatch/internal/platform/logger"
	"propwatch/internal/platform/store"

	alertsmod "propwatch/internal/services/alerts/module"
	digestmod "propwatch/internal/services/digest/module"
	insightsmod "propwatch/internal/services/insights/module"
	ledgermod "propwatch/internal/services/ledger/module"
	listingsmod "propwatch/internal/services/listings/module"
	watchmod "propwatch/internal/services/watch/module"
)

func mustSetEnv(key, val string) {
	if val != "" {
		_ = os.Setenv(key, val)
	}
}

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
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", false),
		},
		CH: store.CHConfig{
			Enabled:    true,
			URL:        chCfg.MustString("DBURL"),
			LogSQL:     chCfg.MayBool("LOG_SQL", false),
			ClientName: "propwatch",
			ClientTag:  "watcher",
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
		fWorkers  = flag.Int("workers", 0, "concurrent cycle cap (0 = CORE_WATCH_WORKERS or default)")
		fInterval = flag.String("interval", "", "default cycle cadence, e.g. 1h (empty = CORE_WATCH_INTERVAL or default)")
		fNoDigest = flag.Bool("no-digest", false, "skip the daily digest scheduler")
	)
	flag.Parse()

	// Export flag knobs as env so the modules read them via FromConfig
	if *fWorkers > 0 {
		mustSetEnv("CORE_WATCH_WORKERS", fmt.Sprintf("%d", *fWorkers))
	}
	mustSetEnv("CORE_WATCH_INTERVAL", *fInterval)

	deps := modkit.Deps{
		Cfg: root,
		PG:  st.PG,
		CH:  st.CH,
		Log: *l,
	}

	ledger := ledgermod.New(deps)
	lports := module.MustPortsOf[ledgermod.Ports](ledger)

	listings := listingsmod.New(deps)
	catalog := module.MustPortsOf[listingsmod.Ports](listings).Catalog

	alerts := alertsmod.New(deps, alertsmod.BuildDispatcher(root))
	insights := insightsmod.New(deps, lports.Query)

	watch := watchmod.New(deps, watchmod.Wiring{
		Directory: catalog,
		Ledger:    lports.Append,
		Alerts:    module.MustPortsOf[alertsmod.Ports](alerts).Handler,
	})

	for _, m := range []module.Module{ledger, listings, alerts, insights, watch} {
		module.Register(m.Name(), m.Ports())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Seed the locations table from the watchlist before any loop starts
	if err := listings.Seed(ctx); err != nil {
		l.Fatal().Err(err).Msg("watchlist seed failed")
	}

	if !*fNoDigest {
		digest := digestmod.New(deps, digestmod.Wiring{
			Directory:  catalog,
			Insights:   module.MustPortsOf[insightsmod.Ports](insights).Analyzer,
			Dispatcher: alertsmod.BuildDispatcher(root),
		})
		module.Register(digest.Name(), digest.Ports())
		go func() {
			if err := module.MustPortsOf[digestmod.Ports](digest).Runner.Start(ctx); err != nil {
				l.Error().Err(err).Msg("digest scheduler stopped")
			}
		}()
	}

	if err := module.MustPortsOf[watchmod.Ports](watch).Worker.Run(ctx); err != nil {
		l.Fatal().Err(err).Msg("watch worker failed")
	}
}

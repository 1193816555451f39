// Command propwatch-digest sends the daily per-location summary.
// Default is one run for a single day; -serve keeps the cron scheduler up
package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

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
			ClientTag:  "digest",
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
		fDate  = flag.String("date", "", "digest day YYYY-MM-DD (empty = today UTC)")
		fServe = flag.Bool("serve", false, "run the cron scheduler instead of a single day")
	)
	flag.Parse()

	deps := modkit.Deps{
		Cfg: root,
		PG:  st.PG,
		CH:  st.CH,
		Log: *l,
	}

	ledger := ledgermod.New(deps)
	lports := module.MustPortsOf[ledgermod.Ports](ledger)

	listings := listingsmod.New(deps)
	insights := insightsmod.New(deps, lports.Query)

	digest := digestmod.New(deps, digestmod.Wiring{
		Directory:  module.MustPortsOf[listingsmod.Ports](listings).Catalog,
		Insights:   module.MustPortsOf[insightsmod.Ports](insights).Analyzer,
		Dispatcher: alertsmod.BuildDispatcher(root),
	})
	runner := module.MustPortsOf[digestmod.Ports](digest).Runner

	if *fServe {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		if err := runner.Start(ctx); err != nil {
			l.Fatal().Err(err).Msg("digest scheduler failed")
		}
		return
	}

	day := time.Now().UTC()
	if *fDate != "" {
		day, err = time.Parse("2006-01-02", *fDate)
		if err != nil {
			l.Fatal().Err(err).Str("date", *fDate).Msg("bad -date")
		}
	}

	if err := runner.RunOnce(context.Background(), day); err != nil {
		l.Fatal().Err(err).Msg("digest run failed")
	}
	l.Info().Str("day", day.Format("2006-01-02")).Msg("digest complete")
}

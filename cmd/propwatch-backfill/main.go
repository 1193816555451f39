// Command propwatch-backfill replays cached snapshot captures through the
// detect and persist pipeline. Notifications stay off; the ledger's
// idempotent append makes re-runs safe
package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/joho/godotenv"

	"propwatch/internal/modkit"
	"propwatch/internal/modkit/module"
	"propwatch/internal/platform/config"
	"propwatch/internal/platform/logger"
	"propwatch/internal/platform/store"

	backfillmod "propwatch/internal/services/backfill/module"
	ledgermod "propwatch/internal/services/ledger/module"
	listingsmod "propwatch/internal/services/listings/module"
)

// parseWhen accepts a date or date+hour:
// - "YYYY-MM-DD" (midnight UTC)
// - "YYYY-MM-DDTHH"
func parseWhen(label, v string) time.Time {
	layouts := []string{"2006-01-02T15", "2006-01-02"}
	var lastErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, v)
		if err == nil {
			return t.UTC()
		}
		lastErr = err
	}
	panic(fmt.Errorf("bad -%s: %w", label, lastErr))
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
			ClientTag:  "backfill",
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
		fLocation = flag.String("location", "", "location slug (empty = every enabled location)")
		fFrom     = flag.String("from", "", "UTC range start YYYY-MM-DD or YYYY-MM-DDTHH (inclusive)")
		fTo       = flag.String("to", "", "UTC range end YYYY-MM-DD or YYYY-MM-DDTHH (exclusive)")
		fPlanOnly = flag.Bool("plan-only", false, "list the captures that would be replayed and exit")
	)
	flag.Parse()

	if *fFrom == "" || *fTo == "" {
		l.Fatal().Msg("-from and -to are required")
	}
	from := parseWhen("from", *fFrom)
	to := parseWhen("to", *fTo)

	deps := modkit.Deps{
		Cfg: root,
		PG:  st.PG,
		CH:  st.CH,
		Log: *l,
	}

	ledger := ledgermod.New(deps)
	listings := listingsmod.New(deps)
	catalog := module.MustPortsOf[listingsmod.Ports](listings).Catalog

	backfill := backfillmod.New(deps, backfillmod.Wiring{
		Directory: catalog,
		Ledger:    module.MustPortsOf[ledgermod.Ports](ledger).Append,
	})
	runner := module.MustPortsOf[backfillmod.Ports](backfill).Runner

	ctx := context.Background()

	if *fPlanOnly {
		plan, err := runner.Plan(ctx, *fLocation, from, to)
		if err != nil {
			l.Fatal().Err(err).Msg("plan failed")
		}
		for _, p := range plan {
			l.Info().
				Str("location", p.LocationSlug).
				Time("captured_at", p.CapturedAt).
				Msg("would replay")
		}
		l.Info().Int("captures", len(plan)).Msg("plan complete")
		return
	}

	stats, err := runner.RunRange(ctx, *fLocation, from, to)
	if err != nil {
		l.Fatal().Err(err).Msg("backfill failed")
	}

	failed := 0
	for _, r := range stats {
		failed += r.Failed
		l.Info().
			Str("location", r.LocationSlug).
			Int("captures", r.Captures).
			Int("replayed", r.Replayed).
			Int("skipped", r.Skipped).
			Int("failed", r.Failed).
			Int("listings", r.Listings).
			Int("events", r.Events).
			Msg("location done")
	}
	if failed > 0 {
		l.Fatal().Int("failed", failed).Msg("backfill finished with failures")
	}
	l.Info().Msg("backfill complete")
}

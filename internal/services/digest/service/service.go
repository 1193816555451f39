// Package service provides the daily digest implementation
package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"propwatch/internal/adapters/notify"
	"propwatch/internal/modkit/repokit"
	perr "propwatch/internal/platform/errors"
	"propwatch/internal/platform/logger"
	"propwatch/internal/services/digest/domain"
	"propwatch/internal/services/digest/repo"
	insightdom "propwatch/internal/services/insights/domain"
	watchdom "propwatch/internal/services/watch/domain"
)

// Config for the digest service
type Config struct {
	// At is the daily send time as "HH:MM" UTC; defaults to "08:00"
	At string
	// WindowDays is the insight window attached to each digest; defaults to 30
	WindowDays int
}

// Service implements domain.RunnerPort
type Service struct {
	DB         repokit.TxRunner
	Binder     repokit.Binder[repo.Storage]
	Directory  watchdom.LocationDirectory
	Insights   insightdom.AnalyzerPort
	Dispatcher notify.Dispatcher
	Cfg        Config

	log logger.Logger
	now func() time.Time
}

// New constructs the digest service
func New(
	db repokit.TxRunner,
	b repokit.Binder[repo.Storage],
	directory watchdom.LocationDirectory,
	insights insightdom.AnalyzerPort,
	dispatcher notify.Dispatcher,
	cfg Config,
) *Service {
	if db == nil {
		panic("digest.Service requires a non nil TxRunner")
	}
	if directory == nil || insights == nil {
		panic("digest.Service requires directory and insights ports")
	}
	if dispatcher == nil {
		dispatcher = notify.NewLog()
	}
	if cfg.At == "" {
		cfg.At = "08:00"
	}
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = 30
	}
	return &Service{
		DB:         db,
		Binder:     b,
		Directory:  directory,
		Insights:   insights,
		Dispatcher: dispatcher,
		Cfg:        cfg,
		log:        *logger.Named("digest"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// CronSpec converts "HH:MM" into a five-field cron expression
func CronSpec(at string) (string, error) {
	parts := strings.SplitN(strings.TrimSpace(at), ":", 2)
	if len(parts) != 2 {
		return "", perr.InvalidArgf("digest time %q, want HH:MM", at)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return "", perr.InvalidArgf("digest hour %q", parts[0])
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return "", perr.InvalidArgf("digest minute %q", parts[1])
	}
	return fmt.Sprintf("%d %d * * *", m, h), nil
}

// Start implements domain.RunnerPort
func (s *Service) Start(ctx context.Context) error {
	spec, err := CronSpec(s.Cfg.At)
	if err != nil {
		return err
	}

	c := cron.New(cron.WithLocation(time.UTC))
	if _, err := c.AddFunc(spec, func() {
		day := s.now().Truncate(24 * time.Hour)
		if err := s.RunOnce(ctx, day); err != nil {
			s.log.Error().Err(err).Msg("digest run failed")
		}
	}); err != nil {
		return err
	}

	c.Start()
	s.log.Info().Str("at", s.Cfg.At).Str("cron", spec).Msg("digest scheduled")
	<-ctx.Done()
	<-c.Stop().Done()
	return ctx.Err()
}

// RunOnce implements domain.RunnerPort.
// The digest_runs day claim makes re-runs and concurrent replicas no-ops
func (s *Service) RunOnce(ctx context.Context, day time.Time) error {
	day = day.UTC().Truncate(24 * time.Hour)

	var claimed bool
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		claimed, err = s.Binder.Bind(q).ClaimDay(ctx, day)
		return err
	})
	if err != nil {
		return err
	}
	if !claimed {
		s.log.Debug().Time("day", day).Msg("digest day already claimed, skipping")
		return nil
	}

	locs, err := s.Directory.Locations(ctx)
	if err != nil {
		return err
	}

	until := day.Add(24 * time.Hour)
	since := day
	sent := 0
	for _, loc := range locs {
		if !loc.Enabled {
			continue
		}
		if err := s.digestLocation(ctx, loc.Slug, loc.Name, since, until); err != nil {
			s.log.Warn().Err(err).Str("location", loc.Slug).Msg("location digest failed")
			continue
		}
		sent++
	}
	s.log.Info().Time("day", day).Int("locations", sent).Msg("digest complete")
	return nil
}

func (s *Service) digestLocation(ctx context.Context, slug, name string, since, until time.Time) error {
	var counts domain.EventCounts
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		counts, err = s.Binder.Bind(q).EventCounts(ctx, slug, since, until)
		return err
	})
	if err != nil {
		return err
	}

	insight, err := s.Insights.LocationInsight(ctx, slug, s.Cfg.WindowDays)
	if err != nil {
		return err
	}

	fields := map[string]any{
		"new":           counts.New,
		"removed":       counts.Removed,
		"updated":       counts.Updated,
		"price_changed": counts.PriceChanged,
		"listing_count": insight.ListingCount,
		"avg_price":     insight.AvgPrice,
	}
	if insight.SufficientData {
		fields["trend_pct"] = insight.TrendPct
	}

	return s.Dispatcher.Send(ctx, notify.Alert{
		ID:           fmt.Sprintf("digest-%s-%s", slug, since.Format("2006-01-02")),
		Kind:         notify.KindDigest,
		LocationSlug: slug,
		Title:        fmt.Sprintf("Daily digest for %s: %d changes", name, counts.Total()),
		OccurredAt:   until,
		Fields:       fields,
	})
}

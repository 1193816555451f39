// Package service replays cached snapshot captures through the cycle runner
package service

import (
	"context"
	"time"

	perr "propwatch/internal/platform/errors"
	"propwatch/internal/platform/logger"
	"propwatch/internal/services/backfill/domain"
	listdom "propwatch/internal/services/listings/domain"
	watchdom "propwatch/internal/services/watch/domain"
)

// Config holds configuration options for the backfill service
type Config struct {
	// MaxRangeDays bounds the requested window; 0 = unlimited
	MaxRangeDays int
	// DelayPerCapture is an optional pause between replayed captures
	DelayPerCapture time.Duration
}

// Service implements domain.RunnerPort by feeding cached captures
// through the same detect and persist pipeline the live watcher runs
type Service struct {
	Cycle     watchdom.CyclePort
	Directory watchdom.LocationDirectory
	Replay    domain.ReplayPort
	Source    *ReplaySource
	Cfg       Config

	log logger.Logger
}

// New constructs the backfill service
func New(
	cycle watchdom.CyclePort,
	directory watchdom.LocationDirectory,
	replay domain.ReplayPort,
	source *ReplaySource,
	cfg Config,
) *Service {
	if cycle == nil {
		panic("backfill.Service requires a cycle port")
	}
	if directory == nil {
		panic("backfill.Service requires a location directory")
	}
	if replay == nil {
		panic("backfill.Service requires a replay port")
	}
	if source == nil {
		panic("backfill.Service requires the replay source wired into the cycle runner")
	}
	return &Service{
		Cycle:     cycle,
		Directory: directory,
		Replay:    replay,
		Source:    source,
		Cfg:       cfg,
		log:       *logger.Named("backfill"),
	}
}

// RunRange implements domain.RunnerPort
func (s *Service) RunRange(ctx context.Context, slug string, from, to time.Time) ([]domain.RunStats, error) {
	if err := s.checkRange(from, to); err != nil {
		return nil, err
	}
	locs, err := s.resolve(ctx, slug)
	if err != nil {
		return nil, err
	}

	out := make([]domain.RunStats, 0, len(locs))
	for _, loc := range locs {
		st, err := s.runLocation(ctx, loc, from, to)
		out = append(out, st)
		if err != nil {
			return out, err
		}
	}
	return out, nil
}

// Plan implements domain.RunnerPort
func (s *Service) Plan(ctx context.Context, slug string, from, to time.Time) ([]domain.PlanEntry, error) {
	if err := s.checkRange(from, to); err != nil {
		return nil, err
	}
	locs, err := s.resolve(ctx, slug)
	if err != nil {
		return nil, err
	}

	var out []domain.PlanEntry
	for _, loc := range locs {
		caps, err := s.Replay.Captures(loc.Slug)
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "list captures for %s", loc.Slug)
		}
		for _, at := range caps {
			if !inWindow(at, from, to) {
				continue
			}
			out = append(out, domain.PlanEntry{LocationSlug: loc.Slug, CapturedAt: at})
		}
	}
	return out, nil
}

// runLocation replays one location's captures in capture order.
// Per-capture failures are counted and logged; only context
// cancellation aborts the location
func (s *Service) runLocation(ctx context.Context, loc listdom.LocationRow, from, to time.Time) (domain.RunStats, error) {
	stats := domain.RunStats{LocationSlug: loc.Slug}

	caps, err := s.Replay.Captures(loc.Slug)
	if err != nil {
		return stats, perr.Wrapf(err, perr.ErrorCodeUnavailable, "list captures for %s", loc.Slug)
	}

	for _, at := range caps {
		if !inWindow(at, from, to) {
			continue
		}
		stats.Captures++
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}

		snap, err := s.Replay.Snapshot(loc.Slug, at)
		if err != nil {
			stats.Failed++
			s.log.Warn().Str("location", loc.Slug).Time("captured_at", at).
				Err(err).Msg("capture could not be rebuilt")
			continue
		}

		s.Source.Push(snap)
		res, err := s.Cycle.RunCycle(ctx, loc)
		s.Source.Clear(loc.Slug)

		switch {
		case err == nil:
			stats.Replayed++
			stats.Listings += res.Listings
			stats.Events += res.Events
		case perr.IsCode(err, perr.ErrorCodeInvalidArgument):
			// capture at or before the persisted state; nothing new to apply
			stats.Skipped++
		default:
			stats.Failed++
			s.log.Warn().Str("location", loc.Slug).Time("captured_at", at).
				Err(err).Msg("replay cycle failed")
		}

		if s.Cfg.DelayPerCapture > 0 {
			if err := sleepCtx(ctx, s.Cfg.DelayPerCapture); err != nil {
				return stats, err
			}
		}
	}

	s.log.Info().
		Str("location", loc.Slug).
		Int("captures", stats.Captures).
		Int("replayed", stats.Replayed).
		Int("skipped", stats.Skipped).
		Int("failed", stats.Failed).
		Int("listings", stats.Listings).
		Int("events", stats.Events).
		Msg("replay finished")
	return stats, nil
}

// resolve picks the locations to replay. An explicit slug matches even
// a disabled entry; the empty slug means every enabled location
func (s *Service) resolve(ctx context.Context, slug string) ([]listdom.LocationRow, error) {
	locs, err := s.Directory.Locations(ctx)
	if err != nil {
		return nil, err
	}
	if slug == "" {
		out := make([]listdom.LocationRow, 0, len(locs))
		for _, loc := range locs {
			if loc.Enabled {
				out = append(out, loc)
			}
		}
		return out, nil
	}
	for _, loc := range locs {
		if loc.Slug == slug {
			return []listdom.LocationRow{loc}, nil
		}
	}
	return nil, perr.NotFoundf("location %q is not on the watchlist", slug)
}

func (s *Service) checkRange(from, to time.Time) error {
	if !to.After(from) {
		return perr.InvalidArgf("replay range end %s is not after start %s",
			to.Format(time.RFC3339), from.Format(time.RFC3339))
	}
	if s.Cfg.MaxRangeDays > 0 && to.Sub(from) > time.Duration(s.Cfg.MaxRangeDays)*24*time.Hour {
		return perr.InvalidArgf("replay range exceeds %d days", s.Cfg.MaxRangeDays)
	}
	return nil
}

func inWindow(at, from, to time.Time) bool {
	return !at.Before(from) && at.Before(to)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

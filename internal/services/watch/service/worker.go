package service

import (
	"context"
	"time"

	perr "propwatch/internal/platform/errors"
	listdom "propwatch/internal/services/listings/domain"
	"propwatch/internal/services/watch/domain"
)

// Run implements domain.WorkerPort.
// One goroutine per enabled location on a jittered ticker, plus a sweep
// consumer; concurrently running cycles are capped by Workers. Returns
// when ctx ends or the sweep loop hits an unrecoverable queue error
func (s *Svc) Run(ctx context.Context) error {
	locs, err := s.directory.Locations(ctx)
	if err != nil {
		return err
	}

	sem := make(chan struct{}, s.cfg.Workers)
	enabled := 0
	for _, loc := range locs {
		if !loc.Enabled {
			continue
		}
		enabled++
		go s.runLocationLoop(ctx, loc, sem)
	}
	s.log.Info().
		Int("locations", enabled).
		Int("workers", s.cfg.Workers).
		Str("owner", s.cfg.Owner).
		Msg("watch worker started")

	return s.runSweepLoop(ctx, sem)
}

// runLocationLoop ticks one location forever.
// The first cycle runs after one jittered interval, not at boot, so a
// fleet restart does not stampede the source
func (s *Svc) runLocationLoop(ctx context.Context, loc listdom.LocationRow, sem chan struct{}) {
	interval := s.interval(loc)
	t := time.NewTimer(s.jittered(interval))
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			if _, err := s.RunCycle(ctx, loc); err != nil && !perr.IsCode(err, perr.ErrorCodeConflict) {
				s.log.Warn().Err(err).Str("location", loc.Slug).Msg("scheduled cycle failed")
			}
			<-sem
			t.Reset(s.jittered(interval))
		}
	}
}

// runSweepLoop consumes queued on-demand cycles
func (s *Svc) runSweepLoop(ctx context.Context, sem chan struct{}) error {
	t := time.NewTicker(time.Second)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			cmds, err := s.lease.LeaseSweeps(ctx, s.cfg.Owner, s.cfg.SweepBatch, s.cfg.LeaseTTL)
			if err != nil {
				s.log.Error().Err(err).Msg("sweep lease failed")
				continue
			}
			for _, cmd := range cmds {
				select {
				case sem <- struct{}{}:
				case <-ctx.Done():
					return ctx.Err()
				}
				s.runSweep(ctx, cmd.ID, cmd.LocationSlug, cmd.Attempts)
				<-sem
			}
		}
	}
}

func (s *Svc) runSweep(ctx context.Context, id, slug string, attempts int) {
	log := s.log.With().Str("sweep_id", id).Str("location", slug).Logger()

	loc, err := s.locationBySlug(ctx, slug)
	if err != nil {
		// unknown or disabled locations complete the command instead of
		// poisoning the queue
		log.Warn().Err(err).Msg("sweep dropped")
		if cerr := s.lease.CompleteSweep(ctx, id); cerr != nil {
			log.Error().Err(cerr).Msg("sweep complete failed")
		}
		return
	}

	if _, err := s.RunCycle(ctx, loc); err != nil {
		next := s.now().Add(s.backoffFor(attempts))
		log.Warn().Err(err).Time("next_attempt", next).Msg("sweep requeued")
		if rerr := s.lease.RequeueSweep(ctx, id, next, trimErr(err)); rerr != nil {
			log.Error().Err(rerr).Msg("sweep requeue failed")
		}
		return
	}
	if err := s.lease.CompleteSweep(ctx, id); err != nil {
		log.Error().Err(err).Msg("sweep complete failed")
	}
}

func (s *Svc) locationBySlug(ctx context.Context, slug string) (listdom.LocationRow, error) {
	locs, err := s.directory.Locations(ctx)
	if err != nil {
		return listdom.LocationRow{}, err
	}
	for _, loc := range locs {
		if loc.Slug == slug && loc.Enabled {
			return loc, nil
		}
	}
	return listdom.LocationRow{}, perr.NotFoundf("location %s", slug)
}

// EnqueueSweep implements domain.EnqueuerPort
func (s *Svc) EnqueueSweep(ctx context.Context, slug string) (string, bool, error) {
	return s.lease.EnqueueSweep(ctx, slug)
}

// Statuses implements domain.StatusPort
func (s *Svc) Statuses(ctx context.Context) ([]domain.StatusRow, error) {
	return s.lease.Statuses(ctx)
}

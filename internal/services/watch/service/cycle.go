package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"propwatch/internal/core/diff"
	"propwatch/internal/core/market"
	"propwatch/internal/modkit/repokit"
	perr "propwatch/internal/platform/errors"
	listdom "propwatch/internal/services/listings/domain"
	"propwatch/internal/services/watch/domain"
)

// RunCycle implements domain.CyclePort.
//
// idle -> fetching -> detecting -> persisting -> notifying -> idle,
// failed from any active state. The location lease is held for the
// whole cycle; a held lease returns conflict without touching state
func (s *Svc) RunCycle(ctx context.Context, loc listdom.LocationRow) (domain.CycleResult, error) {
	claimed, err := s.lease.ClaimLease(ctx, loc.Slug, s.cfg.Owner, s.cfg.LeaseTTL)
	if err != nil {
		return domain.CycleResult{}, err
	}
	if !claimed {
		return domain.CycleResult{}, perr.Conflictf("location %s is leased", loc.Slug)
	}
	defer func() {
		if rerr := s.lease.ReleaseLease(context.WithoutCancel(ctx), loc.Slug, s.cfg.Owner); rerr != nil {
			s.log.Warn().Err(rerr).Str("location", loc.Slug).Msg("lease release failed")
		}
	}()

	start := s.now()
	cycleID := uuid.NewString()
	log := s.log.With().Str("location", loc.Slug).Str("cycle_id", cycleID).Logger()

	res, err := s.runLeased(ctx, loc, cycleID)
	if err != nil {
		if merr := s.lease.MarkFailure(context.WithoutCancel(ctx), loc.Slug, trimErr(err)); merr != nil {
			log.Warn().Err(merr).Msg("failure mark failed")
		}
		log.Error().Err(err).Msg("cycle failed")
		return domain.CycleResult{}, err
	}

	res.CycleID = cycleID
	res.LocationSlug = loc.Slug
	res.Duration = s.now().Sub(start)
	log.Info().
		Int("listings", res.Listings).
		Int("events", res.Events).
		Int("sent", res.Sent).
		Dur("took", res.Duration).
		Msg("cycle complete")
	return res, nil
}

func (s *Svc) runLeased(ctx context.Context, loc listdom.LocationRow, cycleID string) (domain.CycleResult, error) {
	// previous state; also drives ledger recovery before a new fetch
	prevStatus, known, err := s.lease.State(ctx, loc.Slug)
	if err != nil {
		return domain.CycleResult{}, err
	}
	prev, err := s.loadState(ctx, loc.Slug, prevStatus)
	if err != nil {
		return domain.CycleResult{}, err
	}
	if known && prevStatus.LedgerPending {
		if err := s.recoverLedger(ctx, loc.Slug, prev); err != nil {
			return domain.CycleResult{}, err
		}
	}

	// fetching
	if err := s.lease.SetStatus(ctx, loc.Slug, market.StatusFetching); err != nil {
		return domain.CycleResult{}, err
	}
	snap, err := s.fetchWithRetry(ctx, loc)
	if err != nil {
		return domain.CycleResult{}, err
	}

	// detecting; a broken snapshot fails the cycle immediately
	if err := s.lease.SetStatus(ctx, loc.Slug, market.StatusDetecting); err != nil {
		return domain.CycleResult{}, err
	}
	events, err := diff.Detect(prev, snap, diff.Stamp{
		CycleID:    cycleID,
		ObservedAt: snap.CapturedAt,
		NewEventID: uuid.NewString,
	})
	if err != nil {
		return domain.CycleResult{}, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "detect")
	}

	// persisting
	if err := s.lease.SetStatus(ctx, loc.Slug, market.StatusPersisting); err != nil {
		return domain.CycleResult{}, err
	}
	if err := s.persistWithRetry(ctx, snap, events, cycleID); err != nil {
		return domain.CycleResult{}, err
	}

	// ledger append outside the state transaction; a failure leaves
	// ledger_pending set and the next cycle re-derives the batch
	if err := s.appendLedger(ctx, snap); err != nil {
		s.log.Warn().Err(err).Str("location", loc.Slug).Msg("ledger append failed, marked pending")
	} else if err := s.lease.SetLedgerPending(ctx, loc.Slug, false); err != nil {
		return domain.CycleResult{}, err
	}

	// notifying; dispatch problems never fail the cycle
	res := domain.CycleResult{Listings: len(snap.Listings), Events: len(events)}
	if s.cfg.Notify && s.alerts != nil && len(events) > 0 {
		if err := s.lease.SetStatus(ctx, loc.Slug, market.StatusNotifying); err != nil {
			return domain.CycleResult{}, err
		}
		hr, err := s.alerts.HandleEvents(ctx, cycleID, events)
		if err != nil {
			s.log.Warn().Err(err).Str("location", loc.Slug).Msg("alert handling failed")
		}
		res.Sent, res.Suppressed = hr.Sent, hr.Suppressed
	}

	if err := s.lease.SetStatus(ctx, loc.Slug, market.StatusIdle); err != nil {
		return domain.CycleResult{}, err
	}
	return res, nil
}

// loadState rebuilds the in-memory state from the active listings rows
func (s *Svc) loadState(
	ctx context.Context,
	slug string,
	st domain.StatusRow,
) (market.LocationState, error) {
	listings, err := s.lease.ActiveListings(ctx, slug)
	if err != nil {
		return market.LocationState{}, err
	}
	return market.LocationState{
		LocationSlug: slug,
		Listings:     listings,
		CycleID:      st.CycleID,
		CapturedAt:   st.CapturedAt,
	}, nil
}

// recoverLedger re-appends the batch a partially failed cycle never wrote.
// The state rows carry the prices at the state's captured-at, and the
// (id, captured-at) conflict key absorbs any overlap with what did land
func (s *Svc) recoverLedger(ctx context.Context, slug string, prev market.LocationState) error {
	if len(prev.Listings) == 0 || prev.CapturedAt.IsZero() {
		return s.lease.SetLedgerPending(ctx, slug, false)
	}

	snap := market.Snapshot{LocationSlug: slug, CapturedAt: prev.CapturedAt}
	for _, l := range prev.Listings {
		snap.Listings = append(snap.Listings, l)
	}
	if err := s.appendLedger(ctx, snap); err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "ledger recovery")
	}
	s.log.Info().Str("location", slug).Int("points", len(snap.Listings)).Msg("pending ledger batch recovered")
	return s.lease.SetLedgerPending(ctx, slug, false)
}

// fetchWithRetry retries retryable fetch errors with backoff and jitter
func (s *Svc) fetchWithRetry(ctx context.Context, loc listdom.LocationRow) (market.Snapshot, error) {
	var last error
	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, s.jittered(s.backoffFor(attempt-1))); err != nil {
				return market.Snapshot{}, err
			}
		}
		snap, err := s.source.Fetch(ctx, toLocation(loc), s.maxPages(loc))
		if err == nil {
			return snap, nil
		}
		last = err
		if !perr.Retryable(err) {
			break
		}
		s.log.Debug().Err(err).Str("location", loc.Slug).Int("attempt", attempt+1).Msg("fetch retry")
	}
	return market.Snapshot{}, perr.Wrapf(last, perr.ErrorCodeUnavailable, "fetch %s", loc.Slug)
}

// persistWithRetry commits the state replacement in one transaction.
// ledger_pending is set inside the same commit so a crash between the
// state write and the append is indistinguishable from an append failure
func (s *Svc) persistWithRetry(
	ctx context.Context,
	snap market.Snapshot,
	events []market.ChangeEvent,
	cycleID string,
) error {
	keep := make([]string, 0, len(snap.Listings))
	for _, l := range snap.Listings {
		keep = append(keep, l.ExternalID)
	}

	persist := func() error {
		return s.db.Tx(ctx, func(q repokit.Queryer) error {
			st := s.binder.Bind(q)
			if err := st.UpsertListings(ctx, snap); err != nil {
				return err
			}
			if err := st.DeactivateMissing(ctx, snap.LocationSlug, keep, snap.CapturedAt); err != nil {
				return err
			}
			if err := st.UpsertAgencies(ctx, snap.Listings, snap.CapturedAt); err != nil {
				return err
			}
			if err := st.InsertChangeEvents(ctx, events); err != nil {
				return err
			}
			return st.SaveCycleState(ctx, domain.StatusRow{
				LocationSlug:  snap.LocationSlug,
				Status:        market.StatusPersisting,
				CycleID:       cycleID,
				CapturedAt:    snap.CapturedAt,
				ListingCount:  len(snap.Listings),
				LedgerPending: true,
			})
		})
	}

	var last error
	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, s.jittered(s.backoffFor(attempt-1))); err != nil {
				return err
			}
		}
		if last = persist(); last == nil {
			return nil
		}
		if !perr.Retryable(last) {
			break
		}
		s.log.Debug().Err(last).Str("location", snap.LocationSlug).Int("attempt", attempt+1).Msg("persist retry")
	}
	return perr.Wrapf(last, perr.ErrorCodeUnavailable, "persist %s", snap.LocationSlug)
}

// appendLedger converts the snapshot into price points and appends them
func (s *Svc) appendLedger(ctx context.Context, snap market.Snapshot) error {
	points := make([]market.PricePoint, 0, len(snap.Listings))
	for _, l := range snap.Listings {
		p := market.PricePoint{
			ExternalID:   l.ExternalID,
			LocationSlug: snap.LocationSlug,
			Price:        l.Price,
			Currency:     l.Currency,
			CapturedAt:   snap.CapturedAt,
			Source:       "watch",
		}
		if l.AreaSqm > 0 {
			p.AreaSqm = market.FloatPtr(l.AreaSqm)
		}
		points = append(points, p)
	}
	return s.ledger.AppendPricePoints(ctx, points)
}

// sleepCtx sleeps for d unless ctx ends first
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

// trimErr bounds error text stored on state rows
func trimErr(err error) string {
	s := err.Error()
	if len(s) > 500 {
		s = s[:500]
	}
	return s
}

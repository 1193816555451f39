// Package service provides the alerts service implementation
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"propwatch/internal/adapters/notify"
	"propwatch/internal/core/gate"
	"propwatch/internal/core/market"
	"propwatch/internal/core/rulebook"
	"propwatch/internal/modkit/repokit"
	"propwatch/internal/platform/logger"
	"propwatch/internal/services/alerts/domain"
	"propwatch/internal/services/alerts/repo"
)

// Config for the alerts service
type Config struct {
	// EnvOverrides is a JSON profile fragment built from CORE_ALERTS_*
	// env vars; layered between rulebook defaults and location overrides
	EnvOverrides []byte

	// HistoryLookback bounds the recent-decision read; it must cover the
	// longest cooldown and rate window in use. Defaults to 48h
	HistoryLookback time.Duration
}

// Service implements domain.HandlerPort.
// Effective gate config per event is rulebook category profile, then env
// overrides, then the location's watchlist overrides
type Service struct {
	DB         repokit.TxRunner
	Binder     repokit.Binder[repo.Storage]
	Book       *rulebook.Book
	Dispatcher notify.Dispatcher
	Cfg        Config

	log logger.Logger
	now func() time.Time
}

// New constructs the alerts service
func New(
	db repokit.TxRunner,
	b repokit.Binder[repo.Storage],
	book *rulebook.Book,
	dispatcher notify.Dispatcher,
	cfg Config,
) *Service {
	if db == nil {
		panic("alerts.Service requires a non nil TxRunner")
	}
	if book == nil {
		panic("alerts.Service requires a rulebook")
	}
	if dispatcher == nil {
		dispatcher = notify.NewLog()
	}
	if cfg.HistoryLookback <= 0 {
		cfg.HistoryLookback = 48 * time.Hour
	}
	return &Service{
		DB:         db,
		Binder:     b,
		Book:       book,
		Dispatcher: dispatcher,
		Cfg:        cfg,
		log:        *logger.Named("alerts"),
		now:        time.Now,
	}
}

// HandleEvents implements domain.HandlerPort.
// Decisions are evaluated and audited inside one transaction; dispatch runs
// after commit so a slow channel never holds a DB connection, and a failed
// send marks the audit row instead of retrying
func (s *Service) HandleEvents(
	ctx context.Context,
	cycleID string,
	events []market.ChangeEvent,
) (domain.HandleResult, error) {
	res := domain.HandleResult{}
	if len(events) == 0 {
		return res, nil
	}
	slug := events[0].LocationSlug
	now := s.now().UTC()

	type pendingSend struct {
		rowID string
		alert notify.Alert
	}
	var sends []pendingSend

	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		st := s.Binder.Bind(q)

		locOverrides, err := st.LocationOverrides(ctx, slug)
		if err != nil {
			return err
		}
		recent, err := st.RecentDecisions(ctx, slug, now.Add(-s.Cfg.HistoryLookback))
		if err != nil {
			return err
		}

		rows := make([]domain.DecisionRow, 0, len(events))
		for _, ev := range events {
			profile, err := s.effectiveProfile(ev.Listing.Category, locOverrides)
			if err != nil {
				return err
			}

			dec := gate.Evaluate(ev, profile.Config(now), recent)
			recent = append(recent, dec)

			row := domain.DecisionRow{
				ID:        uuid.NewString(),
				CycleID:   cycleID,
				Decision:  dec,
				CreatedAt: now,
			}
			rows = append(rows, row)

			res.Evaluated++
			if dec.Suppressed {
				res.Suppressed++
				continue
			}
			res.Sent++
			sends = append(sends, pendingSend{
				rowID: row.ID,
				alert: buildAlert(row.ID, ev, now),
			})
		}
		return st.InsertDecisions(ctx, rows)
	})
	if err != nil {
		return domain.HandleResult{}, err
	}

	for _, p := range sends {
		if err := s.Dispatcher.Send(ctx, p.alert); err != nil {
			s.log.Error().Err(err).
				Str("alert_id", p.alert.ID).
				Str("location", slug).
				Msg("alert dispatch failed, dropped")
			s.markDispatchError(ctx, p.rowID, err)
		}
	}
	return res, nil
}

// effectiveProfile layers env and location overrides over the category profile
func (s *Service) effectiveProfile(category string, locOverrides []byte) (rulebook.Profile, error) {
	p := s.Book.Resolve(category)
	p, err := rulebook.OverlayJSON(p, s.Cfg.EnvOverrides)
	if err != nil {
		return rulebook.Profile{}, err
	}
	return rulebook.OverlayJSON(p, locOverrides)
}

func (s *Service) markDispatchError(ctx context.Context, rowID string, cause error) {
	msg := cause.Error()
	if len(msg) > 500 {
		msg = msg[:500]
	}
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		return s.Binder.Bind(q).MarkDispatchError(ctx, rowID, msg)
	})
	if err != nil {
		s.log.Error().Err(err).Str("alert_id", rowID).Msg("failed to record dispatch error")
	}
}

// buildAlert turns an allowed event into the dispatcher envelope
func buildAlert(id string, ev market.ChangeEvent, now time.Time) notify.Alert {
	title := fmt.Sprintf("%s: %s %s", ev.LocationSlug, ev.Type, ev.ExternalID)
	if ev.Type == market.ChangePriceChanged {
		if ev.DeltaPct != nil {
			title = fmt.Sprintf("%s: price %+.2f%% on %s", ev.LocationSlug, *ev.DeltaPct, ev.ExternalID)
		} else {
			title = fmt.Sprintf("%s: price moved %d -> %d on %s (delta undefined)",
				ev.LocationSlug, ev.OldPrice, ev.NewPrice, ev.ExternalID)
		}
	}
	evCopy := ev
	return notify.Alert{
		ID:           id,
		Kind:         notify.KindChange,
		LocationSlug: ev.LocationSlug,
		Title:        title,
		OccurredAt:   now,
		Event:        &evCopy,
	}
}

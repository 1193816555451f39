// Package service provides the ledger service implementation
package service

import (
	"context"

	"propwatch/internal/core/market"
	"propwatch/internal/modkit/repokit"
	"propwatch/internal/platform/logger"
	"propwatch/internal/platform/store"
	"propwatch/internal/services/ledger/domain"
	"propwatch/internal/services/ledger/repo"
)

// chTable is the analytics mirror target, column order matches chMirrorRows
const chTable = "price_points (listing_ext_id, location_slug, price, currency, captured_at)"

// Config for the ledger service
type Config struct {
	// HardLimit caps LatestByListing result size; defaults to 500 if <= 0
	HardLimit int
}

// Service implements domain.AppendPort and domain.QueryPort.
// Writes land in Postgres; when a ClickHouse seam is present each batch is
// mirrored there best effort so analytical reads can move off the primary
type Service struct {
	DB     repokit.TxRunner
	Binder repokit.Binder[repo.Storage]
	CH     store.Clickhouse
	Cfg    Config

	log logger.Logger
}

// New constructs a new ledger service. ch may be nil
func New(db repokit.TxRunner, b repokit.Binder[repo.Storage], ch store.Clickhouse, cfg Config) *Service {
	if db == nil {
		panic("ledger.Service requires a non nil TxRunner")
	}
	if b == nil {
		panic("ledger.Service requires a non nil Binder")
	}
	if cfg.HardLimit <= 0 {
		cfg.HardLimit = 500
	}
	return &Service{DB: db, Binder: b, CH: ch, Cfg: cfg, log: *logger.Named("ledger")}
}

// AppendPricePoints implements domain.AppendPort.
// The whole batch goes through one statement in one transaction so a
// failure never half-applies, and the conflict key absorbs replays
func (s *Service) AppendPricePoints(ctx context.Context, points []market.PricePoint) error {
	if len(points) == 0 {
		return nil
	}
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		return s.Binder.Bind(q).AppendBatch(ctx, points)
	})
	if err != nil {
		return err
	}
	s.mirror(ctx, points)
	return nil
}

// mirror forwards the batch to ClickHouse. Mirror failures are logged and
// swallowed; the Postgres ledger is the source of truth
func (s *Service) mirror(ctx context.Context, points []market.PricePoint) {
	if s.CH == nil {
		return
	}
	rows := make([][]any, 0, len(points))
	for _, p := range points {
		rows = append(rows, []any{p.ExternalID, p.LocationSlug, p.Price, p.Currency, p.CapturedAt})
	}
	if err := s.CH.Insert(ctx, chTable, rows); err != nil {
		s.log.Warn().Err(err).Int("points", len(points)).Msg("clickhouse mirror append failed")
	}
}

// RangeByLocation implements domain.QueryPort
func (s *Service) RangeByLocation(
	ctx context.Context,
	slug string,
	w domain.Window,
) ([]market.PricePoint, error) {
	var out []market.PricePoint
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		out, err = s.Binder.Bind(q).RangeByLocation(ctx, slug, w)
		return err
	})
	return out, err
}

// CountByLocation implements domain.QueryPort
func (s *Service) CountByLocation(ctx context.Context, slug string, w domain.Window) (int64, error) {
	var n int64
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		n, err = s.Binder.Bind(q).CountByLocation(ctx, slug, w)
		return err
	})
	return n, err
}

// LatestByListing implements domain.QueryPort
func (s *Service) LatestByListing(ctx context.Context, slug string, limit int) ([]domain.LatestPrice, error) {
	if limit <= 0 || limit > s.Cfg.HardLimit {
		limit = s.Cfg.HardLimit
	}
	var out []domain.LatestPrice
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		out, err = s.Binder.Bind(q).LatestByListing(ctx, slug, limit)
		return err
	})
	return out, err
}

// DailySeries implements domain.QueryPort.
// The ClickHouse mirror answers when configured; Postgres date_trunc is the
// fallback so the endpoint works on a PG-only deployment
func (s *Service) DailySeries(ctx context.Context, slug string, w domain.Window) ([]domain.DayBucket, error) {
	if s.CH != nil {
		out, err := s.dailySeriesCH(ctx, slug, w)
		if err == nil {
			return out, nil
		}
		s.log.Warn().Err(err).Str("location", slug).Msg("clickhouse daily series failed, falling back to pg")
	}

	var out []domain.DayBucket
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		out, err = s.Binder.Bind(q).DailySeries(ctx, slug, w)
		return err
	})
	return out, err
}

func (s *Service) dailySeriesCH(ctx context.Context, slug string, w domain.Window) ([]domain.DayBucket, error) {
	const sqlq = `
		SELECT toStartOfDay(captured_at) AS day, avg(price) AS mean_price, count() AS points
		FROM price_points
		WHERE location_slug = ? AND captured_at >= ? AND captured_at < ?
		GROUP BY day
		ORDER BY day ASC`

	rows, err := s.CH.Query(ctx, sqlq, slug, w.Since, w.Until)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.DayBucket
	for rows.Next() {
		var b domain.DayBucket
		var points uint64
		if err := rows.Scan(&b.Day, &b.MeanPrice, &points); err != nil {
			return nil, err
		}
		b.Points = int64(points)
		out = append(out, b)
	}
	return out, rows.Err()
}

// Package repo provides the Postgres ledger repository
package repo

import (
	"context"
	"fmt"
	"strings"

	"propwatch/internal/core/market"
	"propwatch/internal/modkit/repokit"
	"propwatch/internal/services/ledger/domain"
)

type (
	pg     struct{ q repokit.Queryer }
	binder struct{}
)

// NewPG constructs a new repo binder for Postgres
func NewPG() repokit.Binder[Storage] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) Storage { return &pg{q: q} }

// Storage defines the ledger repository
type Storage interface {
	AppendBatch(ctx context.Context, points []market.PricePoint) error
	RangeByLocation(ctx context.Context, slug string, w domain.Window) ([]market.PricePoint, error)
	CountByLocation(ctx context.Context, slug string, w domain.Window) (int64, error)
	LatestByListing(ctx context.Context, slug string, limit int) ([]domain.LatestPrice, error)
	DailySeries(ctx context.Context, slug string, w domain.Window) ([]domain.DayBucket, error)
}

// AppendBatch implements Storage as one multi-row insert.
// The (listing_ext_id, captured_at) key makes duplicate appends no-ops,
// which is what keeps crash-retried cycles from corrupting aggregates
func (s *pg) AppendBatch(ctx context.Context, points []market.PricePoint) error {
	if len(points) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO price_points
		(listing_ext_id, location_slug, price, currency, area_sqm, captured_at, source) VALUES `)

	args := make([]any, 0, len(points)*7)
	for i, p := range points {
		if i > 0 {
			sb.WriteByte(',')
		}
		base := i*7 + 1
		fmt.Fprintf(&sb, "($%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base, base+1, base+2, base+3, base+4, base+5, base+6)

		args = append(args,
			p.ExternalID, p.LocationSlug, p.Price, p.Currency,
			p.AreaSqm, p.CapturedAt, p.Source,
		)
	}
	sb.WriteString(` ON CONFLICT (listing_ext_id, captured_at) DO NOTHING`)
	_, err := s.q.Exec(ctx, sb.String(), args...)
	return err
}

// RangeByLocation implements Storage
func (s *pg) RangeByLocation(
	ctx context.Context,
	slug string,
	w domain.Window,
) ([]market.PricePoint, error) {
	const sqlq = `
		SELECT listing_ext_id, location_slug, price, currency, area_sqm, captured_at, source
		FROM price_points
		WHERE location_slug = $1 AND captured_at >= $2 AND captured_at < $3
		ORDER BY captured_at ASC, listing_ext_id ASC`

	rows, err := s.q.Query(ctx, sqlq, slug, w.Since, w.Until)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []market.PricePoint
	for rows.Next() {
		var p market.PricePoint
		if err := rows.Scan(
			&p.ExternalID, &p.LocationSlug, &p.Price, &p.Currency,
			&p.AreaSqm, &p.CapturedAt, &p.Source,
		); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CountByLocation implements Storage
func (s *pg) CountByLocation(ctx context.Context, slug string, w domain.Window) (int64, error) {
	const sqlq = `
		SELECT COUNT(*)
		FROM price_points
		WHERE location_slug = $1 AND captured_at >= $2 AND captured_at < $3`

	var n int64
	if err := s.q.QueryRow(ctx, sqlq, slug, w.Since, w.Until).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// LatestByListing implements Storage
func (s *pg) LatestByListing(ctx context.Context, slug string, limit int) ([]domain.LatestPrice, error) {
	const sqlq = `
		SELECT DISTINCT ON (listing_ext_id)
			listing_ext_id, price, currency, captured_at
		FROM price_points
		WHERE location_slug = $1
		ORDER BY listing_ext_id, captured_at DESC
		LIMIT $2`

	rows, err := s.q.Query(ctx, sqlq, slug, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.LatestPrice
	for rows.Next() {
		var r domain.LatestPrice
		if err := rows.Scan(&r.ExternalID, &r.Price, &r.Currency, &r.CapturedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DailySeries implements Storage
func (s *pg) DailySeries(ctx context.Context, slug string, w domain.Window) ([]domain.DayBucket, error) {
	const sqlq = `
		SELECT date_trunc('day', captured_at) AS day, AVG(price)::float8, COUNT(*)
		FROM price_points
		WHERE location_slug = $1 AND captured_at >= $2 AND captured_at < $3
		GROUP BY day
		ORDER BY day ASC`

	rows, err := s.q.Query(ctx, sqlq, slug, w.Since, w.Until)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.DayBucket
	for rows.Next() {
		var b domain.DayBucket
		if err := rows.Scan(&b.Day, &b.MeanPrice, &b.Points); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

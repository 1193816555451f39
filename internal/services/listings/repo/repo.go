// Package repo provides Postgres bindings for the listings catalog state
package repo

import (
	"context"
	"fmt"
	"strings"

	"propwatch/internal/modkit/repokit"
	perr "propwatch/internal/platform/errors"
	"propwatch/internal/services/listings/domain"
)

type (
	pg     struct{ q repokit.Queryer }
	binder struct{}
)

// NewPG constructs a new repo binder for Postgres
func NewPG() repokit.Binder[Storage] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) Storage { return &pg{q: q} }

// Storage defines the listings repository
type Storage interface {
	Locations(ctx context.Context) ([]domain.LocationRow, error)
	ListingsByLocation(ctx context.Context, slug string, activeOnly bool, limit int) ([]domain.ListingRow, error)
	AgencyBySlug(ctx context.Context, slug string) (domain.AgencyRow, error)
	UpsertLocations(ctx context.Context, rows []domain.LocationRow) error
	DisableMissing(ctx context.Context, keep []string) error
}

// Locations implements Storage
func (s *pg) Locations(ctx context.Context) ([]domain.LocationRow, error) {
	rows, err := s.q.Query(ctx, `
		SELECT slug, name, query, enabled, interval_minutes, max_pages,
			COALESCE(gate_overrides::text, ''), created_at, updated_at
		FROM locations
		ORDER BY slug
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.LocationRow
	for rows.Next() {
		var r domain.LocationRow
		var overrides string
		if err := rows.Scan(
			&r.Slug, &r.Name, &r.Query, &r.Enabled, &r.IntervalMinutes, &r.MaxPages,
			&overrides, &r.CreatedAt, &r.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if overrides != "" {
			r.GateOverrides = []byte(overrides)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListingsByLocation implements Storage
func (s *pg) ListingsByLocation(
	ctx context.Context,
	slug string,
	activeOnly bool,
	limit int,
) ([]domain.ListingRow, error) {
	var sb strings.Builder
	var args []any
	arg := func(v any) string { args = append(args, v); return fmt.Sprintf("$%d", len(args)) }

	sb.WriteString(`
		SELECT external_id, location_slug, title, price, currency, rooms, baths,
			area_sqm, category, purpose, agency_slug, url, active, first_seen_at, last_seen_at
		FROM listings
		WHERE location_slug = ` + arg(slug) + "\n")
	if activeOnly {
		sb.WriteString("  AND active\n")
	}
	sb.WriteString("ORDER BY price DESC, external_id\nLIMIT " + arg(limit))

	rows, err := s.q.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.ListingRow, 0, limit)
	for rows.Next() {
		var r domain.ListingRow
		if err := rows.Scan(
			&r.ExternalID, &r.LocationSlug, &r.Title, &r.Price, &r.Currency, &r.Rooms, &r.Baths,
			&r.AreaSqm, &r.Category, &r.Purpose, &r.AgencySlug, &r.URL, &r.Active,
			&r.FirstSeenAt, &r.LastSeenAt,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// AgencyBySlug implements Storage
func (s *pg) AgencyBySlug(ctx context.Context, slug string) (domain.AgencyRow, error) {
	rows, err := s.q.Query(ctx, `
		SELECT a.slug, a.name, a.first_seen_at, a.last_seen_at,
			(SELECT COUNT(*) FROM listings l WHERE l.agency_slug = a.slug AND l.active)
		FROM agencies a
		WHERE a.slug = $1
	`, slug)
	if err != nil {
		return domain.AgencyRow{}, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return domain.AgencyRow{}, err
		}
		return domain.AgencyRow{}, perr.NotFoundf("agency %s", slug)
	}
	var r domain.AgencyRow
	if err := rows.Scan(&r.Slug, &r.Name, &r.FirstSeenAt, &r.LastSeenAt, &r.ListingCount); err != nil {
		return domain.AgencyRow{}, err
	}
	return r, nil
}

// UpsertLocations implements Storage with a multi-row upsert keyed on slug.
// Enabled and knob columns always follow the watchlist; timestamps are preserved
func (s *pg) UpsertLocations(ctx context.Context, rows []domain.LocationRow) error {
	if len(rows) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`
		INSERT INTO locations (slug, name, query, enabled, interval_minutes, max_pages, gate_overrides)
		VALUES `)

	args := make([]any, 0, len(rows)*7)
	for i, r := range rows {
		if i > 0 {
			sb.WriteString(",")
		}
		base := i * 7
		fmt.Fprintf(&sb, "($%d,$%d,$%d,$%d,$%d,$%d,NULLIF($%d,'')::jsonb)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7)
		args = append(args,
			r.Slug, r.Name, r.Query, r.Enabled, r.IntervalMinutes, r.MaxPages, string(r.GateOverrides),
		)
	}
	sb.WriteString(`
		ON CONFLICT (slug) DO UPDATE SET
			name = EXCLUDED.name,
			query = EXCLUDED.query,
			enabled = EXCLUDED.enabled,
			interval_minutes = EXCLUDED.interval_minutes,
			max_pages = EXCLUDED.max_pages,
			gate_overrides = EXCLUDED.gate_overrides,
			updated_at = now()`)

	_, err := s.q.Exec(ctx, sb.String(), args...)
	return err
}

// DisableMissing implements Storage.
// Locations dropped from the watchlist stay in the table for history but stop cycling
func (s *pg) DisableMissing(ctx context.Context, keep []string) error {
	_, err := s.q.Exec(ctx, `
		UPDATE locations
		SET enabled = FALSE, updated_at = now()
		WHERE enabled AND NOT (slug = ANY($1))
	`, keep)
	return err
}

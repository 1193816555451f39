// Package repo provides Postgres bindings for the watch orchestrator
package repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"propwatch/internal/core/market"
	"propwatch/internal/modkit/repokit"
	"propwatch/internal/services/watch/domain"
)

type (
	pg     struct{ q repokit.Queryer }
	binder struct{}
)

// NewPG constructs a new repo binder for Postgres
func NewPG() repokit.Binder[Storage] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) Storage { return &pg{q: q} }

// Storage defines the watch repository.
// State, listing and event writes run inside the caller's transaction;
// lease and queue ops are single statements and run on their own
type Storage interface {
	State(ctx context.Context, slug string) (domain.StatusRow, bool, error)
	ActiveListings(ctx context.Context, slug string) (map[string]market.Listing, error)
	SaveCycleState(ctx context.Context, st domain.StatusRow) error
	SetStatus(ctx context.Context, slug string, status market.CycleStatus) error
	MarkFailure(ctx context.Context, slug, lastErr string) error
	SetLedgerPending(ctx context.Context, slug string, pending bool) error
	Statuses(ctx context.Context) ([]domain.StatusRow, error)

	UpsertListings(ctx context.Context, snap market.Snapshot) error
	DeactivateMissing(ctx context.Context, slug string, keep []string, at time.Time) error
	UpsertAgencies(ctx context.Context, listings []market.Listing, at time.Time) error
	InsertChangeEvents(ctx context.Context, events []market.ChangeEvent) error

	ClaimLease(ctx context.Context, slug, owner string, ttl time.Duration) (bool, error)
	ReleaseLease(ctx context.Context, slug, owner string) error

	EnqueueSweep(ctx context.Context, slug string) (string, bool, error)
	LeaseSweeps(ctx context.Context, owner string, limit int, ttl time.Duration) ([]domain.SweepCommand, error)
	CompleteSweep(ctx context.Context, id string) error
	RequeueSweep(ctx context.Context, id string, nextAttempt time.Time, lastErr string) error
}

const statusCols = `location_slug, status, COALESCE(cycle_id::text, ''), COALESCE(captured_at, 'epoch'::timestamptz),
	listing_count, failure_count, COALESCE(last_error, ''), ledger_pending, updated_at`

func scanStatus(sc interface{ Scan(...any) error }) (domain.StatusRow, error) {
	var r domain.StatusRow
	var status string
	err := sc.Scan(
		&r.LocationSlug, &status, &r.CycleID, &r.CapturedAt,
		&r.ListingCount, &r.FailureCount, &r.LastError, &r.LedgerPending, &r.UpdatedAt,
	)
	r.Status = market.CycleStatus(status)
	return r, err
}

// State implements Storage. ok=false means the location has never cycled
func (s *pg) State(ctx context.Context, slug string) (domain.StatusRow, bool, error) {
	rows, err := s.q.Query(ctx,
		`SELECT `+statusCols+` FROM location_states WHERE location_slug = $1`, slug)
	if err != nil {
		return domain.StatusRow{}, false, err
	}
	defer rows.Close()

	if !rows.Next() {
		return domain.StatusRow{}, false, rows.Err()
	}
	r, err := scanStatus(rows)
	if err != nil {
		return domain.StatusRow{}, false, err
	}
	return r, true, rows.Err()
}

// ActiveListings implements Storage, keyed by external id
func (s *pg) ActiveListings(ctx context.Context, slug string) (map[string]market.Listing, error) {
	rows, err := s.q.Query(ctx, `
		SELECT external_id, title, price, currency, rooms, baths, area_sqm,
			category, purpose, agency_slug, url, last_seen_at
		FROM listings
		WHERE location_slug = $1 AND active
	`, slug)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]market.Listing)
	for rows.Next() {
		l := market.Listing{LocationSlug: slug}
		if err := rows.Scan(
			&l.ExternalID, &l.Title, &l.Price, &l.Currency, &l.Rooms, &l.Baths, &l.AreaSqm,
			&l.Category, &l.Purpose, &l.AgencySlug, &l.URL, &l.CapturedAt,
		); err != nil {
			return nil, err
		}
		out[l.ExternalID] = l
	}
	return out, rows.Err()
}

// SaveCycleState implements Storage, upserting the full state row
func (s *pg) SaveCycleState(ctx context.Context, st domain.StatusRow) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO location_states
			(location_slug, status, cycle_id, captured_at, listing_count, failure_count, last_error, ledger_pending)
		VALUES ($1, $2, NULLIF($3,'')::uuid, $4, $5, $6, NULLIF($7,''), $8)
		ON CONFLICT (location_slug) DO UPDATE SET
			status = EXCLUDED.status,
			cycle_id = EXCLUDED.cycle_id,
			captured_at = EXCLUDED.captured_at,
			listing_count = EXCLUDED.listing_count,
			failure_count = EXCLUDED.failure_count,
			last_error = EXCLUDED.last_error,
			ledger_pending = EXCLUDED.ledger_pending,
			updated_at = now()
	`, st.LocationSlug, string(st.Status), st.CycleID, st.CapturedAt,
		st.ListingCount, st.FailureCount, st.LastError, st.LedgerPending)
	return err
}

// SetStatus implements Storage; creates the row on first touch
func (s *pg) SetStatus(ctx context.Context, slug string, status market.CycleStatus) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO location_states (location_slug, status)
		VALUES ($1, $2)
		ON CONFLICT (location_slug) DO UPDATE SET status = EXCLUDED.status, updated_at = now()
	`, slug, string(status))
	return err
}

// MarkFailure implements Storage
func (s *pg) MarkFailure(ctx context.Context, slug, lastErr string) error {
	_, err := s.q.Exec(ctx, `
		UPDATE location_states
		SET status = 'failed', failure_count = failure_count + 1,
			last_error = NULLIF($2, ''), updated_at = now()
		WHERE location_slug = $1
	`, slug, lastErr)
	return err
}

// SetLedgerPending implements Storage
func (s *pg) SetLedgerPending(ctx context.Context, slug string, pending bool) error {
	_, err := s.q.Exec(ctx, `
		UPDATE location_states
		SET ledger_pending = $2, updated_at = now()
		WHERE location_slug = $1
	`, slug, pending)
	return err
}

// Statuses implements Storage
func (s *pg) Statuses(ctx context.Context) ([]domain.StatusRow, error) {
	rows, err := s.q.Query(ctx,
		`SELECT `+statusCols+` FROM location_states ORDER BY location_slug`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.StatusRow
	for rows.Next() {
		r, err := scanStatus(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpsertListings implements Storage with a multi-row upsert keyed on
// (location_slug, external_id); re-seen listings flip back to active
func (s *pg) UpsertListings(ctx context.Context, snap market.Snapshot) error {
	if len(snap.Listings) == 0 {
		return nil
	}

	const cols = 13
	var sb strings.Builder
	sb.WriteString(`
		INSERT INTO listings
			(location_slug, external_id, title, price, currency, rooms, baths, area_sqm,
			 category, purpose, agency_slug, url, last_seen_at)
		VALUES `)

	args := make([]any, 0, len(snap.Listings)*cols)
	for i, l := range snap.Listings {
		if i > 0 {
			sb.WriteString(",")
		}
		base := i * cols
		sb.WriteString("(")
		for c := 1; c <= cols; c++ {
			if c > 1 {
				sb.WriteString(",")
			}
			fmt.Fprintf(&sb, "$%d", base+c)
		}
		sb.WriteString(")")
		args = append(args,
			snap.LocationSlug, l.ExternalID, l.Title, l.Price, l.Currency, l.Rooms, l.Baths, l.AreaSqm,
			l.Category, l.Purpose, l.AgencySlug, l.URL, snap.CapturedAt,
		)
	}
	sb.WriteString(`
		ON CONFLICT (location_slug, external_id) DO UPDATE SET
			title = EXCLUDED.title,
			price = EXCLUDED.price,
			currency = EXCLUDED.currency,
			rooms = EXCLUDED.rooms,
			baths = EXCLUDED.baths,
			area_sqm = EXCLUDED.area_sqm,
			category = EXCLUDED.category,
			purpose = EXCLUDED.purpose,
			agency_slug = EXCLUDED.agency_slug,
			url = EXCLUDED.url,
			active = TRUE,
			last_seen_at = EXCLUDED.last_seen_at`)

	_, err := s.q.Exec(ctx, sb.String(), args...)
	return err
}

// DeactivateMissing implements Storage; removed listings keep their last payload
func (s *pg) DeactivateMissing(ctx context.Context, slug string, keep []string, at time.Time) error {
	_, err := s.q.Exec(ctx, `
		UPDATE listings
		SET active = FALSE, last_seen_at = $3
		WHERE location_slug = $1 AND active AND NOT (external_id = ANY($2))
	`, slug, keep, at)
	return err
}

// UpsertAgencies implements Storage, folding duplicate slugs within the batch
func (s *pg) UpsertAgencies(ctx context.Context, listings []market.Listing, at time.Time) error {
	type agency struct{ slug, name string }
	seen := make(map[string]agency)
	order := make([]string, 0, 8)
	for _, l := range listings {
		if l.AgencySlug == "" {
			continue
		}
		if _, ok := seen[l.AgencySlug]; !ok {
			seen[l.AgencySlug] = agency{slug: l.AgencySlug, name: l.AgencyName}
			order = append(order, l.AgencySlug)
		}
	}
	if len(order) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO agencies (slug, name, last_seen_at) VALUES `)
	args := make([]any, 0, len(order)*3)
	for i, slug := range order {
		if i > 0 {
			sb.WriteString(",")
		}
		a := seen[slug]
		base := i * 3
		fmt.Fprintf(&sb, "($%d,$%d,$%d)", base+1, base+2, base+3)
		args = append(args, a.slug, a.name, at)
	}
	sb.WriteString(`
		ON CONFLICT (slug) DO UPDATE SET
			name = EXCLUDED.name,
			last_seen_at = EXCLUDED.last_seen_at`)

	_, err := s.q.Exec(ctx, sb.String(), args...)
	return err
}

// InsertChangeEvents implements Storage.
// ON CONFLICT DO NOTHING keeps replayed cycles idempotent
func (s *pg) InsertChangeEvents(ctx context.Context, events []market.ChangeEvent) error {
	if len(events) == 0 {
		return nil
	}

	const cols = 11
	var sb strings.Builder
	sb.WriteString(`
		INSERT INTO change_events
			(id, cycle_id, change_type, location_slug, listing_ext_id,
			 title, old_price, new_price, delta_pct, changed_fields, observed_at)
		VALUES `)

	args := make([]any, 0, len(events)*cols)
	for i, ev := range events {
		if i > 0 {
			sb.WriteString(",")
		}
		base := i * cols
		fmt.Fprintf(&sb, "($%d::uuid,$%d::uuid,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9, base+10, base+11)
		args = append(args,
			ev.ID, ev.CycleID, string(ev.Type), ev.LocationSlug, ev.ExternalID,
			ev.Listing.Title, ev.OldPrice, ev.NewPrice, ev.DeltaPct, ev.ChangedFields, ev.ObservedAt,
		)
	}
	sb.WriteString(` ON CONFLICT (id) DO NOTHING`)

	_, err := s.q.Exec(ctx, sb.String(), args...)
	return err
}

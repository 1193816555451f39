// Package repo provides the alerts audit repository
package repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"propwatch/internal/core/gate"
	"propwatch/internal/core/market"
	"propwatch/internal/modkit/repokit"
	"propwatch/internal/services/alerts/domain"
)

type (
	pg     struct{ q repokit.Queryer }
	binder struct{}
)

// NewPG constructs a new repo binder for Postgres
func NewPG() repokit.Binder[Storage] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) Storage { return &pg{q: q} }

// Storage defines the alerts repository
type Storage interface {
	InsertDecisions(ctx context.Context, rows []domain.DecisionRow) error
	RecentDecisions(ctx context.Context, slug string, since time.Time) ([]gate.Decision, error)
	MarkDispatchError(ctx context.Context, id string, msg string) error
	LocationOverrides(ctx context.Context, slug string) ([]byte, error)
}

// InsertDecisions implements Storage as one multi-row insert.
// The event id is unique so a retried cycle cannot audit twice
func (s *pg) InsertDecisions(ctx context.Context, rows []domain.DecisionRow) error {
	if len(rows) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO alerts
		(id, event_id, cycle_id, location_slug, listing_ext_id, change_type,
		delta_pct, suppressed, reason, decided_at) VALUES `)

	args := make([]any, 0, len(rows)*10)
	for i, r := range rows {
		if i > 0 {
			sb.WriteByte(',')
		}
		base := i*10 + 1
		fmt.Fprintf(&sb, "($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base, base+1, base+2, base+3, base+4,
			base+5, base+6, base+7, base+8, base+9)

		d := r.Decision
		args = append(args,
			r.ID, d.EventID, r.CycleID, d.LocationSlug, d.ExternalID,
			string(d.Type), d.DeltaPct, d.Suppressed, d.Reason, d.At,
		)
	}
	sb.WriteString(` ON CONFLICT (event_id) DO NOTHING`)
	_, err := s.q.Exec(ctx, sb.String(), args...)
	return err
}

// RecentDecisions implements Storage, newest last so appends keep order
func (s *pg) RecentDecisions(ctx context.Context, slug string, since time.Time) ([]gate.Decision, error) {
	const sqlq = `
		SELECT event_id, listing_ext_id, location_slug, change_type, delta_pct, suppressed, reason, decided_at
		FROM alerts
		WHERE location_slug = $1 AND decided_at >= $2
		ORDER BY decided_at ASC`

	rows, err := s.q.Query(ctx, sqlq, slug, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []gate.Decision
	for rows.Next() {
		var d gate.Decision
		var typ string
		if err := rows.Scan(
			&d.EventID, &d.ExternalID, &d.LocationSlug, &typ,
			&d.DeltaPct, &d.Suppressed, &d.Reason, &d.At,
		); err != nil {
			return nil, err
		}
		d.Type = market.ChangeType(typ)
		out = append(out, d)
	}
	return out, rows.Err()
}

// MarkDispatchError implements Storage
func (s *pg) MarkDispatchError(ctx context.Context, id string, msg string) error {
	const sqlq = `UPDATE alerts SET dispatch_error = $2 WHERE id = $1`
	_, err := s.q.Exec(ctx, sqlq, id, msg)
	return err
}

// LocationOverrides implements Storage.
// Unknown locations and locations without overrides both yield nil so the
// caller gates on pure defaults
func (s *pg) LocationOverrides(ctx context.Context, slug string) ([]byte, error) {
	const sqlq = `SELECT COALESCE(gate_overrides::text, '') FROM locations WHERE slug = $1`
	rows, err := s.q.Query(ctx, sqlq, slug)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var raw string
	if rows.Next() {
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, nil
	}
	return []byte(raw), nil
}

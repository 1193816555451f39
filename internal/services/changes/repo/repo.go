// Package repo provides the changes feed repository
package repo

import (
	"context"
	"fmt"
	"strings"

	"propwatch/internal/core/market"
	"propwatch/internal/modkit/repokit"
	"propwatch/internal/services/changes/domain"
)

type (
	pg     struct{ q repokit.Queryer }
	binder struct{}
)

// NewPG constructs a new repo binder for Postgres
func NewPG() repokit.Binder[Storage] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) Storage { return &pg{q: q} }

// Storage defines the changes repository
type Storage interface {
	List(ctx context.Context, in domain.ListInput, limit int) ([]domain.Row, domain.AfterKey, error)
}

// List implements Storage with (observed_at, id) keyset pagination
func (s *pg) List(
	ctx context.Context,
	in domain.ListInput,
	limit int,
) ([]domain.Row, domain.AfterKey, error) {
	var sb strings.Builder
	var args []any
	arg := func(v any) string { args = append(args, v); return fmt.Sprintf("$%d", len(args)) }

	sb.WriteString(`
		SELECT id::text, cycle_id::text, change_type, location_slug, listing_ext_id,
			title, old_price, new_price, delta_pct, changed_fields, observed_at
		FROM change_events
		WHERE observed_at >= ` + arg(in.Since) + ` AND observed_at < ` + arg(in.Until) + "\n")

	// keyset only when the cursor is set, avoids ''::uuid on first page
	if in.After.ID != "" {
		sb.WriteString(
			"  AND (observed_at, id) > (" +
				arg(in.After.ObservedAt) + ", " +
				arg(in.After.ID) + "::uuid)\n",
		)
	}
	if in.Location != "" {
		sb.WriteString("  AND location_slug = " + arg(in.Location) + "\n")
	}
	if len(in.Types) > 0 {
		types := make([]string, 0, len(in.Types))
		for _, t := range in.Types {
			types = append(types, string(t))
		}
		sb.WriteString("  AND change_type = ANY(" + arg(types) + ")\n")
	}

	sb.WriteString("ORDER BY observed_at, id\nLIMIT " + arg(limit))

	rows, err := s.q.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, domain.AfterKey{}, err
	}
	defer rows.Close()

	out := make([]domain.Row, 0, limit)
	var last domain.AfterKey
	for rows.Next() {
		var r domain.Row
		var typ string
		if err := rows.Scan(
			&r.ID, &r.CycleID, &typ, &r.LocationSlug, &r.ExternalID,
			&r.Title, &r.OldPrice, &r.NewPrice, &r.DeltaPct, &r.ChangedFields, &r.ObservedAt,
		); err != nil {
			return nil, domain.AfterKey{}, err
		}
		r.Type = market.ChangeType(typ)
		out = append(out, r)
		last = domain.AfterKey{ObservedAt: r.ObservedAt, ID: r.ID}
	}
	return out, last, rows.Err()
}

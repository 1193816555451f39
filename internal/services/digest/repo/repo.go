// Package repo provides Postgres bindings for the digest service
package repo

import (
	"context"
	"time"

	"propwatch/internal/modkit/repokit"
	"propwatch/internal/services/digest/domain"
)

type (
	pg     struct{ q repokit.Queryer }
	binder struct{}
)

// NewPG constructs a new repo binder for Postgres
func NewPG() repokit.Binder[Storage] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) Storage { return &pg{q: q} }

// Storage defines the digest repository
type Storage interface {
	// ClaimDay inserts the run row for day; false means another replica owns it
	ClaimDay(ctx context.Context, day time.Time) (bool, error)

	// EventCounts tallies change events for slug in [since, until)
	EventCounts(ctx context.Context, slug string, since, until time.Time) (domain.EventCounts, error)
}

// ClaimDay implements Storage
func (s *pg) ClaimDay(ctx context.Context, day time.Time) (bool, error) {
	tag, err := s.q.Exec(ctx, `
		INSERT INTO digest_runs (run_date)
		VALUES ($1::date)
		ON CONFLICT (run_date) DO NOTHING
	`, day.UTC().Format("2006-01-02"))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// EventCounts implements Storage
func (s *pg) EventCounts(
	ctx context.Context,
	slug string,
	since, until time.Time,
) (domain.EventCounts, error) {
	rows, err := s.q.Query(ctx, `
		SELECT change_type, COUNT(*)
		FROM change_events
		WHERE location_slug = $1 AND observed_at >= $2 AND observed_at < $3
		GROUP BY change_type
	`, slug, since, until)
	if err != nil {
		return domain.EventCounts{}, err
	}
	defer rows.Close()

	var c domain.EventCounts
	for rows.Next() {
		var typ string
		var n int64
		if err := rows.Scan(&typ, &n); err != nil {
			return domain.EventCounts{}, err
		}
		switch typ {
		case "new":
			c.New = n
		case "removed":
			c.Removed = n
		case "updated":
			c.Updated = n
		case "price_changed":
			c.PriceChanged = n
		}
	}
	return c, rows.Err()
}

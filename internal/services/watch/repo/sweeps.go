package repo

import (
	"context"
	"time"

	"propwatch/internal/services/watch/domain"
)

// EnqueueSweep queues an on-demand cycle for slug.
// The partial unique index on pending commands keeps at most one
// in flight per location; created=false reports the existing one
func (s *pg) EnqueueSweep(ctx context.Context, slug string) (string, bool, error) {
	rows, err := s.q.Query(ctx, `
		INSERT INTO sweep_commands (location_slug)
		VALUES ($1)
		ON CONFLICT (location_slug) WHERE completed_at IS NULL DO NOTHING
		RETURNING id::text
	`, slug)
	if err != nil {
		return "", false, err
	}
	defer rows.Close()

	if rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", false, err
		}
		return id, true, rows.Err()
	}
	if err := rows.Err(); err != nil {
		return "", false, err
	}

	// conflict path: surface the pending command
	var id string
	if err := s.q.QueryRow(ctx, `
		SELECT id::text FROM sweep_commands
		WHERE location_slug = $1 AND completed_at IS NULL
	`, slug).Scan(&id); err != nil {
		return "", false, err
	}
	return id, false, nil
}

// LeaseSweeps leases up to limit ready commands for owner
func (s *pg) LeaseSweeps(
	ctx context.Context,
	owner string,
	limit int,
	ttl time.Duration,
) ([]domain.SweepCommand, error) {
	rows, err := s.q.Query(ctx, `
		WITH ready AS (
			SELECT id
			  FROM sweep_commands
			 WHERE completed_at IS NULL
			   AND next_attempt_at <= now()
			   AND (lease_owner IS NULL OR lease_expires_at <= now())
			 ORDER BY next_attempt_at ASC
			 LIMIT $1
			 FOR UPDATE SKIP LOCKED
		)
		UPDATE sweep_commands c
		   SET lease_owner = $2,
		       lease_expires_at = now() + $3::interval
		 WHERE c.id IN (SELECT id FROM ready)
		RETURNING c.id::text, c.location_slug, c.attempts, c.requested_at
	`, limit, owner, ttl.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SweepCommand
	for rows.Next() {
		var c domain.SweepCommand
		if err := rows.Scan(&c.ID, &c.LocationSlug, &c.Attempts, &c.RequestedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CompleteSweep marks a command done
func (s *pg) CompleteSweep(ctx context.Context, id string) error {
	_, err := s.q.Exec(ctx, `
		UPDATE sweep_commands
		SET completed_at = now(), lease_owner = NULL, lease_expires_at = NULL
		WHERE id = $1::uuid
	`, id)
	return err
}

// RequeueSweep re-schedules a failed command and clears the lease
func (s *pg) RequeueSweep(ctx context.Context, id string, nextAttempt time.Time, lastErr string) error {
	_, err := s.q.Exec(ctx, `
		UPDATE sweep_commands
		SET attempts = attempts + 1,
			last_error = NULLIF($3, ''),
			next_attempt_at = $2,
			lease_owner = NULL,
			lease_expires_at = NULL
		WHERE id = $1::uuid
	`, id, nextAttempt, lastErr)
	return err
}

package repo

import (
	"context"
	"time"
)

// ClaimLease takes the per-location lease when it is free or expired.
// Expired leases are reclaimed in the same statement, so a crashed
// worker never wedges its location
func (s *pg) ClaimLease(ctx context.Context, slug, owner string, ttl time.Duration) (bool, error) {
	if _, err := s.q.Exec(ctx, `
		INSERT INTO location_states (location_slug, status)
		VALUES ($1, 'idle')
		ON CONFLICT (location_slug) DO NOTHING
	`, slug); err != nil {
		return false, err
	}

	tag, err := s.q.Exec(ctx, `
		UPDATE location_states
		SET lease_owner = $2, lease_expires_at = now() + $3::interval, updated_at = now()
		WHERE location_slug = $1
		  AND (lease_owner IS NULL OR lease_expires_at <= now() OR lease_owner = $2)
	`, slug, owner, ttl.String())
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ReleaseLease clears the lease, owner-checked so a late release
// cannot drop someone else's claim
func (s *pg) ReleaseLease(ctx context.Context, slug, owner string) error {
	_, err := s.q.Exec(ctx, `
		UPDATE location_states
		SET lease_owner = NULL, lease_expires_at = NULL, updated_at = now()
		WHERE location_slug = $1 AND lease_owner = $2
	`, slug, owner)
	return err
}

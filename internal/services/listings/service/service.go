// Package service provides the listings catalog service implementation
package service

import (
	"context"

	"propwatch/internal/modkit/repokit"
	"propwatch/internal/services/listings/domain"
	"propwatch/internal/services/listings/repo"
)

// Config for the listings service
type Config struct {
	// HardLimit caps rows returned per listings query; defaults to 2000 if <=0
	HardLimit int
}

// Service implements domain.CatalogPort and domain.SeederPort
type Service struct {
	DB     repokit.TxRunner
	Binder repokit.Binder[repo.Storage]
	Cfg    Config
}

// New constructs a new listings service
func New(db repokit.TxRunner, b repokit.Binder[repo.Storage], cfg Config) *Service {
	if cfg.HardLimit <= 0 {
		cfg.HardLimit = 2000
	}
	return &Service{DB: db, Binder: b, Cfg: cfg}
}

// Locations implements domain.CatalogPort
func (s *Service) Locations(ctx context.Context) ([]domain.LocationRow, error) {
	var out []domain.LocationRow
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		out, err = s.Binder.Bind(q).Locations(ctx)
		return err
	})
	return out, err
}

// ListingsByLocation implements domain.CatalogPort
func (s *Service) ListingsByLocation(
	ctx context.Context,
	slug string,
	activeOnly bool,
	limit int,
) ([]domain.ListingRow, error) {
	if limit <= 0 || limit > s.Cfg.HardLimit {
		limit = s.Cfg.HardLimit
	}
	var out []domain.ListingRow
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		out, err = s.Binder.Bind(q).ListingsByLocation(ctx, slug, activeOnly, limit)
		return err
	})
	return out, err
}

// AgencyBySlug implements domain.CatalogPort
func (s *Service) AgencyBySlug(ctx context.Context, slug string) (domain.AgencyRow, error) {
	var out domain.AgencyRow
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		out, err = s.Binder.Bind(q).AgencyBySlug(ctx, slug)
		return err
	})
	return out, err
}

// SeedWatchlist implements domain.SeederPort.
// Upsert and disable run in one transaction so the table always reflects
// exactly one watchlist revision
func (s *Service) SeedWatchlist(ctx context.Context, rows []domain.LocationRow) error {
	keep := make([]string, 0, len(rows))
	for _, r := range rows {
		keep = append(keep, r.Slug)
	}
	return s.DB.Tx(ctx, func(q repokit.Queryer) error {
		st := s.Binder.Bind(q)
		if err := st.UpsertLocations(ctx, rows); err != nil {
			return err
		}
		return st.DisableMissing(ctx, keep)
	})
}

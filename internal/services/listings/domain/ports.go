package domain

import "context"

// CatalogPort is the read surface over locations, listings and agencies
type CatalogPort interface {
	// Locations returns every known location, enabled or not
	Locations(ctx context.Context) ([]LocationRow, error)
	// ListingsByLocation returns the current rows for one location.
	// activeOnly drops rows whose listing has left the catalog
	ListingsByLocation(ctx context.Context, slug string, activeOnly bool, limit int) ([]ListingRow, error)
	// AgencyBySlug returns one agency directory entry
	AgencyBySlug(ctx context.Context, slug string) (AgencyRow, error)
}

// SeederPort seeds the locations table from the watchlist file at boot
type SeederPort interface {
	// SeedWatchlist upserts the given rows and disables locations
	// no longer present in the watchlist
	SeedWatchlist(ctx context.Context, rows []LocationRow) error
}

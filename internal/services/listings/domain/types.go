// Package domain defines the types and interfaces for the listings catalog state
package domain

import (
	"time"

	"propwatch/internal/core/market"
)

// LocationRow is a watched location as stored in the locations table
type LocationRow struct {
	Slug            string    `json:"slug"`
	Name            string    `json:"name"`
	Query           string    `json:"query"`
	Enabled         bool      `json:"enabled"`
	IntervalMinutes int       `json:"interval_minutes"`
	MaxPages        int       `json:"max_pages"`
	GateOverrides   []byte    `json:"-"` // raw jsonb fragment, nil when unset
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ListingRow is the current persisted view of one listing
type ListingRow struct {
	ExternalID   string    `json:"external_id"`
	LocationSlug string    `json:"location_slug"`
	Title        string    `json:"title"`
	Price        int64     `json:"price"`
	Currency     string    `json:"currency"`
	Rooms        int       `json:"rooms"`
	Baths        int       `json:"baths"`
	AreaSqm      float64   `json:"area_sqm"`
	Category     string    `json:"category"`
	Purpose      string    `json:"purpose"`
	AgencySlug   string    `json:"agency_slug,omitempty"`
	URL          string    `json:"url,omitempty"`
	Active       bool      `json:"active"`
	FirstSeenAt  time.Time `json:"first_seen_at"`
	LastSeenAt   time.Time `json:"last_seen_at"`
}

// AgencyRow is one directory entry built up from observed snapshots
type AgencyRow struct {
	Slug         string    `json:"slug"`
	Name         string    `json:"name"`
	ListingCount int       `json:"listing_count"`
	FirstSeenAt  time.Time `json:"first_seen_at"`
	LastSeenAt   time.Time `json:"last_seen_at"`
}

// FromListing maps a snapshot listing onto its persisted row shape
func FromListing(l market.Listing) ListingRow {
	return ListingRow{
		ExternalID:   l.ExternalID,
		LocationSlug: l.LocationSlug,
		Title:        l.Title,
		Price:        l.Price,
		Currency:     l.Currency,
		Rooms:        l.Rooms,
		Baths:        l.Baths,
		AreaSqm:      l.AreaSqm,
		Category:     l.Category,
		Purpose:      l.Purpose,
		AgencySlug:   l.AgencySlug,
		URL:          l.URL,
		Active:       true,
	}
}

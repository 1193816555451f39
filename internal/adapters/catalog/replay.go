package catalog

import (
	"time"

	"propwatch/internal/core/market"
	perr "propwatch/internal/platform/errors"
)

// Replay rebuilds snapshots from cached page payloads so past captures
// can run through the same detect and persist pipeline
type Replay struct {
	cache    *PageCache
	currency string
	siteURL  string
}

// NewReplay wraps a page cache for snapshot reconstruction
func NewReplay(cache *PageCache, currency, siteURL string) *Replay {
	if currency == "" {
		currency = defaultCurrency
	}
	return &Replay{cache: cache, currency: currency, siteURL: siteURL}
}

// Captures lists the capture timestamps available for location, ascending
func (r *Replay) Captures(location string) ([]time.Time, error) {
	return r.cache.Captures(location)
}

// Snapshot rebuilds the snapshot taken at capturedAt.
// Mapping mirrors the live fetcher: first occurrence wins on duplicate ids
func (r *Replay) Snapshot(location string, capturedAt time.Time) (market.Snapshot, error) {
	raws, err := r.cache.Load(location, capturedAt)
	if err != nil {
		return market.Snapshot{}, perr.Wrapf(err, perr.ErrorCodeNotFound,
			"replay load %s@%s", location, capturedAt.Format(time.RFC3339))
	}

	snap := market.Snapshot{
		LocationSlug: location,
		CapturedAt:   capturedAt,
		Pages:        len(raws),
	}
	seen := make(map[string]struct{})
	for _, raw := range raws {
		page, err := decodePage(raw)
		if err != nil {
			return market.Snapshot{}, err
		}
		for _, h := range page.Hits {
			l := MapHit(h, location, r.currency, r.siteURL, capturedAt)
			if l.ExternalID == "" {
				continue
			}
			if _, dup := seen[l.ExternalID]; dup {
				continue
			}
			seen[l.ExternalID] = struct{}{}
			snap.Listings = append(snap.Listings, l)
		}
	}
	return snap, nil
}

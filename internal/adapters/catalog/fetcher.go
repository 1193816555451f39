package catalog

import (
	"context"
	"time"

	"propwatch/internal/platform/logger"

	"propwatch/internal/core/market"
)

// Fetcher assembles full location snapshots from paged searches.
// It satisfies the watcher's snapshot source port
type Fetcher struct {
	client *Client
	cache  *PageCache // optional write-through for replays
	delay  time.Duration
	log    logger.Logger
	now    func() time.Time
}

// FetcherOptions tunes snapshot assembly
type FetcherOptions struct {
	// PageDelay spaces successive page requests; zero means back to back
	PageDelay time.Duration

	// Cache, when set, receives every raw page as it arrives
	Cache *PageCache
}

// NewFetcher wraps a client into a snapshot source
func NewFetcher(c *Client, o FetcherOptions) *Fetcher {
	return &Fetcher{
		client: c,
		cache:  o.Cache,
		delay:  o.PageDelay,
		log:    *logger.Named("catalog.fetch"),
		now:    time.Now,
	}
}

// Fetch pulls every page for loc up to maxPages and returns one snapshot.
// maxPages <= 0 means all pages the index reports. Pagination can shift
// under live traffic, so repeated external ids keep their first occurrence
func (f *Fetcher) Fetch(ctx context.Context, loc market.Location, maxPages int) (market.Snapshot, error) {
	capturedAt := f.now().UTC()
	snap := market.Snapshot{
		LocationSlug: loc.Slug,
		CapturedAt:   capturedAt,
	}
	seen := make(map[string]struct{})

	page := 0
	for {
		raw, err := f.client.SearchPageRaw(ctx, "", loc.Query, page)
		if err != nil {
			return market.Snapshot{}, err
		}
		if f.cache != nil {
			if cerr := f.cache.Store(loc.Slug, capturedAt, page, raw); cerr != nil {
				f.log.Warn().Err(cerr).Str("location", loc.Slug).Int("page", page).Msg("page cache store failed")
			}
		}

		pg, err := decodePage(raw)
		if err != nil {
			return market.Snapshot{}, err
		}
		snap.Pages = page + 1

		if len(pg.Hits) == 0 {
			break
		}
		for _, h := range pg.Hits {
			l := MapHit(h, loc.Slug, f.client.Currency(), f.client.opts.SiteURL, capturedAt)
			if l.ExternalID == "" {
				f.log.Warn().Str("location", loc.Slug).Int("page", page).Msg("hit without external id skipped")
				continue
			}
			if _, dup := seen[l.ExternalID]; dup {
				continue
			}
			seen[l.ExternalID] = struct{}{}
			snap.Listings = append(snap.Listings, l)
		}

		if len(pg.Hits) < f.client.opts.HitsPerPage {
			break
		}
		if pg.NbPages > 0 && page >= pg.NbPages-1 {
			break
		}
		if maxPages > 0 && page >= maxPages-1 {
			break
		}
		page++

		if f.delay > 0 {
			if err := sleepCtx(ctx, f.delay); err != nil {
				return market.Snapshot{}, err
			}
		}
	}

	f.log.Debug().
		Str("location", loc.Slug).
		Int("pages", snap.Pages).
		Int("listings", len(snap.Listings)).
		Msg("snapshot assembled")
	return snap, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

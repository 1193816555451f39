package domain

import (
	"context"

	"propwatch/internal/core/market"
)

// AppendPort appends price points
type AppendPort interface {
	// AppendPricePoints writes one batch keyed on (external id, captured at).
	// Re-appending any subset of a prior batch is a no-op
	AppendPricePoints(ctx context.Context, points []market.PricePoint) error
}

// QueryPort reads the ledger
type QueryPort interface {
	// RangeByLocation returns points for slug in [from, to) ordered by
	// (captured_at, external id) ascending
	RangeByLocation(ctx context.Context, slug string, w Window) ([]market.PricePoint, error)

	// CountByLocation returns the number of points for slug in [from, to)
	CountByLocation(ctx context.Context, slug string, w Window) (int64, error)

	// LatestByListing returns the newest point per listing for slug
	LatestByListing(ctx context.Context, slug string, limit int) ([]LatestPrice, error)

	// DailySeries buckets slug's points into UTC days over [from, to)
	DailySeries(ctx context.Context, slug string, w Window) ([]DayBucket, error)
}

// Package domain defines the types and interfaces for the insights service
package domain

import (
	"context"
	"time"

	"propwatch/internal/core/market"
)

// DailyPoint is one day-bucketed average for the series endpoint
type DailyPoint struct {
	Day       time.Time `json:"day"`
	MeanPrice float64   `json:"mean_price"`
	Points    int64     `json:"points"`
}

// AnalyzerPort computes trend insights over the price ledger
type AnalyzerPort interface {
	// LocationInsight analyzes the last windowDays of slug's ledger
	LocationInsight(ctx context.Context, slug string, windowDays int) (market.LocationInsight, error)

	// Compare relates two locations over the same window
	Compare(ctx context.Context, slugA, slugB string, windowDays int) (market.CompareResult, error)

	// DailySeries returns day-bucketed averages over [from, to)
	DailySeries(ctx context.Context, slug string, from, to time.Time) ([]DailyPoint, error)
}

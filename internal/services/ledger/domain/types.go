// Package domain defines the types and interfaces for the ledger service
package domain

import "time"

// Window is a half-open time range [Since, Until)
type Window struct {
	Since time.Time
	Until time.Time
}

// DayBucket is one day of averaged prices for a location
type DayBucket struct {
	Day       time.Time
	MeanPrice float64
	Points    int64
}

// LatestPrice is the most recent ledger observation for one listing
type LatestPrice struct {
	ExternalID string
	Price      int64
	Currency   string
	CapturedAt time.Time
}

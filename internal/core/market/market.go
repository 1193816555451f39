// Package market defines the catalog domain model shared by the pure core and the services
package market

import "time"

// Location identifies a watched catalog location
type Location struct {
	Slug  string
	Name  string
	City  string
	Query string // catalog filter expression, e.g. "purpose:for-sale AND category:apartments"
}

// Listing is one catalog entry as observed in a snapshot
// ExternalID is the catalog's stable identifier and the identity used for diffing
type Listing struct {
	ExternalID   string
	LocationSlug string
	Title        string
	Price        int64 // whole currency units
	Currency     string
	Rooms        int
	Baths        int
	AreaSqm      float64 // 0 when the catalog did not report an area
	Category     string
	Purpose      string
	Verified     bool
	PermitNumber string
	AgencyName   string
	AgencySlug   string
	AgentName    string
	URL          string
	CapturedAt   time.Time
}

// Snapshot is one full observation of a location
type Snapshot struct {
	LocationSlug string
	CapturedAt   time.Time
	Pages        int
	Listings     []Listing
}

// LocationState is the last persisted view of a location keyed by external id
// CapturedAt is the capture time of the snapshot the state was built from
type LocationState struct {
	LocationSlug string
	Listings     map[string]Listing
	CycleID      string
	CapturedAt   time.Time
}

// ChangeType classifies a ChangeEvent
type ChangeType string

const (
	// ChangeNew marks a listing present in the snapshot but not in the previous state
	ChangeNew ChangeType = "new"
	// ChangeRemoved marks a listing present in the previous state but not in the snapshot
	ChangeRemoved ChangeType = "removed"
	// ChangeUpdated marks a listing whose tracked fields changed with price untouched
	ChangeUpdated ChangeType = "updated"
	// ChangePriceChanged marks a listing whose price changed; it dominates other field changes
	ChangePriceChanged ChangeType = "price_changed"
)

// ChangeEvent records one detected difference between consecutive snapshots
// For removed listings the Listing field carries the last known payload
type ChangeEvent struct {
	ID           string
	Type         ChangeType
	LocationSlug string
	ExternalID   string
	Listing      Listing
	OldPrice     int64
	NewPrice     int64
	// DeltaPct is (new-old)/old*100 rounded to 2 decimals
	// nil when undefined (old price <= 0, or the currency changed)
	DeltaPct      *float64
	ChangedFields []string
	ObservedAt    time.Time
	CycleID       string
}

// PricePoint is one ledger observation
// Identity for idempotent appends is (ExternalID, CapturedAt)
type PricePoint struct {
	ExternalID   string
	LocationSlug string
	Price        int64
	Currency     string
	AreaSqm      *float64
	CapturedAt   time.Time
	Source       string
}

// SeriesPoint is one day of a location's price series
type SeriesPoint struct {
	Day       time.Time `json:"day"`
	MeanPrice float64   `json:"mean_price"`
}

// LocationInsight summarizes recent price behavior for one location
type LocationInsight struct {
	LocationSlug   string        `json:"location_slug"`
	WindowDays     int           `json:"window_days"`
	ListingCount   int           `json:"listing_count"`
	AvgPrice       float64       `json:"avg_price"`
	TrendPct       float64       `json:"trend_pct"`
	AvgPricePerSqm float64       `json:"avg_price_per_sqm"`
	SufficientData bool          `json:"sufficient_data"`
	Series         []SeriesPoint `json:"series,omitempty"`
	ComputedAt     time.Time     `json:"computed_at"`
}

// CompareResult relates price levels of two locations over the same window
type CompareResult struct {
	SlugA      string  `json:"slug_a"`
	SlugB      string  `json:"slug_b"`
	PriceRatio float64 `json:"price_ratio"`
	Cheaper    string  `json:"cheaper"`
	// Correlation of daily average prices; nil when the overlap is too thin to be meaningful
	Correlation *float64 `json:"correlation,omitempty"`
}

// CycleStatus is the orchestrator state for a location
type CycleStatus string

const (
	// StatusIdle means no cycle is running
	StatusIdle CycleStatus = "idle"
	// StatusFetching means a snapshot fetch is in flight
	StatusFetching CycleStatus = "fetching"
	// StatusDetecting means the diff pass is running
	StatusDetecting CycleStatus = "detecting"
	// StatusPersisting means state and ledger writes are running
	StatusPersisting CycleStatus = "persisting"
	// StatusNotifying means detected events are being evaluated and dispatched
	StatusNotifying CycleStatus = "notifying"
	// StatusFailed means the last cycle aborted
	StatusFailed CycleStatus = "failed"
)

// FloatPtr returns a pointer to f. Handy for DeltaPct and Correlation literals
func FloatPtr(f float64) *float64 { return &f }

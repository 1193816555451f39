// Package domain holds DTOs for insights http contracts
package domain

// LocationInput asks for one location's trend insight
type LocationInput struct {
	Location   string `json:"location" validate:"required,min=1,max=64" example:"dubai-marina"`
	WindowDays int    `json:"window_days,omitempty" validate:"omitempty,min=1,max=365" example:"30"`
}

// CompareInput relates two locations over the same window
type CompareInput struct {
	LocationA  string `json:"location_a" validate:"required,min=1,max=64" example:"dubai-marina"`
	LocationB  string `json:"location_b" validate:"required,min=1,max=64" example:"jvc"`
	WindowDays int    `json:"window_days,omitempty" validate:"omitempty,min=1,max=365" example:"30"`
}

// SeriesInput asks for day-bucketed averages over [from, to)
type SeriesInput struct {
	Location string `json:"location" validate:"required,min=1,max=64" example:"dubai-marina"`
	From     string `json:"from" validate:"required,datetime=2006-01-02" example:"2026-02-01"`
	To       string `json:"to" validate:"required,datetime=2006-01-02" example:"2026-03-01"`
}

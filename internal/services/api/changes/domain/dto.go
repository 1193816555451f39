// Package domain holds DTOs for the change feed http contract
package domain

import changedom "propwatch/internal/services/changes/domain"

// AfterKey is the client-facing keyset cursor
type AfterKey struct {
	ObservedAt string `json:"observed_at" validate:"required,datetime=2006-01-02T15:04:05Z07:00" example:"2026-03-01T12:00:00Z"`
	ID         string `json:"id" validate:"required,uuid" example:"0b1f8aa2-14d5-4bbf-a7d2-6a19a1a2b3c4"`
}

// ListInput filters the feed. Open since/until default to the last 24h
type ListInput struct {
	Location string    `json:"location,omitempty" validate:"omitempty,min=1,max=64" example:"dubai-marina"`
	Types    []string  `json:"types,omitempty" validate:"omitempty,dive,oneof=new removed updated price_changed"`
	Since    string    `json:"since,omitempty" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00" example:"2026-03-01T00:00:00Z"`
	Until    string    `json:"until,omitempty" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00" example:"2026-03-02T00:00:00Z"`
	After    *AfterKey `json:"after,omitempty"`
	Limit    int       `json:"limit,omitempty" validate:"omitempty,min=1,max=1000" example:"100"`
}

// ListOutput is one page of the feed
type ListOutput struct {
	Rows []changedom.Row     `json:"rows"`
	Next *changedom.AfterKey `json:"next,omitempty"`
}

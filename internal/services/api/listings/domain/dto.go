// Package domain holds DTOs for the listings http contract
package domain

// ByLocationInput asks for the current rows of one location
type ByLocationInput struct {
	Location   string `json:"location" validate:"required,min=1,max=64" example:"dubai-marina"`
	ActiveOnly bool   `json:"active_only,omitempty" example:"true"`
	Limit      int    `json:"limit,omitempty" validate:"omitempty,min=1,max=2000" example:"100"`
}

// AgencyInput asks for one agency directory entry
type AgencyInput struct {
	Slug string `json:"slug" validate:"required,min=1,max=64" example:"acme-realty"`
}

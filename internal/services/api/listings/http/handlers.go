// Package http provides http transport for the listings catalog state
package http

import (
	stdhttp "net/http"

	"propwatch/internal/modkit/httpkit"
	"propwatch/internal/services/api/listings/domain"
	listdom "propwatch/internal/services/listings/domain"
)

// Register mounts listings endpoints on the given router
func Register(r httpkit.Router, catalog listdom.CatalogPort) {
	h := &handlers{catalog: catalog}

	// every known location, enabled or not
	httpkit.Get(r, "/locations", h.locations)

	// current rows for one location
	httpkit.PostJSON[domain.ByLocationInput](r, "/by-location", h.byLocation)

	// one agency directory entry
	httpkit.PostJSON[domain.AgencyInput](r, "/agency", h.agency)
}

type handlers struct{ catalog listdom.CatalogPort }

// swagger:route GET /listings/locations Listings listingsLocations
// @Summary Watched locations
// @Tags Listings
// @Produce json
// @Success 200 {array} listdom.LocationRow "ok"
// @Router /listings/locations [get]
func (h *handlers) locations(r *stdhttp.Request) (any, error) {
	return h.catalog.Locations(r.Context())
}

// swagger:route POST /listings/by-location Listings listingsByLocation
// @Summary Current listings for one location
// @Tags Listings
// @Accept json
// @Produce json
// @Param payload body domain.ByLocationInput true "Query"
// @Success 200 {array} listdom.ListingRow "ok"
// @Router /listings/by-location [post]
func (h *handlers) byLocation(r *stdhttp.Request, in domain.ByLocationInput) (any, error) {
	return h.catalog.ListingsByLocation(r.Context(), in.Location, in.ActiveOnly, in.Limit)
}

// swagger:route POST /listings/agency Listings listingsAgency
// @Summary Agency directory entry
// @Tags Listings
// @Accept json
// @Produce json
// @Param payload body domain.AgencyInput true "Query"
// @Success 200 {object} listdom.AgencyRow "ok"
// @Router /listings/agency [post]
func (h *handlers) agency(r *stdhttp.Request, in domain.AgencyInput) (any, error) {
	return h.catalog.AgencyBySlug(r.Context(), in.Slug)
}

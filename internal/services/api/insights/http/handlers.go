// Package http provides http transport for insights
package http

import (
	stdhttp "net/http"
	"time"

	"propwatch/internal/modkit/httpkit"
	"propwatch/internal/services/api/insights/domain"
	insightdom "propwatch/internal/services/insights/domain"
)

// Register mounts insights endpoints on the given router
func Register(r httpkit.Router, analyzer insightdom.AnalyzerPort) {
	h := &handlers{analyzer: analyzer}

	// trend insight for one location
	httpkit.PostJSON[domain.LocationInput](r, "/location", h.location)

	// price level comparison of two locations
	httpkit.PostJSON[domain.CompareInput](r, "/compare", h.compare)

	// day-bucketed average series
	httpkit.PostJSON[domain.SeriesInput](r, "/series", h.series)
}

type handlers struct{ analyzer insightdom.AnalyzerPort }

// swagger:route POST /insights/location Insights insightsLocation
// @Summary Trend insight for one location
// @Tags Insights
// @Accept json
// @Produce json
// @Param payload body domain.LocationInput true "Query"
// @Success 200 {object} market.LocationInsight "ok"
// @Router /insights/location [post]
func (h *handlers) location(r *stdhttp.Request, in domain.LocationInput) (any, error) {
	return h.analyzer.LocationInsight(r.Context(), in.Location, in.WindowDays)
}

// swagger:route POST /insights/compare Insights insightsCompare
// @Summary Compare price levels of two locations
// @Tags Insights
// @Accept json
// @Produce json
// @Param payload body domain.CompareInput true "Query"
// @Success 200 {object} market.CompareResult "ok"
// @Router /insights/compare [post]
func (h *handlers) compare(r *stdhttp.Request, in domain.CompareInput) (any, error) {
	return h.analyzer.Compare(r.Context(), in.LocationA, in.LocationB, in.WindowDays)
}

// swagger:route POST /insights/series Insights insightsSeries
// @Summary Day-bucketed average price series
// @Tags Insights
// @Accept json
// @Produce json
// @Param payload body domain.SeriesInput true "Query"
// @Success 200 {array} insightdom.DailyPoint "ok"
// @Router /insights/series [post]
func (h *handlers) series(r *stdhttp.Request, in domain.SeriesInput) (any, error) {
	from, err := time.Parse("2006-01-02", in.From)
	if err != nil {
		return nil, err
	}
	to, err := time.Parse("2006-01-02", in.To)
	if err != nil {
		return nil, err
	}
	return h.analyzer.DailySeries(r.Context(), in.Location, from.UTC(), to.UTC())
}

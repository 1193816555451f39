// Package trend turns ledger slices into location insights.
// Analyze and Compare are pure; callers own clock stamping and persistence
package trend

import (
	"errors"
	"math"
	"sort"
	"time"

	"propwatch/internal/core/market"
)

// DefaultMinPoints is the smallest sample that yields a defined trend
const DefaultMinPoints = 3

// DefaultMinOverlap is the smallest shared-day count that yields a correlation
const DefaultMinOverlap = 3

// ErrNoBasis means one side of a comparison has no usable average price
var ErrNoBasis = errors.New("trend: no price basis for comparison")

// Options tunes an Analyzer
type Options struct {
	// MinPoints is the minimum ledger points before a trend is computed; <=0 means DefaultMinPoints
	MinPoints int
	// MinOverlap is the minimum shared series days before a correlation is computed; <=0 means DefaultMinOverlap
	MinOverlap int
}

// Analyzer computes insights over price points
type Analyzer struct {
	opt Options
}

// New returns an Analyzer with opt applied over defaults
func New(opt Options) *Analyzer {
	if opt.MinPoints <= 0 {
		opt.MinPoints = DefaultMinPoints
	}
	if opt.MinOverlap <= 0 {
		opt.MinOverlap = DefaultMinOverlap
	}
	return &Analyzer{opt: opt}
}

// Analyze summarizes points for one location over windowDays.
//
// The trend percentage compares the mean price of the earliest third of the
// sample against the latest third, which damps single-outlier endpoints.
// Fewer than MinPoints points (or a non-positive early mean) yields trend 0
// with SufficientData false instead of failing.
//
// ComputedAt is left zero; callers stamp it when they know the wall clock
func (a *Analyzer) Analyze(points []market.PricePoint, windowDays int) market.LocationInsight {
	ins := market.LocationInsight{WindowDays: windowDays}
	if len(points) == 0 {
		return ins
	}

	sorted := make([]market.PricePoint, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].CapturedAt.Before(sorted[j].CapturedAt) })

	ins.LocationSlug = sorted[0].LocationSlug

	seen := make(map[string]struct{}, len(sorted))
	var priceSum float64
	var sqmSum float64
	var sqmN int
	for _, p := range sorted {
		seen[p.ExternalID] = struct{}{}
		priceSum += float64(p.Price)
		if p.AreaSqm != nil && *p.AreaSqm > 0 {
			sqmSum += float64(p.Price) / *p.AreaSqm
			sqmN++
		}
	}
	ins.ListingCount = len(seen)
	ins.AvgPrice = round2(priceSum / float64(len(sorted)))
	if sqmN > 0 {
		ins.AvgPricePerSqm = round2(sqmSum / float64(sqmN))
	}
	ins.Series = dailySeries(sorted)

	if len(sorted) < a.opt.MinPoints {
		return ins
	}
	seg := (len(sorted) + 2) / 3
	head := meanPrice(sorted[:seg])
	tail := meanPrice(sorted[len(sorted)-seg:])
	if head <= 0 {
		return ins
	}
	ins.TrendPct = round2((tail - head) / head * 100)
	ins.SufficientData = true
	return ins
}

// Compare relates two insights produced over the same window.
//
// PriceRatio is a.AvgPrice / b.AvgPrice. Cheaper names the lower-priced
// location, empty on a tie. Correlation is Pearson over the day-mean pairs
// the two series share and stays nil below MinOverlap shared days or when
// either side is flat, so a thin overlap never reads as "no correlation"
func (a *Analyzer) Compare(x, y market.LocationInsight) (market.CompareResult, error) {
	if x.AvgPrice <= 0 || y.AvgPrice <= 0 {
		return market.CompareResult{}, ErrNoBasis
	}
	res := market.CompareResult{
		SlugA:      x.LocationSlug,
		SlugB:      y.LocationSlug,
		PriceRatio: round4(x.AvgPrice / y.AvgPrice),
	}
	switch {
	case x.AvgPrice < y.AvgPrice:
		res.Cheaper = x.LocationSlug
	case y.AvgPrice < x.AvgPrice:
		res.Cheaper = y.LocationSlug
	}

	xs, ys := overlap(x.Series, y.Series)
	if len(xs) >= a.opt.MinOverlap {
		if r, ok := pearson(xs, ys); ok {
			res.Correlation = market.FloatPtr(round4(r))
		}
	}
	return res, nil
}

// dailySeries buckets points into UTC days and averages each bucket
func dailySeries(sorted []market.PricePoint) []market.SeriesPoint {
	sums := map[time.Time]struct {
		sum float64
		n   int
	}{}
	for _, p := range sorted {
		day := p.CapturedAt.UTC().Truncate(24 * time.Hour)
		agg := sums[day]
		agg.sum += float64(p.Price)
		agg.n++
		sums[day] = agg
	}
	out := make([]market.SeriesPoint, 0, len(sums))
	for day, agg := range sums {
		out = append(out, market.SeriesPoint{Day: day, MeanPrice: round2(agg.sum / float64(agg.n))})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out
}

// overlap aligns two series on shared days and returns paired means
func overlap(a, b []market.SeriesPoint) (xs, ys []float64) {
	byDay := make(map[time.Time]float64, len(b))
	for _, p := range b {
		byDay[p.Day] = p.MeanPrice
	}
	for _, p := range a {
		if v, ok := byDay[p.Day]; ok {
			xs = append(xs, p.MeanPrice)
			ys = append(ys, v)
		}
	}
	return xs, ys
}

// pearson returns the correlation coefficient, false when undefined (flat input)
func pearson(xs, ys []float64) (float64, bool) {
	n := float64(len(xs))
	var sx, sy float64
	for i := range xs {
		sx += xs[i]
		sy += ys[i]
	}
	mx, my := sx/n, sy/n
	var cov, vx, vy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if vx == 0 || vy == 0 {
		return 0, false
	}
	return cov / math.Sqrt(vx*vy), true
}

func meanPrice(points []market.PricePoint) float64 {
	var sum float64
	for _, p := range points {
		sum += float64(p.Price)
	}
	return sum / float64(len(points))
}

func round2(f float64) float64 { return math.Round(f*100) / 100 }

func round4(f float64) float64 { return math.Round(f*10000) / 10000 }

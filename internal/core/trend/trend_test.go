package trend

import (
	"testing"
	"time"

	"propwatch/internal/core/market"
)

var day0 = time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

func point(id string, price int64, day int) market.PricePoint {
	return market.PricePoint{
		ExternalID:   id,
		LocationSlug: "jlt",
		Price:        price,
		Currency:     "AED",
		CapturedAt:   day0.AddDate(0, 0, day),
	}
}

func pointArea(id string, price int64, day int, area float64) market.PricePoint {
	p := point(id, price, day)
	p.AreaSqm = &area
	return p
}

func TestAnalyze_Empty(t *testing.T) {
	ins := New(Options{}).Analyze(nil, 30)

	if ins.SufficientData {
		t.Fatalf("empty input cannot be sufficient")
	}
	if ins.TrendPct != 0 || ins.AvgPrice != 0 || ins.ListingCount != 0 {
		t.Fatalf("empty input should zero out: %+v", ins)
	}
	if ins.WindowDays != 30 {
		t.Fatalf("window not carried: %+v", ins)
	}
}

func TestAnalyze_SinglePoint(t *testing.T) {
	ins := New(Options{}).Analyze([]market.PricePoint{point("a", 1000, 0)}, 7)

	if ins.SufficientData {
		t.Fatalf("one point is not a trend")
	}
	if ins.TrendPct != 0 {
		t.Fatalf("trend must stay 0, got %v", ins.TrendPct)
	}
	if ins.AvgPrice != 1000 || ins.ListingCount != 1 {
		t.Fatalf("aggregates still expected: %+v", ins)
	}
	if ins.LocationSlug != "jlt" {
		t.Fatalf("slug not derived: %+v", ins)
	}
}

func TestAnalyze_ThirdsTrend(t *testing.T) {
	// six points: head segment means 100, tail segment means 110 -> +10%
	points := []market.PricePoint{
		point("a", 100, 0), point("b", 100, 1),
		point("a", 105, 2), point("b", 105, 3),
		point("a", 110, 4), point("b", 110, 5),
	}
	ins := New(Options{}).Analyze(points, 30)

	if !ins.SufficientData {
		t.Fatalf("six points should suffice")
	}
	if ins.TrendPct != 10 {
		t.Fatalf("expected +10, got %v", ins.TrendPct)
	}
	if ins.ListingCount != 2 {
		t.Fatalf("expected 2 distinct listings, got %d", ins.ListingCount)
	}
	if ins.AvgPrice != 105 {
		t.Fatalf("expected avg 105, got %v", ins.AvgPrice)
	}
}

func TestAnalyze_OutlierEndpointDamped(t *testing.T) {
	// a wild last point moves the tail mean, not the whole trend to its value
	points := []market.PricePoint{
		point("a", 100, 0), point("a", 100, 1), point("a", 100, 2),
		point("a", 100, 3), point("a", 100, 4), point("a", 100, 5),
		point("a", 100, 6), point("a", 100, 7), point("a", 400, 8),
	}
	ins := New(Options{}).Analyze(points, 30)

	// tail third mean = (100+100+400)/3 = 200 -> +100%, not +300%
	if ins.TrendPct != 100 {
		t.Fatalf("expected +100, got %v", ins.TrendPct)
	}
}

func TestAnalyze_InputOrderIrrelevant(t *testing.T) {
	asc := []market.PricePoint{point("a", 100, 0), point("a", 110, 1), point("a", 120, 2)}
	desc := []market.PricePoint{asc[2], asc[0], asc[1]}

	a := New(Options{}).Analyze(asc, 30)
	b := New(Options{}).Analyze(desc, 30)

	if a.TrendPct != b.TrendPct || a.AvgPrice != b.AvgPrice {
		t.Fatalf("input order leaked into result: %+v vs %+v", a, b)
	}
	if desc[0].ExternalID != "a" || !desc[0].CapturedAt.Equal(day0.AddDate(0, 0, 2)) {
		t.Fatalf("caller slice mutated")
	}
}

func TestAnalyze_PricePerSqm(t *testing.T) {
	points := []market.PricePoint{
		pointArea("a", 1000, 0, 100), // 10 per sqm
		pointArea("b", 3000, 1, 100), // 30 per sqm
		point("c", 99999, 2),         // no area, excluded from sqm average
	}
	ins := New(Options{}).Analyze(points, 30)

	if ins.AvgPricePerSqm != 20 {
		t.Fatalf("expected 20 per sqm, got %v", ins.AvgPricePerSqm)
	}
}

func TestAnalyze_Series(t *testing.T) {
	points := []market.PricePoint{
		point("a", 100, 0), point("b", 200, 0),
		point("a", 300, 1),
	}
	ins := New(Options{}).Analyze(points, 30)

	if len(ins.Series) != 2 {
		t.Fatalf("expected 2 series days, got %d", len(ins.Series))
	}
	if ins.Series[0].MeanPrice != 150 || ins.Series[1].MeanPrice != 300 {
		t.Fatalf("series means wrong: %+v", ins.Series)
	}
	if !ins.Series[0].Day.Before(ins.Series[1].Day) {
		t.Fatalf("series must be day ascending")
	}
}

func TestAnalyze_MinPointsOption(t *testing.T) {
	points := []market.PricePoint{
		point("a", 100, 0), point("a", 110, 1), point("a", 120, 2), point("a", 130, 3),
	}
	if ins := New(Options{MinPoints: 5}).Analyze(points, 30); ins.SufficientData {
		t.Fatalf("raised MinPoints should mark 4 points insufficient")
	}
	if ins := New(Options{MinPoints: 4}).Analyze(points, 30); !ins.SufficientData {
		t.Fatalf("4 points should satisfy MinPoints=4")
	}
}

func insight(slug string, avg float64, days []int, means []float64) market.LocationInsight {
	series := make([]market.SeriesPoint, len(days))
	for i, d := range days {
		series[i] = market.SeriesPoint{
			Day:       time.Date(2025, 5, 1+d, 0, 0, 0, 0, time.UTC),
			MeanPrice: means[i],
		}
	}
	return market.LocationInsight{
		LocationSlug:   slug,
		AvgPrice:       avg,
		Series:         series,
		SufficientData: true,
	}
}

func TestCompare_RatioAndCheaper(t *testing.T) {
	a := insight("jlt", 1000, nil, nil)
	b := insight("dubai-marina", 2000, nil, nil)

	res, err := New(Options{}).Compare(a, b)
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if res.PriceRatio != 0.5 {
		t.Fatalf("expected ratio 0.5, got %v", res.PriceRatio)
	}
	if res.Cheaper != "jlt" {
		t.Fatalf("expected jlt cheaper, got %q", res.Cheaper)
	}
	if res.Correlation != nil {
		t.Fatalf("no overlap, correlation must be omitted")
	}
}

func TestCompare_Tie(t *testing.T) {
	res, err := New(Options{}).Compare(insight("a", 500, nil, nil), insight("b", 500, nil, nil))
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if res.Cheaper != "" {
		t.Fatalf("tie should name neither, got %q", res.Cheaper)
	}
}

func TestCompare_NoBasis(t *testing.T) {
	_, err := New(Options{}).Compare(insight("a", 0, nil, nil), insight("b", 100, nil, nil))
	if err != ErrNoBasis {
		t.Fatalf("expected ErrNoBasis, got %v", err)
	}
}

func TestCompare_CorrelationPositive(t *testing.T) {
	a := insight("a", 100, []int{0, 1, 2, 3}, []float64{100, 110, 120, 130})
	b := insight("b", 200, []int{0, 1, 2, 3}, []float64{200, 220, 240, 260})

	res, err := New(Options{}).Compare(a, b)
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if res.Correlation == nil {
		t.Fatalf("expected a correlation over 4 shared days")
	}
	if *res.Correlation != 1 {
		t.Fatalf("perfectly linear series should correlate 1, got %v", *res.Correlation)
	}
}

func TestCompare_ThinOverlapOmitted(t *testing.T) {
	a := insight("a", 100, []int{0, 1}, []float64{100, 110})
	b := insight("b", 200, []int{0, 1}, []float64{200, 220})

	res, err := New(Options{}).Compare(a, b)
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if res.Correlation != nil {
		t.Fatalf("2 shared days is below the default overlap, got %v", *res.Correlation)
	}
}

func TestCompare_FlatSideOmitted(t *testing.T) {
	a := insight("a", 100, []int{0, 1, 2}, []float64{100, 100, 100})
	b := insight("b", 200, []int{0, 1, 2}, []float64{200, 220, 240})

	res, err := New(Options{}).Compare(a, b)
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if res.Correlation != nil {
		t.Fatalf("flat series has no defined correlation, got %v", *res.Correlation)
	}
}

package service

import (
	"context"
	"testing"
	"time"

	"propwatch/internal/adapters/notify"
	"propwatch/internal/core/market"
	"propwatch/internal/modkit/repokit"
	"propwatch/internal/platform/store"
	"propwatch/internal/services/digest/domain"
	"propwatch/internal/services/digest/repo"
	insightdom "propwatch/internal/services/insights/domain"
	listdom "propwatch/internal/services/listings/domain"
)

type fakeStorage struct {
	claimed map[string]bool
	counts  map[string]domain.EventCounts
}

func (f *fakeStorage) ClaimDay(_ context.Context, day time.Time) (bool, error) {
	key := day.Format("2006-01-02")
	if f.claimed[key] {
		return false, nil
	}
	f.claimed[key] = true
	return true, nil
}

func (f *fakeStorage) EventCounts(
	_ context.Context,
	slug string,
	_, _ time.Time,
) (domain.EventCounts, error) {
	return f.counts[slug], nil
}

type fakeTx struct{}

func (f *fakeTx) Tx(_ context.Context, fn func(q repokit.Queryer) error) error { return fn(nil) }
func (f *fakeTx) Exec(context.Context, string, ...any) (store.CommandTag, error) {
	return nil, nil
}
func (f *fakeTx) Query(context.Context, string, ...any) (store.Rows, error) { return nil, nil }
func (f *fakeTx) QueryRow(context.Context, string, ...any) store.Row        { return nil }

type fakeDirectory struct{ rows []listdom.LocationRow }

func (f *fakeDirectory) Locations(context.Context) ([]listdom.LocationRow, error) {
	return f.rows, nil
}

type fakeInsights struct{ insight market.LocationInsight }

func (f *fakeInsights) LocationInsight(_ context.Context, slug string, _ int) (market.LocationInsight, error) {
	ins := f.insight
	ins.LocationSlug = slug
	return ins, nil
}

func (f *fakeInsights) Compare(context.Context, string, string, int) (market.CompareResult, error) {
	return market.CompareResult{}, nil
}

func (f *fakeInsights) DailySeries(
	context.Context,
	string,
	time.Time,
	time.Time,
) ([]insightdom.DailyPoint, error) {
	return nil, nil
}

type sinkDispatcher struct{ alerts []notify.Alert }

func (d *sinkDispatcher) Send(_ context.Context, a notify.Alert) error {
	d.alerts = append(d.alerts, a)
	return nil
}

func newTestSvc(st *fakeStorage, dir *fakeDirectory, sink *sinkDispatcher) *Service {
	b := repokit.BindFunc[repo.Storage](func(repokit.Queryer) repo.Storage { return st })
	return New(&fakeTx{}, b, dir, &fakeInsights{insight: market.LocationInsight{
		ListingCount: 10, AvgPrice: 5000, TrendPct: 2.5, SufficientData: true,
	}}, sink, Config{At: "08:00"})
}

func TestCronSpec(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"08:00", "0 8 * * *", true},
		{"23:59", "59 23 * * *", true},
		{"0:5", "5 0 * * *", true},
		{"24:00", "", false},
		{"08", "", false},
		{"aa:bb", "", false},
	}
	for _, c := range cases {
		got, err := CronSpec(c.in)
		if c.ok && (err != nil || got != c.want) {
			t.Fatalf("CronSpec(%q) = %q, %v; want %q", c.in, got, err, c.want)
		}
		if !c.ok && err == nil {
			t.Fatalf("CronSpec(%q) should fail", c.in)
		}
	}
}

func TestRunOnce_DispatchesPerEnabledLocation(t *testing.T) {
	st := &fakeStorage{
		claimed: map[string]bool{},
		counts: map[string]domain.EventCounts{
			"marina": {New: 3, PriceChanged: 2},
			"jvc":    {Removed: 1},
		},
	}
	dir := &fakeDirectory{rows: []listdom.LocationRow{
		{Slug: "marina", Name: "Dubai Marina", Enabled: true},
		{Slug: "jvc", Name: "JVC", Enabled: true},
		{Slug: "old-town", Name: "Old Town", Enabled: false},
	}}
	sink := &sinkDispatcher{}
	svc := newTestSvc(st, dir, sink)

	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	if err := svc.RunOnce(context.Background(), day); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if len(sink.alerts) != 2 {
		t.Fatalf("alerts = %d, want 2 (disabled location skipped)", len(sink.alerts))
	}
	a := sink.alerts[0]
	if a.Kind != notify.KindDigest {
		t.Fatalf("kind = %s, want digest", a.Kind)
	}
	if a.Fields["new"].(int64) != 3 || a.Fields["price_changed"].(int64) != 2 {
		t.Fatalf("fields = %v", a.Fields)
	}
	if a.Fields["trend_pct"].(float64) != 2.5 {
		t.Fatalf("trend field missing: %v", a.Fields)
	}
}

func TestRunOnce_SecondClaimIsCleanSkip(t *testing.T) {
	st := &fakeStorage{claimed: map[string]bool{}, counts: map[string]domain.EventCounts{}}
	dir := &fakeDirectory{rows: []listdom.LocationRow{{Slug: "marina", Name: "Marina", Enabled: true}}}
	sink := &sinkDispatcher{}
	svc := newTestSvc(st, dir, sink)

	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	if err := svc.RunOnce(context.Background(), day); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := svc.RunOnce(context.Background(), day); err != nil {
		t.Fatalf("second run should skip cleanly: %v", err)
	}
	if len(sink.alerts) != 1 {
		t.Fatalf("alerts = %d, want 1", len(sink.alerts))
	}
}

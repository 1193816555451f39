package domain

import (
	"strings"
	"testing"
)

func TestParseWatchlist_DerivesSlugAndDefaults(t *testing.T) {
	raw := []byte(`
locations:
  - name: "Dubai Marina"
    query: "purpose:for-sale AND location:dubai-marina"
  - slug: jvc
    name: "Jumeirah Village Circle"
    query: "purpose:for-sale AND location:jvc"
    interval_minutes: 30
    max_pages: 5
    enabled: false
    gate_overrides:
      threshold_pct: 2.5
`)
	wl, err := ParseWatchlist(raw)
	if err != nil {
		t.Fatalf("ParseWatchlist: %v", err)
	}
	if len(wl.Locations) != 2 {
		t.Fatalf("locations = %d, want 2", len(wl.Locations))
	}
	if wl.Locations[0].Slug != "dubai-marina" {
		t.Fatalf("derived slug = %q, want dubai-marina", wl.Locations[0].Slug)
	}

	rows, err := wl.Rows()
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	if !rows[0].Enabled || rows[0].IntervalMinutes != 60 || rows[0].MaxPages != 20 {
		t.Fatalf("defaults not applied: %+v", rows[0])
	}
	if rows[1].Enabled {
		t.Fatalf("jvc should be disabled")
	}
	if rows[1].IntervalMinutes != 30 || rows[1].MaxPages != 5 {
		t.Fatalf("explicit knobs not kept: %+v", rows[1])
	}
	if !strings.Contains(string(rows[1].GateOverrides), "threshold_pct") {
		t.Fatalf("gate overrides not encoded: %s", rows[1].GateOverrides)
	}
}

func TestParseWatchlist_RejectsDuplicateSlugs(t *testing.T) {
	raw := []byte(`
locations:
  - name: "Dubai Marina"
    query: "q"
  - slug: dubai-marina
    name: "Marina again"
    query: "q"
`)
	if _, err := ParseWatchlist(raw); err == nil {
		t.Fatalf("expected duplicate slug error")
	}
}

func TestParseWatchlist_RejectsMissingFields(t *testing.T) {
	raw := []byte(`
locations:
  - slug: nameless
    query: "q"
`)
	if _, err := ParseWatchlist(raw); err == nil {
		t.Fatalf("expected validation error for missing name")
	}
}

func TestParseWatchlist_RejectsEmptyFile(t *testing.T) {
	if _, err := ParseWatchlist([]byte("locations: []")); err == nil {
		t.Fatalf("expected validation error for empty watchlist")
	}
}

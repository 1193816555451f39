package rulebook

import (
	"testing"
	"time"
)

func TestLoadEmbedded(t *testing.T) {
	b, err := Load()
	if err != nil {
		t.Fatalf("Load(): %v", err)
	}
	if b.Version != 1 {
		t.Fatalf("expected version 1, got %d", b.Version)
	}
	if len(b.Categories()) == 0 {
		t.Fatalf("expected category overrides in the embedded rules")
	}

	d := b.Defaults()
	if !d.NotifyOnNew || !d.NotifyOnRemoved || d.NotifyOnUpdated {
		t.Fatalf("default flags off baseline: %+v", d)
	}
	if d.PriceChangeThresholdPct != 5 {
		t.Fatalf("expected default threshold 5, got %v", d.PriceChangeThresholdPct)
	}
	if d.CooldownPerListing != 6*time.Hour || d.WindowDuration != 24*time.Hour {
		t.Fatalf("durations not parsed: %+v", d)
	}
}

func TestResolveOverlaysDefaults(t *testing.T) {
	b, err := Load()
	if err != nil {
		t.Fatalf("Load(): %v", err)
	}

	apt := b.Resolve("apartments")
	if apt.PriceChangeThresholdPct != 3 {
		t.Fatalf("apartments threshold override missing: %+v", apt)
	}
	if apt.CooldownPerListing != b.Defaults().CooldownPerListing {
		t.Fatalf("unset fields must inherit defaults: %+v", apt)
	}

	// resolution is case and whitespace tolerant
	if b.Resolve(" Apartments ") != apt {
		t.Fatalf("category lookup should fold case")
	}

	// unknown categories fall back
	if b.Resolve("warehouses") != b.Defaults() {
		t.Fatalf("unknown category must resolve to defaults")
	}
}

func TestProfileConfigStampsNow(t *testing.T) {
	b, err := Load()
	if err != nil {
		t.Fatalf("Load(): %v", err)
	}
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	cfg := b.Resolve("villas").Config(now)

	if !cfg.Now.Equal(now) {
		t.Fatalf("config must carry the passed instant")
	}
	if cfg.PriceChangeThresholdPct != 2 || !cfg.NotifyOnUpdated {
		t.Fatalf("villas profile not mapped: %+v", cfg)
	}
}

func TestParseRejectsBadDocuments(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{"wrong version", `{"version": 7}`},
		{"bad duration", `{"version": 1, "defaults": {"cooldown_per_listing": "soon"}}`},
		{"negative threshold", `{"version": 1, "defaults": {"price_change_threshold_pct": -1}}`},
		{"negative cap", `{"version": 1, "categories": {"villas": {"max_alerts_per_window": -5}}}`},
		{"empty category key", `{"version": 1, "categories": {" ": {}}}`},
		{"not json", `{"version": 1,`},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse([]byte(tc.doc)); err == nil {
				t.Fatalf("expected parse failure")
			}
		})
	}
}

func TestParsePartialOverride(t *testing.T) {
	doc := `{
		"version": 1,
		"defaults": {"price_change_threshold_pct": 8, "notify_on_updated": true},
		"categories": {"offices": {"window_duration": "1h"}}
	}`
	b, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse(): %v", err)
	}

	off := b.Resolve("offices")
	if off.WindowDuration != time.Hour {
		t.Fatalf("override not applied: %+v", off)
	}
	if off.PriceChangeThresholdPct != 8 || !off.NotifyOnUpdated {
		t.Fatalf("document defaults must flow into categories: %+v", off)
	}
	if off.MaxAlertsPerWindow != baseline.MaxAlertsPerWindow {
		t.Fatalf("baseline must fill whatever the document leaves unset: %+v", off)
	}
}

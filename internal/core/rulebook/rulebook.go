// Package rulebook loads notification profiles from the embedded v1 rules.json.
// A profile is the per-category gate configuration before runtime overrides
package rulebook

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"propwatch/internal/core/gate"
)

//go:embed rules.json
var embedded []byte

// baseline is the profile every book starts from; rules.json layers on top
var baseline = Profile{
	NotifyOnNew:             true,
	NotifyOnRemoved:         true,
	NotifyOnUpdated:         false,
	PriceChangeThresholdPct: 5,
	CooldownPerListing:      6 * time.Hour,
	MaxAlertsPerWindow:      20,
	WindowDuration:          24 * time.Hour,
}

type rawProfile struct {
	NotifyOnNew             *bool    `json:"notify_on_new,omitempty"`
	NotifyOnRemoved         *bool    `json:"notify_on_removed,omitempty"`
	NotifyOnUpdated         *bool    `json:"notify_on_updated,omitempty"`
	PriceChangeThresholdPct *float64 `json:"price_change_threshold_pct,omitempty"`
	CooldownPerListing      *string  `json:"cooldown_per_listing,omitempty"`
	MaxAlertsPerWindow      *int     `json:"max_alerts_per_window,omitempty"`
	WindowDuration          *string  `json:"window_duration,omitempty"`
}

type rawBookV1 struct {
	Version    int                   `json:"version"`
	Meta       map[string]any        `json:"meta"`
	Defaults   rawProfile            `json:"defaults"`
	Categories map[string]rawProfile `json:"categories"`
}

// Profile is one resolved notification configuration.
// Durations are parsed; zero values mean the corresponding check is off
type Profile struct {
	NotifyOnNew             bool
	NotifyOnRemoved         bool
	NotifyOnUpdated         bool
	PriceChangeThresholdPct float64
	CooldownPerListing      time.Duration
	MaxAlertsPerWindow      int
	WindowDuration          time.Duration
}

// Config stamps the profile into a gate config for one evaluation instant
func (p Profile) Config(now time.Time) gate.Config {
	return gate.Config{
		NotifyOnNew:             p.NotifyOnNew,
		NotifyOnRemoved:         p.NotifyOnRemoved,
		NotifyOnUpdated:         p.NotifyOnUpdated,
		PriceChangeThresholdPct: p.PriceChangeThresholdPct,
		CooldownPerListing:      p.CooldownPerListing,
		MaxAlertsPerWindow:      p.MaxAlertsPerWindow,
		WindowDuration:          p.WindowDuration,
		Now:                     now,
	}
}

// Book holds the compiled default profile and per-category variants
type Book struct {
	Version int
	Meta    map[string]any

	defaults   Profile
	categories map[string]Profile
}

// Load returns the compiled book from the embedded v1 rules.json
func Load() (*Book, error) {
	return Parse(embedded)
}

// Parse compiles a rules document; the rules lint command feeds it external files
func Parse(data []byte) (*Book, error) {
	var rb rawBookV1
	if err := json.Unmarshal(data, &rb); err != nil {
		return nil, fmt.Errorf("rulebook: parse rules.json: %w", err)
	}
	if rb.Version != 1 {
		return nil, fmt.Errorf("rulebook: unsupported rules.json version %d (want 1)", rb.Version)
	}

	defaults, err := overlay(baseline, rb.Defaults)
	if err != nil {
		return nil, fmt.Errorf("rulebook: defaults: %w", err)
	}

	b := &Book{
		Version:    rb.Version,
		Meta:       rb.Meta,
		defaults:   defaults,
		categories: make(map[string]Profile, len(rb.Categories)),
	}
	for cat, raw := range rb.Categories {
		key := strings.ToLower(strings.TrimSpace(cat))
		if key == "" {
			return nil, fmt.Errorf("rulebook: empty category key")
		}
		p, err := overlay(defaults, raw)
		if err != nil {
			return nil, fmt.Errorf("rulebook: category %q: %w", key, err)
		}
		b.categories[key] = p
	}
	return b, nil
}

// Resolve returns the profile for a listing category, falling back to the
// defaults for unknown or empty categories
func (b *Book) Resolve(category string) Profile {
	if p, ok := b.categories[strings.ToLower(strings.TrimSpace(category))]; ok {
		return p
	}
	return b.defaults
}

// Defaults returns the resolved default profile
func (b *Book) Defaults() Profile { return b.defaults }

// Categories lists the category keys carrying explicit overrides, sorted
func (b *Book) Categories() []string {
	out := make([]string, 0, len(b.categories))
	for k := range b.categories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// OverlayJSON applies a JSON profile fragment onto base.
// The fragment uses the same field names as rules.json profiles; the
// watchlist's per-location overrides ride through here
func OverlayJSON(base Profile, data []byte) (Profile, error) {
	if len(data) == 0 {
		return base, nil
	}
	var raw rawProfile
	if err := json.Unmarshal(data, &raw); err != nil {
		return Profile{}, fmt.Errorf("rulebook: parse overrides: %w", err)
	}
	return overlay(base, raw)
}

// overlay applies the set fields of raw onto base and validates the result
func overlay(base Profile, raw rawProfile) (Profile, error) {
	p := base
	if raw.NotifyOnNew != nil {
		p.NotifyOnNew = *raw.NotifyOnNew
	}
	if raw.NotifyOnRemoved != nil {
		p.NotifyOnRemoved = *raw.NotifyOnRemoved
	}
	if raw.NotifyOnUpdated != nil {
		p.NotifyOnUpdated = *raw.NotifyOnUpdated
	}
	if raw.PriceChangeThresholdPct != nil {
		p.PriceChangeThresholdPct = *raw.PriceChangeThresholdPct
	}
	if raw.CooldownPerListing != nil {
		d, err := time.ParseDuration(*raw.CooldownPerListing)
		if err != nil {
			return Profile{}, fmt.Errorf("cooldown_per_listing: %w", err)
		}
		p.CooldownPerListing = d
	}
	if raw.MaxAlertsPerWindow != nil {
		p.MaxAlertsPerWindow = *raw.MaxAlertsPerWindow
	}
	if raw.WindowDuration != nil {
		d, err := time.ParseDuration(*raw.WindowDuration)
		if err != nil {
			return Profile{}, fmt.Errorf("window_duration: %w", err)
		}
		p.WindowDuration = d
	}

	if p.PriceChangeThresholdPct < 0 {
		return Profile{}, fmt.Errorf("price_change_threshold_pct must not be negative")
	}
	if p.CooldownPerListing < 0 {
		return Profile{}, fmt.Errorf("cooldown_per_listing must not be negative")
	}
	if p.MaxAlertsPerWindow < 0 {
		return Profile{}, fmt.Errorf("max_alerts_per_window must not be negative")
	}
	if p.WindowDuration < 0 {
		return Profile{}, fmt.Errorf("window_duration must not be negative")
	}
	return p, nil
}

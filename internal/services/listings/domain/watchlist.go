package domain

import (
	"encoding/json"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"propwatch/internal/core/slug"
	perr "propwatch/internal/platform/errors"
)

// WatchlistEntry is one location declared in the watchlist YAML file
type WatchlistEntry struct {
	Slug            string         `yaml:"slug" json:"slug" validate:"omitempty,max=64"`
	Name            string         `yaml:"name" json:"name" validate:"required,max=128"`
	Query           string         `yaml:"query" json:"query" validate:"required"`
	Enabled         *bool          `yaml:"enabled" json:"enabled"`
	IntervalMinutes int            `yaml:"interval_minutes" json:"interval_minutes" validate:"omitempty,min=1,max=1440"`
	MaxPages        int            `yaml:"max_pages" json:"max_pages" validate:"omitempty,min=1,max=200"`
	GateOverrides   map[string]any `yaml:"gate_overrides" json:"gate_overrides"`
}

// Watchlist is the parsed watchlist file
type Watchlist struct {
	Locations []WatchlistEntry `yaml:"locations" validate:"required,min=1,dive"`
}

// LoadWatchlist reads and validates the YAML watchlist at path.
// Entries without an explicit slug get one derived from the name;
// duplicate slugs are rejected
func LoadWatchlist(path string) (Watchlist, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Watchlist{}, perr.Wrapf(err, perr.ErrorCodeNotFound, "read watchlist %s", path)
	}
	return ParseWatchlist(raw)
}

// ParseWatchlist parses and validates watchlist YAML bytes
func ParseWatchlist(raw []byte) (Watchlist, error) {
	var wl Watchlist
	if err := yaml.Unmarshal(raw, &wl); err != nil {
		return Watchlist{}, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "parse watchlist yaml")
	}

	seen := make(map[string]struct{}, len(wl.Locations))
	for i := range wl.Locations {
		e := &wl.Locations[i]
		if e.Slug == "" {
			e.Slug = slug.Make(e.Name)
		}
		if _, dup := seen[e.Slug]; dup {
			return Watchlist{}, perr.InvalidArgf("duplicate watchlist slug %q", e.Slug)
		}
		seen[e.Slug] = struct{}{}
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(wl); err != nil {
		return Watchlist{}, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "validate watchlist")
	}
	return wl, nil
}

// Rows converts watchlist entries into location rows ready for seeding
func (w Watchlist) Rows() ([]LocationRow, error) {
	rows := make([]LocationRow, 0, len(w.Locations))
	for _, e := range w.Locations {
		enabled := true
		if e.Enabled != nil {
			enabled = *e.Enabled
		}
		interval := e.IntervalMinutes
		if interval <= 0 {
			interval = 60
		}
		maxPages := e.MaxPages
		if maxPages <= 0 {
			maxPages = 20
		}
		var overrides []byte
		if len(e.GateOverrides) > 0 {
			b, err := json.Marshal(e.GateOverrides)
			if err != nil {
				return nil, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "encode gate overrides for %s", e.Slug)
			}
			overrides = b
		}
		rows = append(rows, LocationRow{
			Slug:            e.Slug,
			Name:            e.Name,
			Query:           e.Query,
			Enabled:         enabled,
			IntervalMinutes: interval,
			MaxPages:        maxPages,
			GateOverrides:   overrides,
		})
	}
	return rows, nil
}

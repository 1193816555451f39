// Command propwatch-rules lints notification rules and watchlist files.
// It compiles the rule book, overlays every per-location gate override and
// reports what the runtime would actually use, without touching a database
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"propwatch/internal/core/rulebook"
	listdom "propwatch/internal/services/listings/domain"
)

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "propwatch-rules: "+format+"\n", args...)
	os.Exit(1)
}

func main() {
	var (
		fRules     = flag.String("rules", "", "rules.json to lint (empty = the embedded book)")
		fWatchlist = flag.String("watchlist", "", "watchlist.yaml to lint (optional)")
		fVerbose   = flag.Bool("v", false, "print resolved profiles")
	)
	flag.Parse()

	book := loadBook(*fRules)
	fmt.Printf("rules: version %d, %d category override(s) ok\n", book.Version, len(book.Categories()))
	if *fVerbose {
		printProfile("defaults", book.Defaults())
		for _, cat := range book.Categories() {
			printProfile(cat, book.Resolve(cat))
		}
	}

	if *fWatchlist == "" {
		return
	}

	wl, err := listdom.LoadWatchlist(*fWatchlist)
	if err != nil {
		fail("watchlist: %v", err)
	}
	rows, err := wl.Rows()
	if err != nil {
		fail("watchlist: %v", err)
	}

	enabled := 0
	for _, row := range rows {
		if row.Enabled {
			enabled++
		}

		// the watcher overlays these at cycle time; surface bad
		// fragments here instead of in a nightly log
		profile, err := rulebook.OverlayJSON(book.Defaults(), row.GateOverrides)
		if err != nil {
			fail("watchlist: location %q: %v", row.Slug, err)
		}

		if *fVerbose {
			fmt.Printf("\nlocation %s (%q) every %dm, max %d pages, enabled=%v\n",
				row.Slug, row.Name, row.IntervalMinutes, row.MaxPages, row.Enabled)
			printProfile("effective gate", profile)
		}
	}
	fmt.Printf("watchlist: %d location(s) ok, %d enabled\n", len(rows), enabled)
}

func loadBook(path string) *rulebook.Book {
	if path == "" {
		book, err := rulebook.Load()
		if err != nil {
			fail("embedded rules: %v", err)
		}
		return book
	}
	data, err := os.ReadFile(path)
	if err != nil {
		fail("rules: %v", err)
	}
	book, err := rulebook.Parse(data)
	if err != nil {
		fail("rules: %v", err)
	}
	return book
}

func printProfile(label string, p rulebook.Profile) {
	out, _ := json.MarshalIndent(map[string]any{
		"notify_on_new":              p.NotifyOnNew,
		"notify_on_removed":          p.NotifyOnRemoved,
		"notify_on_updated":          p.NotifyOnUpdated,
		"price_change_threshold_pct": p.PriceChangeThresholdPct,
		"cooldown_per_listing":       p.CooldownPerListing.String(),
		"max_alerts_per_window":      p.MaxAlertsPerWindow,
		"window_duration":            p.WindowDuration.String(),
	}, "  ", "  ")
	fmt.Printf("  %s: %s\n", label, out)
}

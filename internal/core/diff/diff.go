// Package diff computes change events between a persisted location state and a fresh snapshot.
// Detect is pure: identity and timestamps come in through a Stamp so the same
// inputs always produce the same output
package diff

import (
	"fmt"
	"math"
	"sort"
	"time"

	"propwatch/internal/core/market"
)

// Version identifies the detection rule set. Bump it when the rules
// below change so persisted events can be traced to the pass that made them
const Version = 1

// Stamp supplies caller-owned identity for one detection pass
type Stamp struct {
	CycleID    string
	ObservedAt time.Time

	// NewEventID mints event ids; tests inject a deterministic one.
	// nil falls back to a per-pass sequence ("evt-1", "evt-2", ...)
	NewEventID func() string
}

// DuplicateError reports a snapshot carrying the same external id twice.
// A snapshot like that cannot be diffed coherently, so the whole pass fails
type DuplicateError struct {
	ExternalID string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("diff: duplicate external id %q in snapshot", e.ExternalID)
}

// typeRank orders event types for deterministic output
var typeRank = map[market.ChangeType]int{
	market.ChangeNew:          0,
	market.ChangePriceChanged: 1,
	market.ChangeUpdated:      2,
	market.ChangeRemoved:      3,
}

// Detect diffs previous against snap and returns one event per affected listing.
//
// Rules:
//   - only in snap          -> new
//   - only in previous      -> removed (an empty snapshot removes everything)
//   - price differs         -> price_changed, regardless of other field edits
//   - other tracked fields  -> updated
//
// DeltaPct is nil when the old price is not positive or the currency changed.
// Events are sorted by (type rank, external id)
func Detect(previous market.LocationState, snap market.Snapshot, st Stamp) ([]market.ChangeEvent, error) {
	nextID := st.NewEventID
	if nextID == nil {
		seq := 0
		nextID = func() string {
			seq++
			return fmt.Sprintf("evt-%d", seq)
		}
	}

	current := make(map[string]market.Listing, len(snap.Listings))
	for _, l := range snap.Listings {
		if _, dup := current[l.ExternalID]; dup {
			return nil, &DuplicateError{ExternalID: l.ExternalID}
		}
		current[l.ExternalID] = l
	}

	events := make([]market.ChangeEvent, 0, len(snap.Listings))

	base := market.ChangeEvent{
		LocationSlug: snap.LocationSlug,
		ObservedAt:   st.ObservedAt,
		CycleID:      st.CycleID,
	}

	for id, l := range current {
		prev, known := previous.Listings[id]
		if !known {
			ev := base
			ev.Type = market.ChangeNew
			ev.ExternalID = id
			ev.Listing = l
			ev.NewPrice = l.Price
			events = append(events, ev)
			continue
		}

		if l.Price != prev.Price || l.Currency != prev.Currency {
			ev := base
			ev.Type = market.ChangePriceChanged
			ev.ExternalID = id
			ev.Listing = l
			ev.OldPrice = prev.Price
			ev.NewPrice = l.Price
			ev.DeltaPct = deltaPct(prev, l)
			ev.ChangedFields = changedFields(prev, l)
			events = append(events, ev)
			continue
		}

		if fields := changedFields(prev, l); len(fields) > 0 {
			ev := base
			ev.Type = market.ChangeUpdated
			ev.ExternalID = id
			ev.Listing = l
			ev.OldPrice = prev.Price
			ev.NewPrice = l.Price
			ev.ChangedFields = fields
			events = append(events, ev)
		}
	}

	for id, prev := range previous.Listings {
		if _, still := current[id]; still {
			continue
		}
		ev := base
		ev.Type = market.ChangeRemoved
		ev.ExternalID = id
		ev.Listing = prev
		ev.OldPrice = prev.Price
		events = append(events, ev)
	}

	sort.Slice(events, func(i, j int) bool {
		ri, rj := typeRank[events[i].Type], typeRank[events[j].Type]
		if ri != rj {
			return ri < rj
		}
		return events[i].ExternalID < events[j].ExternalID
	})

	// ids minted after sorting so injected sequences line up with output order
	for i := range events {
		events[i].ID = nextID()
	}

	return events, nil
}

// deltaPct returns (new-old)/old*100 rounded to 2 decimals, or nil when undefined
func deltaPct(prev, cur market.Listing) *float64 {
	if prev.Price <= 0 {
		return nil
	}
	if prev.Currency != cur.Currency {
		return nil
	}
	d := float64(cur.Price-prev.Price) / float64(prev.Price) * 100
	return market.FloatPtr(round2(d))
}

// changedFields lists tracked non-identity fields that differ, price excluded
func changedFields(prev, cur market.Listing) []string {
	var out []string
	if prev.Title != cur.Title {
		out = append(out, "title")
	}
	if prev.Rooms != cur.Rooms {
		out = append(out, "rooms")
	}
	if prev.Baths != cur.Baths {
		out = append(out, "baths")
	}
	if prev.AreaSqm != cur.AreaSqm {
		out = append(out, "area_sqm")
	}
	if prev.Category != cur.Category {
		out = append(out, "category")
	}
	if prev.Purpose != cur.Purpose {
		out = append(out, "purpose")
	}
	if prev.Verified != cur.Verified {
		out = append(out, "verified")
	}
	if prev.AgencySlug != cur.AgencySlug {
		out = append(out, "agency_slug")
	}
	if prev.Currency != cur.Currency {
		out = append(out, "currency")
	}
	return out
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

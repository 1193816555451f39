// Package gate decides which change events become alerts.
// Evaluate is pure over the passed history; the evaluation instant rides in
// on Config so replays and tests control the clock
package gate

import (
	"math"
	"time"

	"propwatch/internal/core/market"
)

// Suppression reasons, recorded on the decision that carries them
const (
	ReasonTypeDisabled   = "type_disabled"
	ReasonBelowThreshold = "below_threshold"
	ReasonCooldown       = "cooldown"
	ReasonRateLimited    = "rate_limited"
)

// Config is the recognized notification surface.
//
// Price changes have no enable flag; PriceChangeThresholdPct alone governs
// them. CooldownPerListing <= 0 disables the cooldown check and
// MaxAlertsPerWindow <= 0 (or WindowDuration <= 0) disables the global cap
type Config struct {
	NotifyOnNew     bool
	NotifyOnRemoved bool
	NotifyOnUpdated bool

	// PriceChangeThresholdPct suppresses price changes whose absolute
	// delta is strictly below it. A nil delta always passes: an
	// undefined delta is noteworthy, not sub-threshold
	PriceChangeThresholdPct float64

	CooldownPerListing time.Duration
	MaxAlertsPerWindow int
	WindowDuration     time.Duration

	// Now is the evaluation instant
	Now time.Time
}

// Decision is one gate verdict. It doubles as the history record the next
// Evaluate call consumes, so it carries enough identity to match listings
// and count windows
type Decision struct {
	EventID      string            `json:"event_id"`
	ExternalID   string            `json:"external_id"`
	LocationSlug string            `json:"location_slug"`
	Type         market.ChangeType `json:"type"`
	DeltaPct     *float64          `json:"delta_pct,omitempty"`
	At           time.Time         `json:"at"`
	Suppressed   bool              `json:"suppressed"`
	Reason       string            `json:"reason,omitempty"`
}

// Evaluate gates one event against cfg and recent decisions.
//
// Checks run cheapest first and the first refusal wins: type flag, price
// threshold, per-listing cooldown, global rate window. Cooldown and the
// rate window only count prior NON-suppressed decisions, so a run of
// suppressions never starves future alerts
func Evaluate(ev market.ChangeEvent, cfg Config, recent []Decision) Decision {
	dec := Decision{
		EventID:      ev.ID,
		ExternalID:   ev.ExternalID,
		LocationSlug: ev.LocationSlug,
		Type:         ev.Type,
		DeltaPct:     ev.DeltaPct,
		At:           cfg.Now,
	}

	if reason := typeReason(ev.Type, cfg); reason != "" {
		return suppress(dec, reason)
	}

	if ev.Type == market.ChangePriceChanged && ev.DeltaPct != nil {
		if math.Abs(*ev.DeltaPct) < cfg.PriceChangeThresholdPct {
			return suppress(dec, ReasonBelowThreshold)
		}
	}

	if cfg.CooldownPerListing > 0 {
		cutoff := cfg.Now.Add(-cfg.CooldownPerListing)
		for _, h := range recent {
			if h.Suppressed {
				continue
			}
			if h.ExternalID == ev.ExternalID && h.LocationSlug == ev.LocationSlug && h.At.After(cutoff) {
				return suppress(dec, ReasonCooldown)
			}
		}
	}

	if cfg.MaxAlertsPerWindow > 0 && cfg.WindowDuration > 0 {
		cutoff := cfg.Now.Add(-cfg.WindowDuration)
		sent := 0
		for _, h := range recent {
			if h.Suppressed || !h.At.After(cutoff) {
				continue
			}
			sent++
		}
		if sent >= cfg.MaxAlertsPerWindow {
			return suppress(dec, ReasonRateLimited)
		}
	}

	return dec
}

// typeReason returns ReasonTypeDisabled for event types the config rejects
// outright. Price changes are governed by the threshold, never by a flag,
// and unknown types are always rejected
func typeReason(t market.ChangeType, cfg Config) string {
	switch t {
	case market.ChangePriceChanged:
		return ""
	case market.ChangeNew:
		if cfg.NotifyOnNew {
			return ""
		}
	case market.ChangeRemoved:
		if cfg.NotifyOnRemoved {
			return ""
		}
	case market.ChangeUpdated:
		if cfg.NotifyOnUpdated {
			return ""
		}
	}
	return ReasonTypeDisabled
}

func suppress(dec Decision, reason string) Decision {
	dec.Suppressed = true
	dec.Reason = reason
	return dec
}

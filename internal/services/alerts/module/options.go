package module

import (
	"encoding/json"
	"time"

	"propwatch/internal/platform/config"
)

// Options holds configuration settings for the alerts module
type Options struct {
	EnvOverrides    []byte
	HistoryLookback time.Duration
}

// FromConfig reads configuration settings from the config.Conf.
// Present CORE_ALERTS_* keys become a rulebook override fragment; absent
// keys leave the embedded defaults alone
func FromConfig(cfg config.Conf) Options {
	af := cfg.Prefix("CORE_ALERTS_")

	overrides := map[string]any{}
	if v := af.MayString("THRESHOLD_PCT", ""); v != "" {
		overrides["price_change_threshold_pct"] = af.MayFloat64("THRESHOLD_PCT", 0)
	}
	if v := af.MayString("NOTIFY_NEW", ""); v != "" {
		overrides["notify_on_new"] = af.MayBool("NOTIFY_NEW", true)
	}
	if v := af.MayString("NOTIFY_REMOVED", ""); v != "" {
		overrides["notify_on_removed"] = af.MayBool("NOTIFY_REMOVED", true)
	}
	if v := af.MayString("NOTIFY_UPDATED", ""); v != "" {
		overrides["notify_on_updated"] = af.MayBool("NOTIFY_UPDATED", false)
	}
	if v := af.MayString("COOLDOWN", ""); v != "" {
		overrides["cooldown_per_listing"] = v
	}
	if v := af.MayString("MAX_PER_WINDOW", ""); v != "" {
		overrides["max_alerts_per_window"] = af.MayInt("MAX_PER_WINDOW", 0)
	}
	if v := af.MayString("WINDOW", ""); v != "" {
		overrides["window_duration"] = v
	}

	var raw []byte
	if len(overrides) > 0 {
		raw, _ = json.Marshal(overrides)
	}

	return Options{
		EnvOverrides:    raw,
		HistoryLookback: af.MayDuration("LOOKBACK", 48*time.Hour),
	}
}

package module

import (
	"time"

	"propwatch/internal/platform/config"
)

// Options controls replay pacing and range limits
type Options struct {
	MaxRangeDays    int
	DelayPerCapture time.Duration
}

// FromConfig reads options using CORE_BACKFILL_ prefix
func FromConfig(cfg config.Conf) Options {
	bf := cfg.Prefix("CORE_BACKFILL_")
	return Options{
		MaxRangeDays:    bf.MayInt("MAX_RANGE_DAYS", 0),
		DelayPerCapture: bf.MayDuration("DELAY", 0),
	}
}

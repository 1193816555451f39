package module

import (
	"propwatch/internal/platform/config"
)

// Options configures the insights module
type Options struct {
	DefaultWindowDays int
	MaxWindowDays     int
	MinPoints         int
	MinOverlap        int
}

// FromConfig reads options from config.Conf
func FromConfig(cfg config.Conf) Options {
	inf := cfg.Prefix("CORE_INSIGHTS_")
	return Options{
		DefaultWindowDays: inf.MayInt("WINDOW_DAYS", 30),
		MaxWindowDays:     inf.MayInt("MAX_WINDOW_DAYS", 365),
		MinPoints:         inf.MayInt("MIN_POINTS", 3),
		MinOverlap:        inf.MayInt("MIN_OVERLAP", 3),
	}
}

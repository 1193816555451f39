package module

import (
	"propwatch/internal/platform/config"
)

// Options configures the listings module
type Options struct {
	HardLimit     int
	WatchlistPath string
}

// FromConfig reads options from config.Conf
func FromConfig(cfg config.Conf) Options {
	lf := cfg.Prefix("CORE_LISTINGS_")
	return Options{
		HardLimit:     lf.MayInt("HARD_LIMIT", 2000),
		WatchlistPath: lf.MayString("WATCHLIST", "watchlist.yaml"),
	}
}

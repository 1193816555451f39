package module

import (
	"propwatch/internal/platform/config"
)

// Options configures the digest module
type Options struct {
	At         string
	WindowDays int
}

// FromConfig reads options from config.Conf
func FromConfig(cfg config.Conf) Options {
	df := cfg.Prefix("CORE_DIGEST_")
	return Options{
		At:         df.MayString("AT", "08:00"),
		WindowDays: df.MayInt("WINDOW_DAYS", 30),
	}
}

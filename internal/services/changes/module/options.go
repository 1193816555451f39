package module

import (
	"propwatch/internal/platform/config"
)

// Options configures the changes module
type Options struct {
	HardLimit int
}

// FromConfig reads options from config.Conf
func FromConfig(cfg config.Conf) Options {
	cf := cfg.Prefix("CORE_CHANGES_")
	return Options{
		HardLimit: cf.MayInt("HARD_LIMIT", 1000),
	}
}

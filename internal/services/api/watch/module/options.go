package module

import (
	"propwatch/internal/platform/config"
)

// Options controls the watch admin surface
type Options struct {
	// OpsToken is the static bearer token required on every admin route
	OpsToken string
}

// FromConfig reads CORE_API_* values from process config/env
func FromConfig(cfg config.Conf) Options {
	af := cfg.Prefix("CORE_API_")
	return Options{
		OpsToken: af.MayString("OPS_TOKEN", ""),
	}
}

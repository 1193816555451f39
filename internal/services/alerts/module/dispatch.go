package module

import (
	"strings"

	"propwatch/internal/adapters/notify"
	"propwatch/internal/platform/config"
	"propwatch/internal/platform/logger"
)

// BuildDispatcher assembles the delivery channels from CORE_NOTIFY_* config.
// CHANNELS is a comma list of "log" and "webhook"; unknown names are logged
// and dropped. An empty result falls back to the log channel
func BuildDispatcher(cfg config.Conf) notify.Dispatcher {
	nf := cfg.Prefix("CORE_NOTIFY_")

	var channels []notify.Dispatcher
	for _, name := range nf.MayCSV("CHANNELS", []string{"log"}) {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "log":
			channels = append(channels, notify.NewLog())
		case "webhook":
			url := nf.MayString("WEBHOOK_URL", "")
			if url == "" {
				logger.Named("alerts").Warn().Msg("webhook channel configured without CORE_NOTIFY_WEBHOOK_URL, skipping")
				continue
			}
			channels = append(channels, notify.NewWebhook(url, nf.MayString("WEBHOOK_SECRET", "")))
		case "":
		default:
			logger.Named("alerts").Warn().Str("channel", name).Msg("unknown notify channel, skipping")
		}
	}

	switch len(channels) {
	case 0:
		return notify.NewLog()
	case 1:
		return channels[0]
	default:
		return notify.NewFanout(channels...)
	}
}

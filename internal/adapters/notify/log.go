package notify

import (
	"context"

	"propwatch/internal/platform/logger"
)

// Log writes alerts to the structured log. It is the default channel and
// the one backfill and dry runs keep when real delivery is off
type Log struct {
	log logger.Logger
}

// NewLog constructs a log dispatcher
func NewLog() *Log {
	return &Log{log: *logger.Named("notify.log")}
}

// Send implements Dispatcher
func (d *Log) Send(_ context.Context, a Alert) error {
	ev := d.log.Info().
		Str("alert_id", a.ID).
		Str("kind", a.Kind).
		Str("location", a.LocationSlug).
		Time("occurred_at", a.OccurredAt)

	if a.Event != nil {
		ev = ev.
			Str("event_type", string(a.Event.Type)).
			Str("external_id", a.Event.ExternalID).
			Int64("old_price", a.Event.OldPrice).
			Int64("new_price", a.Event.NewPrice)
		if a.Event.DeltaPct != nil {
			ev = ev.Float64("delta_pct", *a.Event.DeltaPct)
		}
	}
	ev.Msg(a.Title)
	return nil
}

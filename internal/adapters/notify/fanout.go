package notify

import (
	"context"
	"errors"
)

// Fanout forwards one alert to every configured channel.
// All channels are attempted even when an earlier one fails; the joined
// error reports every failure so none is silently lost
type Fanout struct {
	channels []Dispatcher
}

// NewFanout builds a fanout over the given channels, nils skipped
func NewFanout(channels ...Dispatcher) *Fanout {
	out := make([]Dispatcher, 0, len(channels))
	for _, c := range channels {
		if c != nil {
			out = append(out, c)
		}
	}
	return &Fanout{channels: out}
}

// Send implements Dispatcher
func (d *Fanout) Send(ctx context.Context, a Alert) error {
	var errs []error
	for _, c := range d.channels {
		if err := c.Send(ctx, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

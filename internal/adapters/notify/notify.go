// Package notify holds the dispatcher seam the core hands alert decisions to
// and the concrete channels behind it
package notify

import (
	"context"
	"time"

	"propwatch/internal/core/market"
)

// Alert kinds
const (
	KindChange = "change"
	KindDigest = "digest"
)

// Alert is the envelope every dispatcher accepts.
// Change alerts carry the triggering event; digest alerts carry
// free-form fields instead
type Alert struct {
	ID           string              `json:"id"`
	Kind         string              `json:"kind"`
	LocationSlug string              `json:"location_slug"`
	Title        string              `json:"title"`
	OccurredAt   time.Time           `json:"occurred_at"`
	Event        *market.ChangeEvent `json:"event,omitempty"`
	Fields       map[string]any      `json:"fields,omitempty"`
}

// Dispatcher sends one alert to a channel.
// Errors are reported to the caller and never retried here; the gate
// upstream prefers a dropped alert over a duplicate storm
type Dispatcher interface {
	Send(ctx context.Context, a Alert) error
}

// Func adapts a function to the Dispatcher interface
type Func func(ctx context.Context, a Alert) error

// Send implements Dispatcher
func (f Func) Send(ctx context.Context, a Alert) error { return f(ctx, a) }

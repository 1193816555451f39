package store

import (
	"context"
	"time"

	"propwatch/internal/platform/logger"

	"github.com/rs/zerolog"
)

// newCHTracer wraps a Clickhouse seam so every statement is logged,
// mirroring the pg tracer. The wrapper prints regardless of the
// process-wide root level when LogSQL=true
func newCHTracer(inner Clickhouse, root logger.Logger) Clickhouse {
	ll := root.Level(zerolog.DebugLevel).With().Str("component", "ch").Logger()
	return &chTracer{inner: inner, log: ll}
}

type chTracer struct {
	inner Clickhouse
	log   logger.Logger
}

var _ Clickhouse = (*chTracer)(nil)
var _ Pinger = (*chTracer)(nil)

func (t *chTracer) Insert(ctx context.Context, table string, data any) error {
	start := time.Now()
	err := t.inner.Insert(ctx, table, data)
	t.log.Info().
		Float64("elapsed_ms", float64(time.Since(start).Microseconds())/1000.0).
		Str("table", table).
		Err(err).
		Msg("ch insert")
	return err
}

func (t *chTracer) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	start := time.Now()
	rows, err := t.inner.Query(ctx, sql, args...)
	t.log.Info().
		Float64("elapsed_ms", float64(time.Since(start).Microseconds())/1000.0).
		Str("sql", sql).
		Interface("args", args).
		Err(err).
		Msg("ch query")
	return rows, err
}

func (t *chTracer) Close() error { return t.inner.Close() }

// Ping delegates readiness so Guard still sees through the wrapper
func (t *chTracer) Ping(ctx context.Context) error {
	if p, ok := t.inner.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

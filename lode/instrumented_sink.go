package lode

import (
	"context"

	"github.com/latticerun/actorhost/events"
	"github.com/latticerun/actorhost/metrics"
	"github.com/latticerun/actorhost/types"
)

// InstrumentedSink wraps an events.Sink and records write outcomes on a
// metrics.Collector, so archival failures show up alongside the rest
// of a host's lifecycle and invocation metrics.
type InstrumentedSink struct {
	inner     events.Sink
	collector *metrics.Collector
}

// NewInstrumentedSink wraps a sink with metrics instrumentation.
func NewInstrumentedSink(inner events.Sink, collector *metrics.Collector) *InstrumentedSink {
	return &InstrumentedSink{inner: inner, collector: collector}
}

// Publish delegates to the inner sink and records success or failure.
func (s *InstrumentedSink) Publish(ctx context.Context, evt *types.CloudEvent) error {
	err := s.inner.Publish(ctx, evt)
	if err != nil {
		s.collector.IncLodeWriteFailure()
	} else {
		s.collector.IncLodeWriteSuccess()
	}
	return err
}

// Close delegates to the inner sink.
func (s *InstrumentedSink) Close() error {
	return s.inner.Close()
}

// Verify InstrumentedSink implements events.Sink.
var _ events.Sink = (*InstrumentedSink)(nil)

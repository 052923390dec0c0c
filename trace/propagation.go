package trace

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/latticerun/actorhost/types"
)

// Context holds the W3C trace context fields an invocation carries
// across the lattice bus, alongside the invocation's msgpack body.
type Context struct {
	TraceParent string `msgpack:"traceparent,omitempty" json:"traceparent,omitempty"`
	TraceState  string `msgpack:"tracestate,omitempty" json:"tracestate,omitempty"`
}

// Extract reads the W3C trace context out of ctx for attaching to an
// outbound invocation or cloud event.
func Extract(ctx context.Context) Context {
	if !Enabled() {
		return Context{}
	}

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	return Context{
		TraceParent: carrier.Get("traceparent"),
		TraceState:  carrier.Get("tracestate"),
	}
}

// Inject attaches tc's trace context onto ctx, so a span started from
// the returned context is a child of the original caller's span.
func Inject(ctx context.Context, tc Context) context.Context {
	if tc.TraceParent == "" {
		return ctx
	}

	carrier := propagation.MapCarrier{
		"traceparent": tc.TraceParent,
		"tracestate":  tc.TraceState,
	}

	return otel.GetTextMapPropagator().Extract(ctx, carrier)
}

// FromHeaders installs a remote span context extracted from headers'
// traceparent entry, when present, via otel.GetTextMapPropagator(); it
// returns context.Background() otherwise — an explicit clear, not a
// leftover parent, so one mailbox-delivered invocation never inherits
// another's trace by accident.
func FromHeaders(headers []types.WireHeader) context.Context {
	if !Enabled() {
		return context.Background()
	}

	traceParent, ok := headerValue(headers, "traceparent")
	if !ok {
		return context.Background()
	}

	carrier := propagation.MapCarrier{"traceparent": traceParent}
	if traceState, ok := headerValue(headers, "tracestate"); ok {
		carrier["tracestate"] = traceState
	}
	return otel.GetTextMapPropagator().Extract(context.Background(), carrier)
}

func headerValue(headers []types.WireHeader, key string) (string, bool) {
	for _, h := range headers {
		if h.Key == key {
			return h.Value, true
		}
	}
	return "", false
}

// TraceID returns the active trace ID from ctx, or "" if none.
func TraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().HasTraceID() {
		return ""
	}
	return span.SpanContext().TraceID().String()
}

// SpanID returns the active span ID from ctx, or "" if none.
func SpanID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().HasSpanID() {
		return ""
	}
	return span.SpanContext().SpanID().String()
}

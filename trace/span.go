package trace

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for actor instance spans.
var (
	AttrPublicKey    = attribute.Key("actorhost.public_key")
	AttrInstanceID   = attribute.Key("actorhost.instance_id")
	AttrOperation    = attribute.Key("actorhost.operation")
	AttrRevision     = attribute.Key("actorhost.revision")
	AttrContentBytes = attribute.Key("actorhost.content_length")
	AttrInvocationID = attribute.Key("actorhost.invocation_id")
)

// StartHandleInvocation opens the span wrapping the invocation
// pipeline's S1-S6 stages.
func StartHandleInvocation(ctx context.Context, publicKey, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := append([]attribute.KeyValue{AttrPublicKey.String(publicKey), AttrOperation.String(operation)}, attrs...)
	return Tracer().Start(ctx, "actor.handle_invocation",
		trace.WithAttributes(all...),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

// StartLiveUpdate opens the span wrapping a Perform Live Update
// operation.
func StartLiveUpdate(ctx context.Context, publicKey string, revision int64) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "actor.live_update",
		trace.WithAttributes(AttrPublicKey.String(publicKey), AttrRevision.Int64(revision)),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// SetError records err on span and marks its status as errored.
func SetError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetOK marks span as successfully completed.
func SetOK(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

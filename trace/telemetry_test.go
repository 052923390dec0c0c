package trace

import (
	"testing"
)

func TestInit_DisabledYieldsNoopTracer(t *testing.T) {
	if err := Init(t.Context(), Config{Enabled: false}); err != nil {
		t.Fatalf("init: %v", err)
	}
	if Enabled() {
		t.Fatal("expected tracing disabled")
	}
	if Tracer() == nil {
		t.Fatal("expected a non-nil noop tracer")
	}
}

func TestInit_NoopExporter(t *testing.T) {
	if err := Init(t.Context(), Config{Enabled: true, Exporter: "noop", ServiceName: "actorhost-test"}); err != nil {
		t.Fatalf("init: %v", err)
	}
	defer func() { _ = Shutdown(t.Context()) }()

	if !Enabled() {
		t.Fatal("expected tracing enabled")
	}

	ctx, span := StartHandleInvocation(t.Context(), "Mxxxxx", "handle_request")
	SetOK(span)
	span.End()
	_ = ctx

	// Reset to disabled for subsequent tests in this package.
	if err := Init(t.Context(), Config{Enabled: false}); err != nil {
		t.Fatalf("reset: %v", err)
	}
}

func TestInit_UnknownExporter(t *testing.T) {
	if err := Init(t.Context(), Config{Enabled: true, Exporter: "carrier-pigeon"}); err == nil {
		t.Fatal("expected error for unknown exporter")
	}
}

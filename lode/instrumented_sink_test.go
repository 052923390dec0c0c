package lode

import (
	"context"
	"errors"
	"testing"

	"github.com/latticerun/actorhost/metrics"
	"github.com/latticerun/actorhost/types"
)

// failingPublishSink is a test double that returns an error on Publish.
type failingPublishSink struct {
	writeErr error
	closed   bool
}

func (s *failingPublishSink) Publish(context.Context, *types.CloudEvent) error { return s.writeErr }

func (s *failingPublishSink) Close() error {
	s.closed = true
	return nil
}

// successPublishSink is a test double that accepts all writes.
type successPublishSink struct {
	publishCalls int
	closed       bool
}

func (s *successPublishSink) Publish(context.Context, *types.CloudEvent) error {
	s.publishCalls++
	return nil
}

func (s *successPublishSink) Close() error {
	s.closed = true
	return nil
}

func TestInstrumentedSink_PublishSuccess(t *testing.T) {
	inner := &successPublishSink{}
	collector := metrics.NewCollector("host-1", "default")
	sink := NewInstrumentedSink(inner, collector)

	evt := &types.CloudEvent{Type: string(types.EventActorStarted), ID: "evt-1"}

	if err := sink.Publish(t.Context(), evt); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap := collector.Snapshot()
	if snap.LodeWriteSuccess != 1 {
		t.Errorf("LodeWriteSuccess = %d, want 1", snap.LodeWriteSuccess)
	}
	if snap.LodeWriteFailure != 0 {
		t.Errorf("LodeWriteFailure = %d, want 0", snap.LodeWriteFailure)
	}
	if inner.publishCalls != 1 {
		t.Errorf("inner.publishCalls = %d, want 1", inner.publishCalls)
	}
}

func TestInstrumentedSink_PublishFailure(t *testing.T) {
	writeErr := errors.New("disk full")
	inner := &failingPublishSink{writeErr: writeErr}
	collector := metrics.NewCollector("host-1", "default")
	sink := NewInstrumentedSink(inner, collector)

	evt := &types.CloudEvent{Type: string(types.EventActorStarted), ID: "evt-1"}

	err := sink.Publish(t.Context(), evt)
	if !errors.Is(err, writeErr) {
		t.Fatalf("expected %v, got %v", writeErr, err)
	}

	snap := collector.Snapshot()
	if snap.LodeWriteSuccess != 0 {
		t.Errorf("LodeWriteSuccess = %d, want 0", snap.LodeWriteSuccess)
	}
	if snap.LodeWriteFailure != 1 {
		t.Errorf("LodeWriteFailure = %d, want 1", snap.LodeWriteFailure)
	}
}

func TestInstrumentedSink_CloseDelegate(t *testing.T) {
	inner := &successPublishSink{}
	collector := metrics.NewCollector("host-1", "default")
	sink := NewInstrumentedSink(inner, collector)

	if err := sink.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !inner.closed {
		t.Error("Close should delegate to inner sink")
	}
}

func TestInstrumentedSink_MultipleCalls(t *testing.T) {
	inner := &successPublishSink{}
	collector := metrics.NewCollector("host-1", "default")
	sink := NewInstrumentedSink(inner, collector)

	evt := &types.CloudEvent{Type: string(types.EventActorStarted), ID: "evt-1"}
	for range 5 {
		_ = sink.Publish(t.Context(), evt)
	}

	snap := collector.Snapshot()
	if snap.LodeWriteSuccess != 5 {
		t.Errorf("LodeWriteSuccess = %d, want 5", snap.LodeWriteSuccess)
	}
}

package events

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/latticerun/actorhost/bus"
	"github.com/latticerun/actorhost/types"
	"github.com/latticerun/actorhost/wire"
)

type fakeBus struct {
	mu     sync.Mutex
	topics []string
	bodies [][]byte
	failOn string
}

func (b *fakeBus) Publish(_ context.Context, topic string, payload []byte) error {
	if b.failOn != "" && topic == b.failOn {
		return errors.New("publish failed")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.topics = append(b.topics, topic)
	b.bodies = append(b.bodies, payload)
	return nil
}

func (b *fakeBus) Subscribe(context.Context, string, bus.Handler) (bus.Subscription, error) {
	return nil, errors.New("not implemented")
}

type fakeSink struct {
	mu     sync.Mutex
	events []*types.CloudEvent
	closed bool
}

func (s *fakeSink) Publish(_ context.Context, evt *types.CloudEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, evt)
	return nil
}

func (s *fakeSink) Close() error {
	s.closed = true
	return nil
}

func TestPublisher_LifecycleEventUsesDefaultTopic(t *testing.T) {
	b := &fakeBus{}
	p := NewPublisher(b, "host-001")

	data := types.ActorStartedData{PublicKey: "Mxxxxx"}
	if err := p.Publish(t.Context(), "default", types.EventActorStarted, data); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	if len(b.topics) != 1 || b.topics[0] != "default.wasmbus.evt" {
		t.Fatalf("expected topic default.wasmbus.evt, got %v", b.topics)
	}

	evt, err := wire.DecodeCloudEvent(b.bodies[0])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if evt.Type != string(types.EventActorStarted) {
		t.Errorf("expected type actor_started, got %s", evt.Type)
	}
	if evt.ContractVersion != types.ContractVersion {
		t.Errorf("expected contract version %s, got %s", types.ContractVersion, evt.ContractVersion)
	}
}

func TestPublisher_InvocationResultUsesRPCTopic(t *testing.T) {
	b := &fakeBus{}
	p := NewPublisher(b, "host-001")

	data := types.InvocationResultData{InvocationID: "inv-1"}
	if err := p.Publish(t.Context(), "default", types.EventInvocationSucceeded, data); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	if len(b.topics) != 1 || b.topics[0] != "wasmbus.rpcevt.default" {
		t.Fatalf("expected topic wasmbus.rpcevt.default, got %v", b.topics)
	}
}

func TestPublisher_FanOutToSinks(t *testing.T) {
	b := &fakeBus{}
	s1 := &fakeSink{}
	s2 := &fakeSink{}
	p := NewPublisher(b, "host-001").WithSinks(s1, s2)

	if err := p.Publish(t.Context(), "default", types.EventActorStopped, types.ActorStoppedData{InstanceID: "i1"}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	if len(s1.events) != 1 || len(s2.events) != 1 {
		t.Fatalf("expected both sinks to receive the event, got %d and %d", len(s1.events), len(s2.events))
	}
}

func TestPublisher_BusFailurePropagates(t *testing.T) {
	b := &fakeBus{failOn: "default.wasmbus.evt"}
	p := NewPublisher(b, "host-001")

	if err := p.Publish(t.Context(), "default", types.EventActorStarted, types.ActorStartedData{}); err == nil {
		t.Fatal("expected error when bus publish fails")
	}
}

func TestPublisher_SinkFailureDoesNotFailPublish(t *testing.T) {
	b := &fakeBus{}
	p := NewPublisher(b, "host-001").WithSinks(&failingSink{})

	if err := p.Publish(t.Context(), "default", types.EventActorStarted, types.ActorStartedData{}); err != nil {
		t.Fatalf("sink failure must not fail publish: %v", err)
	}
}

type failingSink struct{}

func (failingSink) Publish(context.Context, *types.CloudEvent) error { return errors.New("sink down") }
func (failingSink) Close() error                                     { return nil }

func TestPublisher_CloseClosesAllSinks(t *testing.T) {
	b := &fakeBus{}
	s1 := &fakeSink{}
	s2 := &fakeSink{}
	p := NewPublisher(b, "host-001").WithSinks(s1, s2)

	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !s1.closed || !s2.closed {
		t.Fatal("expected both sinks closed")
	}
}

var _ Sink = (*fakeSink)(nil)

// Package events implements the Event Publisher Adapter (C4): it shapes
// domain events into the cloud-event envelope and publishes them on the
// lattice bus, optionally fanning completion notifications out to
// operator-configured sinks (webhook, redis).
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/latticerun/actorhost/bus"
	"github.com/latticerun/actorhost/types"
	"github.com/latticerun/actorhost/wire"
)

// Sink is a downstream fan-out destination for published events, e.g.
// an HTTP webhook or a separate Redis channel an operator wants
// completion notifications mirrored to. Publish failures on a sink
// never fail the primary bus publish.
type Sink interface {
	Publish(ctx context.Context, evt *types.CloudEvent) error
	Close() error
}

// Publisher wraps the lattice bus and shapes lifecycle/invocation-result
// payloads into the cloud-event envelope before publishing. Lifecycle
// events publish on the lattice's default topic; invocation-result
// events publish on wasmbus.rpcevt.{lattice_prefix}.
type Publisher struct {
	b       bus.Bus
	hostID  string
	sinks   []Sink
	nowFunc func() time.Time
}

// NewPublisher creates a Publisher for hostID, publishing through b.
func NewPublisher(b bus.Bus, hostID string) *Publisher {
	return &Publisher{b: b, hostID: hostID, nowFunc: time.Now}
}

// WithSinks attaches fan-out sinks. Returns the receiver for chaining.
func (p *Publisher) WithSinks(sinks ...Sink) *Publisher {
	p.sinks = append(p.sinks, sinks...)
	return p
}

// defaultTopic is the lattice's default cloud-event topic for lifecycle
// events, scoped by prefix.
func defaultTopic(latticePrefix string) string {
	return latticePrefix + ".wasmbus.evt"
}

// rpcResultTopic is where invocation-result events publish.
func rpcResultTopic(latticePrefix string) string {
	return fmt.Sprintf("%s.%s", types.RPCResultTopicPrefix, latticePrefix)
}

func isInvocationResult(t types.EventType) bool {
	return t == types.EventInvocationSucceeded || t == types.EventInvocationFailed
}

// Publish shapes data into a CloudEvent and publishes it, choosing the
// lifecycle or RPC-result topic based on event type.
func (p *Publisher) Publish(ctx context.Context, latticePrefix string, eventType types.EventType, data any) error {
	evt := &types.CloudEvent{
		SpecVersion:     "1.0",
		Type:            string(eventType),
		Source:          p.hostID,
		ID:              fmt.Sprintf("%s-%d", eventType, p.nowFunc().UnixNano()),
		Time:            p.nowFunc().UTC().Format(time.RFC3339Nano),
		Data:            data,
		ContractVersion: types.ContractVersion,
		HostID:          p.hostID,
	}

	topic := defaultTopic(latticePrefix)
	if isInvocationResult(eventType) {
		topic = rpcResultTopic(latticePrefix)
	}

	body, err := wire.EncodeCloudEvent(evt)
	if err != nil {
		return fmt.Errorf("events: failed to encode %s: %w", eventType, err)
	}

	if err := p.b.Publish(ctx, topic, body); err != nil {
		return fmt.Errorf("events: failed to publish %s: %w", eventType, err)
	}

	p.fanOut(ctx, evt)
	return nil
}

// fanOut mirrors evt to every configured sink, best-effort. Sink errors
// are swallowed: fan-out is a convenience for operators, not part of the
// bus reply contract.
func (p *Publisher) fanOut(ctx context.Context, evt *types.CloudEvent) {
	for _, sink := range p.sinks {
		_ = sink.Publish(ctx, evt)
	}
}

// Close releases every attached sink.
func (p *Publisher) Close() error {
	var firstErr error
	for _, sink := range p.sinks {
		if err := sink.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Package bus implements the lattice message bus consumed by the
// invocation pipeline (as a request/reply transport) and the lifecycle
// manager's RPC subscription supervisor (C2 start/halt wiring).
package bus

import "context"

// Handler processes one message delivered on a subscribed topic.
type Handler func(ctx context.Context, topic string, payload []byte)

// Subscription is a live subscription returned by Bus.Subscribe.
type Subscription interface {
	Unsubscribe() error
}

// Bus is the lattice message bus contract this core consumes: framed
// publish and topic subscription. Wire-format definition of the bus
// itself is out of scope (spec.md §1 Non-goals); this interface only
// names the narrow operations the core calls.
type Bus interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	Subscribe(ctx context.Context, topic string, handler Handler) (Subscription, error)
}

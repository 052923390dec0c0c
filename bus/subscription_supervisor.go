package bus

import (
	"context"
	"fmt"
	"sync"
)

// RPCTopic returns the topic an actor's RPC subscription listens on:
// scoped by lattice prefix and public key so invocations addressed to
// one actor never reach another's mailbox.
func RPCTopic(latticePrefix, publicKey string) string {
	return fmt.Sprintf("%s.wasmbus.rpc.%s", latticePrefix, publicKey)
}

// SubscriptionSupervisor ensures exactly one live RPC subscription per
// (lattice_prefix, public_key) pair, regardless of how many times Ensure
// is called — lifecycle start calls it unconditionally, and a second
// live-update or restart on the same key must not open a duplicate
// subscription.
type SubscriptionSupervisor struct {
	bus Bus

	mu   sync.Mutex
	subs map[string]Subscription
}

// NewSubscriptionSupervisor wraps bus with per-actor subscription
// bookkeeping.
func NewSubscriptionSupervisor(b Bus) *SubscriptionSupervisor {
	return &SubscriptionSupervisor{bus: b, subs: make(map[string]Subscription)}
}

// Ensure guarantees an RPC subscription is running for (latticePrefix,
// publicKey), creating one via handler if none exists yet.
func (s *SubscriptionSupervisor) Ensure(ctx context.Context, latticePrefix, publicKey string, handler Handler) error {
	topic := RPCTopic(latticePrefix, publicKey)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.subs[topic]; exists {
		return nil
	}

	sub, err := s.bus.Subscribe(ctx, topic, handler)
	if err != nil {
		return fmt.Errorf("bus: failed to ensure subscription for %s: %w", topic, err)
	}
	s.subs[topic] = sub
	return nil
}

// Release tears down the subscription for (latticePrefix, publicKey), if
// any. A no-op if none exists, so halt remains idempotent.
func (s *SubscriptionSupervisor) Release(latticePrefix, publicKey string) error {
	topic := RPCTopic(latticePrefix, publicKey)

	s.mu.Lock()
	sub, exists := s.subs[topic]
	if exists {
		delete(s.subs, topic)
	}
	s.mu.Unlock()

	if !exists {
		return nil
	}
	return sub.Unsubscribe()
}

package runtime

import (
	"context"
	"crypto/ed25519"
	"errors"
	"sync"
	"testing"

	"github.com/latticerun/actorhost/antiforgery"
	"github.com/latticerun/actorhost/bus"
	"github.com/latticerun/actorhost/claims"
	"github.com/latticerun/actorhost/events"
	"github.com/latticerun/actorhost/log"
	"github.com/latticerun/actorhost/metrics"
	"github.com/latticerun/actorhost/objectstore"
	"github.com/latticerun/actorhost/policy"
	"github.com/latticerun/actorhost/registry"
	"github.com/latticerun/actorhost/types"
	"github.com/latticerun/actorhost/wire"
)

// fakeBus records published topics/payloads and hands Subscribe callers
// back a handle so tests can invoke the installed handler directly.
type fakeBus struct {
	mu       sync.Mutex
	handlers map[string]bus.Handler
	topics   []string
	bodies   [][]byte
}

func newFakeBus() *fakeBus {
	return &fakeBus{handlers: make(map[string]bus.Handler)}
}

func (b *fakeBus) Publish(_ context.Context, topic string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.topics = append(b.topics, topic)
	b.bodies = append(b.bodies, payload)
	return nil
}

func (b *fakeBus) Subscribe(_ context.Context, topic string, handler bus.Handler) (bus.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = handler
	return fakeSubscription{}, nil
}

func (b *fakeBus) handlerFor(topic string) bus.Handler {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.handlers[topic]
}

type fakeSubscription struct{}

func (fakeSubscription) Unsubscribe() error { return nil }

type lifecycleHarness struct {
	bus    *fakeBus
	mgr    *Manager
	engine *TestEngine
	priv   ed25519.PrivateKey
}

func newLifecycleHarness(t *testing.T) *lifecycleHarness {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	hosts := registry.NewHostRegistry()
	hosts.Register("host-1", "default")

	b := newFakeBus()
	engine := NewTestEngine()

	deps := ManagerDeps{
		Engine:     engine,
		Bus:        b,
		Supervisor: bus.NewSubscriptionSupervisor(b),
		Hosts:      hosts,
		References: registry.NewReferenceMap(),
		Actors:     registry.NewActorRegistry(),
		Claims:     claims.NewMemoryStore(),
		Events:     events.NewPublisher(b, "host-1"),
		Metrics:    metrics.NewCollector("host-1", "default"),
		Logger:     log.NewLogger(log.InstanceContext{HostID: "host-1"}),
		Pipeline: PipelineDeps{
			Verifier:       antiforgery.NewEd25519Verifier(),
			TrustedIssuers: []ed25519.PublicKey{pub},
			Claims:         claims.NewMemoryStore(),
			Policy:         policy.NewOpenEvaluator(),
			Objects:        objectstore.NewMemoryStore(),
			Metrics:        metrics.NewCollector("host-1", "default"),
		},
	}
	// S4 looks claims up from deps.Pipeline.Claims; keep it in sync with
	// whatever Start persists into deps.Claims for these tests.
	deps.Pipeline.Claims = deps.Claims

	return &lifecycleHarness{bus: b, mgr: NewManager(deps), engine: engine, priv: priv}
}

func TestManager_StartPublishesActorStartedBeforeSubscription(t *testing.T) {
	h := newLifecycleHarness(t)
	claimsIn := types.Claims{PublicKey: "Mxxxxx", Capabilities: []string{"wasmcloud:httpserver"}}

	inst, err := h.mgr.Start(t.Context(), StartRequest{Claims: claimsIn, Bytes: []byte("wasm"), HostID: "host-1"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if inst.Claims().PublicKey != "Mxxxxx" {
		t.Fatalf("expected public key Mxxxxx, got %q", inst.Claims().PublicKey)
	}

	h.bus.mu.Lock()
	topics := append([]string(nil), h.bus.topics...)
	h.bus.mu.Unlock()

	if len(topics) == 0 || topics[0] != "default.wasmbus.evt" {
		t.Fatalf("expected first published topic to be the lifecycle default topic, got %v", topics)
	}
}

func TestManager_StartFailurePublishesActorStartFailed(t *testing.T) {
	h := newLifecycleHarness(t)
	h.engine.Reject([]byte("bad wasm"), errors.New("bad magic"))

	_, err := h.mgr.Start(t.Context(), StartRequest{
		Claims: types.Claims{PublicKey: "Mxxxxx"},
		Bytes:  []byte("bad wasm"),
		HostID: "host-1",
	})
	if err == nil {
		t.Fatal("expected Start to fail")
	}

	h.bus.mu.Lock()
	defer h.bus.mu.Unlock()
	if len(h.bus.topics) != 1 || h.bus.topics[0] != "default.wasmbus.evt" {
		t.Fatalf("expected exactly one actor_start_failed publish, got %v", h.bus.topics)
	}
}

func TestManager_HaltIsIdempotent(t *testing.T) {
	h := newLifecycleHarness(t)
	inst, err := h.mgr.Start(t.Context(), StartRequest{Claims: types.Claims{PublicKey: "Mxxxxx"}, Bytes: []byte("wasm"), HostID: "host-1"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := h.mgr.Halt(t.Context(), inst); err != nil {
		t.Fatalf("Halt: %v", err)
	}
	countAfterFirst := len(h.bus.topics)

	if err := h.mgr.Halt(t.Context(), inst); err != nil {
		t.Fatalf("second Halt: %v", err)
	}
	if len(h.bus.topics) != countAfterFirst {
		t.Fatalf("expected halting an already-halted instance to publish nothing new, before=%d after=%d", countAfterFirst, len(h.bus.topics))
	}
}

func TestManager_LiveUpdateSwapsArtifactRefAndPublishesActorUpdated(t *testing.T) {
	h := newLifecycleHarness(t)
	inst, err := h.mgr.Start(t.Context(), StartRequest{Claims: types.Claims{PublicKey: "Mxxxxx"}, Bytes: []byte("wasm-v1"), HostID: "host-1"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	oldRef := inst.ArtifactRef()

	if err := h.mgr.LiveUpdate(t.Context(), inst, LiveUpdateRequest{
		NewBytes:  []byte("wasm-v2"),
		NewClaims: types.Claims{PublicKey: "Mxxxxx", Revision: 2},
	}); err != nil {
		t.Fatalf("LiveUpdate: %v", err)
	}

	if inst.ArtifactRef() == oldRef {
		t.Fatal("expected artifact ref to change after successful live update")
	}

	h.bus.mu.Lock()
	defer h.bus.mu.Unlock()
	if h.bus.topics[len(h.bus.topics)-1] != "default.wasmbus.evt" {
		t.Fatalf("expected actor_updated on the lifecycle topic, got %v", h.bus.topics)
	}
}

func TestManager_LiveUpdateFailureRetainsOldRefAndAlwaysSucceeds(t *testing.T) {
	h := newLifecycleHarness(t)
	inst, err := h.mgr.Start(t.Context(), StartRequest{Claims: types.Claims{PublicKey: "Mxxxxx"}, Bytes: []byte("wasm-v1"), HostID: "host-1"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	oldRef := inst.ArtifactRef()
	h.engine.Reject([]byte("bad wasm"), errors.New("bad magic"))

	if err := h.mgr.LiveUpdate(t.Context(), inst, LiveUpdateRequest{
		NewBytes:  []byte("bad wasm"),
		NewClaims: types.Claims{PublicKey: "Mxxxxx", Revision: 2},
	}); err != nil {
		t.Fatalf("LiveUpdate call itself must always succeed, got %v", err)
	}

	if inst.ArtifactRef() != oldRef {
		t.Fatalf("expected artifact ref unchanged on update failure, old=%v got=%v", oldRef, inst.ArtifactRef())
	}
}

func TestManager_MailboxHandlerRunsPipelineAndReplies(t *testing.T) {
	h := newLifecycleHarness(t)
	claimsIn := types.Claims{PublicKey: "Mxxxxx"}
	inst, err := h.mgr.Start(t.Context(), StartRequest{Claims: claimsIn, Bytes: []byte("wasm"), HostID: "host-1"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Source claims must exist for S4's lookup to succeed.
	if err := h.mgr.deps.Pipeline.Claims.Put(t.Context(), "host-1", "default", types.Claims{PublicKey: "A"}); err != nil {
		t.Fatalf("seed source claims: %v", err)
	}

	topic := bus.RPCTopic("default", "Mxxxxx")
	handler := h.bus.handlerFor(topic)
	if handler == nil {
		t.Fatalf("expected a subscription handler installed on %s", topic)
	}

	inv := &types.Invocation{ID: "inv-1", Origin: types.WireAddress{PublicKey: "A"}, Target: types.WireAddress{PublicKey: "Mxxxxx"}, Operation: "Echo", Msg: []byte("hi"), ContentLength: 2}
	body, err := wire.EncodeInvocation(inv)
	if err != nil {
		t.Fatalf("encode invocation: %v", err)
	}
	signed := antiforgery.Sign(h.priv, body)

	handler(t.Context(), topic, signed)

	h.bus.mu.Lock()
	defer h.bus.mu.Unlock()
	var replied bool
	for _, topicName := range h.bus.topics {
		if topicName == topic+".reply" {
			replied = true
		}
	}
	if !replied {
		t.Fatalf("expected a reply published on %s.reply, got topics %v", topic, h.bus.topics)
	}
	_ = inst
}
